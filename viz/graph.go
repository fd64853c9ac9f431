// ABOUTME: GraphViz rendering of stage-to-stage deal flow for one pipeline
// ABOUTME: Nodes are stages sized by deal count, edges are observed transitions
package viz

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
)

type GraphGenerator struct {
	pipeline models.Pipeline
	deals    []models.Deal
}

func NewGraphGenerator(pipeline models.Pipeline, deals []models.Deal) *GraphGenerator {
	return &GraphGenerator{pipeline: pipeline, deals: deals}
}

// FlowStats summarizes what GenerateFlowGraph drew.
type FlowStats struct {
	NodeCount int
	EdgeCount int
}

// GenerateFlowGraph renders the pipeline as DOT source. Transitions touching
// stages outside the pipeline are skipped.
func (g *GraphGenerator) GenerateFlowGraph(ctx context.Context) (string, FlowStats, error) {
	var stats FlowStats

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", stats, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", stats, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel(g.pipeline.Name)
	graph.SetRankDir(cgraph.LRRank)

	summaries := engine.StageBreakdown(g.pipeline, g.deals)
	nodes := make(map[string]*cgraph.Node, len(summaries))
	for _, s := range summaries {
		node, err := graph.CreateNodeByName(s.StageID)
		if err != nil {
			return "", stats, fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d deals\n%s", s.Name, s.Count, FormatAmount(s.Value)))
		node.SetShape("box")
		node.SetStyle("filled")
		if s.Color != "" {
			node.SetFillColor(s.Color)
		}
		nodes[s.StageID] = node
		stats.NodeCount++
	}

	counts := engine.TransitionCounts(pipelineDeals(g.pipeline.ID, g.deals))
	flows := make([]engine.Flow, 0, len(counts))
	for f := range counts {
		flows = append(flows, f)
	}
	// stable edge order keeps the DOT output reproducible
	slices.SortFunc(flows, func(a, b engine.Flow) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})

	for _, f := range flows {
		from, ok1 := nodes[f.From]
		to, ok2 := nodes[f.To]
		if !ok1 || !ok2 {
			continue
		}
		edge, err := graph.CreateEdgeByName(f.From+"->"+f.To, from, to)
		if err != nil {
			return "", stats, fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d", counts[f]))
		edge.SetPenWidth(float64(min(1+counts[f], 6)))
		stats.EdgeCount++
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", stats, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), stats, nil
}

func pipelineDeals(pipelineID string, deals []models.Deal) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if d.PipelineID == pipelineID {
			out = append(out, d)
		}
	}
	return out
}
