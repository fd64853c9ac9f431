// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	engine *engine.Engine
}

func NewVizHandlers(e *engine.Engine) *VizHandlers {
	return &VizHandlers{engine: e}
}

type GenerateGraphInput struct {
	PipelineID string `json:"pipeline_id,omitempty" jsonschema:"Pipeline to draw (default: the default pipeline)"`
}

type GenerateGraphOutput struct {
	PipelineID string `json:"pipeline_id"`
	DOTSource  string `json:"dot_source"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	cat := h.engine.Catalog()
	pipeline, err := cat.DefaultPipeline()
	if input.PipelineID != "" {
		pipeline, err = cat.Pipeline(input.PipelineID)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("%w: %s", engine.ErrUnknownPipeline, input.PipelineID)
	}

	dot, stats, err := viz.NewGraphGenerator(pipeline, h.engine.Deals()).GenerateFlowGraph(ctx)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		PipelineID: pipeline.ID,
		DOTSource:  dot,
		NodeCount:  stats.NodeCount,
		EdgeCount:  stats.EdgeCount,
	}, nil
}
