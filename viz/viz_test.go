// ABOUTME: Tests for the pipeline dashboard and stage flow graph
// ABOUTME: Builds deal histories by hand so counts are predictable
package viz

import (
	"testing"
	"time"

	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func movedDeal(id, name string, amount float64, stages ...string) models.Deal {
	entered := now.AddDate(0, -1, 0)
	d := models.Deal{
		ID:          id,
		DealNumber:  "DEAL-2024-" + id,
		Name:        name,
		PipelineID:  "sales-pipeline",
		StageID:     stages[len(stages)-1],
		Amount:      amount,
		Probability: 50,
		Priority:    models.PriorityMedium,
		Health:      models.HealthHealthy,
		UpdatedAt:   now,
	}
	from := ""
	for _, s := range stages {
		d.StageHistory = append(d.StageHistory, models.StageHistoryEntry{
			FromStageID: from, ToStageID: s, EnteredAt: entered,
		})
		from = s
		entered = entered.Add(time.Hour)
	}
	return d
}

func TestGenerateDashboardStats(t *testing.T) {
	cat := catalog.Default()
	pipeline, err := cat.Pipeline("sales-pipeline")
	require.NoError(t, err)

	stale := movedDeal("002", "Globex", 2000, "lead")
	stale.UpdatedAt = now.AddDate(0, 0, -20)
	slipped := movedDeal("003", "Initech", 3000, "lead", "qualified")
	due := now.AddDate(0, 0, -1)
	slipped.ExpectedCloseDate = &due

	deals := []models.Deal{
		movedDeal("001", "Acme", 1000, "lead", "qualified", "closed-won"),
		stale,
		slipped,
		{ID: "x", PipelineID: "enterprise-pipeline", StageID: "discovery", Amount: 99999},
	}

	stats := GenerateDashboardStats(cat, pipeline, deals, now)
	assert.Equal(t, 3, stats.Metrics.TotalDeals)
	assert.Equal(t, 6000.0, stats.Metrics.TotalValue)
	assert.Len(t, stats.Stages, 6)
	assert.Equal(t, 1, stats.Stages[0].Count)
	assert.Len(t, stats.TopDeals, 2)
	require.Len(t, stats.StaleDeals, 1)
	assert.Equal(t, "Globex", stats.StaleDeals[0].Name)
	assert.Equal(t, 1, stats.Slipped)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "SALES PIPELINE")
	assert.Contains(t, out, "NEEDS ATTENTION")
	assert.Contains(t, out, "Closed Won")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$950", FormatAmount(950))
	assert.Equal(t, "$25K", FormatAmount(25000))
	assert.Equal(t, "$1.5M", FormatAmount(1_500_000))
}

func TestGenerateFlowGraph(t *testing.T) {
	pipeline, err := catalog.Default().Pipeline("sales-pipeline")
	require.NoError(t, err)

	deals := []models.Deal{
		movedDeal("001", "Acme", 1000, "lead", "qualified", "proposal"),
		movedDeal("002", "Globex", 2000, "lead", "qualified"),
	}

	dot, stats, err := NewGraphGenerator(pipeline, deals).GenerateFlowGraph(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.NodeCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "qualified")
}
