// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Shows per-stage pipeline bars, headline metrics and deals needing attention
package viz

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
)

const (
	staleAfter = 14 * 24 * time.Hour
	topDeals   = 5
)

type DashboardStats struct {
	Pipeline models.Pipeline
	Stages   []engine.StageSummary
	Metrics  engine.Metrics

	TopDeals   []ScoredDeal
	StaleDeals []StaleDeal
	Slipped    int
}

type ScoredDeal struct {
	DealNumber string
	Name       string
	Score      int
}

type StaleDeal struct {
	Name      string
	DaysSince int
}

// GenerateDashboardStats summarizes the deals of one pipeline as of now.
func GenerateDashboardStats(cat engine.StatusResolver, pipeline models.Pipeline, deals []models.Deal, now time.Time) *DashboardStats {
	mine := pipelineDeals(pipeline.ID, deals)
	stats := &DashboardStats{
		Pipeline: pipeline,
		Stages:   engine.StageBreakdown(pipeline, mine),
		Metrics:  engine.Summarize(cat, mine),
	}

	for _, d := range mine {
		if engine.DealStatus(cat, d) != models.StatusOpen || d.Health == models.HealthArchived {
			continue
		}
		stats.TopDeals = append(stats.TopDeals, ScoredDeal{
			DealNumber: d.DealNumber,
			Name:       d.Name,
			Score:      engine.Score(d, now),
		})

		last := d.UpdatedAt
		if d.LastActivityAt != nil {
			last = *d.LastActivityAt
		}
		if since := now.Sub(last); since > staleAfter {
			stats.StaleDeals = append(stats.StaleDeals, StaleDeal{
				Name:      d.Name,
				DaysSince: int(since.Hours() / 24),
			})
		}
		if d.ExpectedCloseDate != nil && d.ExpectedCloseDate.Before(now) {
			stats.Slipped++
		}
	}

	slices.SortStableFunc(stats.TopDeals, func(a, b ScoredDeal) int { return b.Score - a.Score })
	if len(stats.TopDeals) > topDeals {
		stats.TopDeals = stats.TopDeals[:topDeals]
	}
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(fmt.Sprintf("  %s\n", strings.ToUpper(stats.Pipeline.Name)))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderStages(&out, stats.Stages)
	out.WriteString("\n")

	m := stats.Metrics
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  💼 %d deals  💰 %s total  ⚖️  %s weighted\n",
		m.TotalDeals, FormatAmount(m.TotalValue), FormatAmount(m.WeightedValue)))
	out.WriteString(fmt.Sprintf("  🏆 %d won  ✖ %d lost  ⏳ %d open  win rate %.0f%%\n\n",
		m.WonCount, m.LostCount, m.OpenCount, m.WinRate*100))

	if len(stats.TopDeals) > 0 {
		out.WriteString("TOP OPEN DEALS\n")
		for _, d := range stats.TopDeals {
			out.WriteString(fmt.Sprintf("  %3d  %-14s %s\n", d.Score, d.DealNumber, d.Name))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleDeals) > 0 || stats.Slipped > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.StaleDeals) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d deals - stale (no activity in 14+ days)\n", len(stats.StaleDeals)))
		}
		if stats.Slipped > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d deals - past expected close date\n", stats.Slipped))
		}
	}

	return out.String()
}

func renderStages(out *strings.Builder, stages []engine.StageSummary) {
	maxCount := 1
	for _, s := range stages {
		maxCount = max(maxCount, s.Count)
	}

	for _, s := range stages {
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-20s %s  %2d (%s)\n", s.Name, bar, s.Count, FormatAmount(s.Value)))
	}
}

// FormatAmount abbreviates to K or M above a thousand.
func FormatAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	}
	return fmt.Sprintf("$%.0f", v)
}
