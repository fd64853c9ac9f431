// ABOUTME: Pipeline KPIs derived from a filtered, unpaginated deal set
// ABOUTME: Also computes per-stage breakdowns and transition flow counts
package engine

import (
	"github.com/harperreed/dealflow/models"
)

type Metrics struct {
	TotalDeals    int     `json:"total_deals"`
	TotalValue    float64 `json:"total_value"`
	WeightedValue float64 `json:"weighted_value"`
	AvgDealSize   float64 `json:"avg_deal_size"`
	WonCount      int     `json:"won_count"`
	WonValue      float64 `json:"won_value"`
	LostCount     int     `json:"lost_count"`
	OpenCount     int     `json:"open_count"`
	// WinRate is won / (won + lost) as a fraction, 0 when nothing has closed.
	WinRate float64 `json:"win_rate"`
}

func Summarize(status StatusResolver, deals []models.Deal) Metrics {
	var m Metrics
	for _, d := range deals {
		m.TotalDeals++
		m.TotalValue += d.Amount
		m.WeightedValue += d.WeightedValue()

		switch DealStatus(status, d) {
		case models.StatusWon:
			m.WonCount++
			m.WonValue += d.Amount
		case models.StatusLost:
			m.LostCount++
		default:
			m.OpenCount++
		}
	}

	if m.TotalDeals > 0 {
		m.AvgDealSize = m.TotalValue / float64(m.TotalDeals)
	}
	if closed := m.WonCount + m.LostCount; closed > 0 {
		m.WinRate = float64(m.WonCount) / float64(closed)
	}
	return m
}

// Metrics summarizes every deal matching the filter.
func (e *Engine) Metrics(f models.Filter) Metrics {
	return Summarize(e.catalog, FilterDeals(e.catalog, e.store.All(), f))
}

type StageSummary struct {
	StageID       string  `json:"stage_id"`
	Name          string  `json:"name"`
	Color         string  `json:"color"`
	Count         int     `json:"count"`
	Value         float64 `json:"value"`
	WeightedValue float64 `json:"weighted_value"`
	// AvgHours is the mean time spent in the stage over completed stays.
	AvgHours float64 `json:"avg_hours"`
}

// StageBreakdown groups the pipeline's deals by stage in stage order.
// Deals from other pipelines are ignored.
func StageBreakdown(p models.Pipeline, deals []models.Deal) []StageSummary {
	out := make([]StageSummary, len(p.Stages))
	idx := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		out[i] = StageSummary{StageID: s.ID, Name: s.Name, Color: s.Color}
		idx[s.ID] = i
	}

	hours := make([]float64, len(p.Stages))
	stays := make([]int, len(p.Stages))

	for _, d := range deals {
		if d.PipelineID != p.ID {
			continue
		}
		if i, ok := idx[d.StageID]; ok {
			out[i].Count++
			out[i].Value += d.Amount
			out[i].WeightedValue += d.WeightedValue()
		}
		for _, h := range d.StageHistory {
			if h.DurationHours == nil {
				continue
			}
			if i, ok := idx[h.ToStageID]; ok {
				hours[i] += *h.DurationHours
				stays[i]++
			}
		}
	}

	for i := range out {
		if stays[i] > 0 {
			out[i].AvgHours = hours[i] / float64(stays[i])
		}
	}
	return out
}

// Flow is one observed stage-to-stage move.
type Flow struct {
	From string
	To   string
}

// TransitionCounts tallies moves recorded in the deals' stage histories.
func TransitionCounts(deals []models.Deal) map[Flow]int {
	counts := make(map[Flow]int)
	for _, d := range deals {
		for _, h := range d.StageHistory {
			if h.FromStageID == "" {
				continue
			}
			counts[Flow{From: h.FromStageID, To: h.ToStageID}]++
		}
	}
	return counts
}
