// ABOUTME: Filter and saved-view state for deal queries
// ABOUTME: Round-trips through JSON and a flat key-value map for view managers
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Deal status values derived from the stage flags.
const (
	StatusOpen = "open"
	StatusWon  = "won"
	StatusLost = "lost"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// AmountRange is inclusive on both ends. A nil Max leaves the range open above.
type AmountRange struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether amount falls inside the range.
func (r AmountRange) Contains(amount float64) bool {
	return amount >= r.Min && (r.Max == nil || amount <= *r.Max)
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Filter is a conjunction of optional predicates. Zero values match everything.
type Filter struct {
	Search         string       `json:"search,omitempty"`
	Status         string       `json:"status,omitempty"`
	OwnerID        string       `json:"owner_id,omitempty"`
	PipelineID     string       `json:"pipeline_id,omitempty"`
	StageID        string       `json:"stage_id,omitempty"`
	DealType       string       `json:"deal_type,omitempty"`
	Priority       string       `json:"priority,omitempty"`
	Health         string       `json:"health,omitempty"`
	AmountRange    *AmountRange `json:"amount_range,omitempty"`
	CloseDateRange *DateRange   `json:"close_date_range,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
}

// IsEmpty reports whether no predicate is set.
func (f Filter) IsEmpty() bool {
	return f.Search == "" && f.Status == "" && f.OwnerID == "" && f.PipelineID == "" &&
		f.StageID == "" && f.DealType == "" && f.Priority == "" && f.Health == "" &&
		f.AmountRange == nil && f.CloseDateRange == nil && len(f.Tags) == 0
}

// ViewState is everything needed to reproduce a deals table view.
type ViewState struct {
	Name          string `json:"name,omitempty"`
	Filter        Filter `json:"filter"`
	SortKey       string `json:"sort_key,omitempty"`
	SortDirection string `json:"sort_direction,omitempty"`
	Page          int    `json:"page,omitempty"`
	PageSize      int    `json:"page_size,omitempty"`
}

// Encode flattens the view into string pairs, omitting unset fields.
func (v ViewState) Encode() map[string]string {
	out := make(map[string]string)
	put := func(k, val string) {
		if val != "" {
			out[k] = val
		}
	}

	put("name", v.Name)
	put("search", v.Filter.Search)
	put("status", v.Filter.Status)
	put("owner", v.Filter.OwnerID)
	put("pipeline", v.Filter.PipelineID)
	put("stage", v.Filter.StageID)
	put("type", v.Filter.DealType)
	put("priority", v.Filter.Priority)
	put("health", v.Filter.Health)
	if r := v.Filter.AmountRange; r != nil {
		out["amount_min"] = strconv.FormatFloat(r.Min, 'f', -1, 64)
		if r.Max != nil {
			out["amount_max"] = strconv.FormatFloat(*r.Max, 'f', -1, 64)
		}
	}
	if r := v.Filter.CloseDateRange; r != nil {
		out["close_start"] = r.Start.UTC().Format(time.RFC3339)
		out["close_end"] = r.End.UTC().Format(time.RFC3339)
	}
	if len(v.Filter.Tags) > 0 {
		out["tags"] = strings.Join(v.Filter.Tags, ",")
	}
	put("sort", v.SortKey)
	put("dir", v.SortDirection)
	if v.Page > 0 {
		out["page"] = strconv.Itoa(v.Page)
	}
	if v.PageSize > 0 {
		out["page_size"] = strconv.Itoa(v.PageSize)
	}
	return out
}

// DecodeViewState is the inverse of ViewState.Encode.
func DecodeViewState(m map[string]string) (ViewState, error) {
	v := ViewState{
		Name:          m["name"],
		SortKey:       m["sort"],
		SortDirection: m["dir"],
		Filter: Filter{
			Search:     m["search"],
			Status:     m["status"],
			OwnerID:    m["owner"],
			PipelineID: m["pipeline"],
			StageID:    m["stage"],
			DealType:   m["type"],
			Priority:   m["priority"],
			Health:     m["health"],
		},
	}

	if m["amount_min"] != "" || m["amount_max"] != "" {
		lo, err := parseFloat(m, "amount_min")
		if err != nil {
			return ViewState{}, err
		}
		r := &AmountRange{Min: lo}
		if m["amount_max"] != "" {
			hi, err := parseFloat(m, "amount_max")
			if err != nil {
				return ViewState{}, err
			}
			r.Max = &hi
		}
		v.Filter.AmountRange = r
	}

	if m["close_start"] != "" || m["close_end"] != "" {
		start, err := time.Parse(time.RFC3339, m["close_start"])
		if err != nil {
			return ViewState{}, fmt.Errorf("invalid close_start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, m["close_end"])
		if err != nil {
			return ViewState{}, fmt.Errorf("invalid close_end: %w", err)
		}
		v.Filter.CloseDateRange = &DateRange{Start: start, End: end}
	}

	if tags := m["tags"]; tags != "" {
		v.Filter.Tags = strings.Split(tags, ",")
	}

	var err error
	if v.Page, err = parseInt(m, "page"); err != nil {
		return ViewState{}, err
	}
	if v.PageSize, err = parseInt(m, "page_size"); err != nil {
		return ViewState{}, err
	}
	return v, nil
}

func parseFloat(m map[string]string, key string) (float64, error) {
	s := m[key]
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseInt(m map[string]string, key string) (int, error) {
	s := m[key]
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
