// ABOUTME: Query, metrics, export and saved view MCP tool handlers
// ABOUTME: Translates tool inputs into engine filters and query options
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	engine *engine.Engine
	deals  *DealHandlers
}

func NewQueryHandlers(e *engine.Engine, deals *DealHandlers) *QueryHandlers {
	return &QueryHandlers{engine: e, deals: deals}
}

// FilterInput is shared by every tool that narrows the deal set.
type FilterInput struct {
	Search      string   `json:"search,omitempty" jsonschema:"Case-insensitive text matched against name, number, description and tags"`
	Status      string   `json:"status,omitempty" jsonschema:"open, won or lost"`
	OwnerID     string   `json:"owner_id,omitempty" jsonschema:"Only deals owned by this user"`
	PipelineID  string   `json:"pipeline_id,omitempty" jsonschema:"Only deals in this pipeline"`
	StageID     string   `json:"stage_id,omitempty" jsonschema:"Only deals in this stage"`
	DealType    string   `json:"deal_type,omitempty" jsonschema:"Only deals of this type"`
	Priority    string   `json:"priority,omitempty" jsonschema:"Only deals with this priority"`
	Health      string   `json:"health,omitempty" jsonschema:"Only deals with this health"`
	MinAmount   *float64 `json:"min_amount,omitempty" jsonschema:"Minimum amount, inclusive"`
	MaxAmount   *float64 `json:"max_amount,omitempty" jsonschema:"Maximum amount, inclusive"`
	CloseAfter  string   `json:"close_after,omitempty" jsonschema:"Expected close on or after this ISO 8601 date"`
	CloseBefore string   `json:"close_before,omitempty" jsonschema:"Expected close on or before this ISO 8601 date"`
	Tags        []string `json:"tags,omitempty" jsonschema:"Deals must carry every one of these tags"`
}

func (in FilterInput) toFilter() (models.Filter, error) {
	f := models.Filter{
		Search:     in.Search,
		Status:     in.Status,
		OwnerID:    in.OwnerID,
		PipelineID: in.PipelineID,
		StageID:    in.StageID,
		DealType:   in.DealType,
		Priority:   in.Priority,
		Health:     in.Health,
		Tags:       in.Tags,
	}
	if in.MinAmount != nil || in.MaxAmount != nil {
		r := &models.AmountRange{}
		if in.MinAmount != nil {
			r.Min = *in.MinAmount
		}
		if in.MaxAmount != nil {
			hi := *in.MaxAmount
			r.Max = &hi
		}
		f.AmountRange = r
	}
	if in.CloseAfter != "" || in.CloseBefore != "" {
		r := &models.DateRange{}
		if t, err := parseDate("close_after", in.CloseAfter); err != nil {
			return models.Filter{}, err
		} else if t != nil {
			r.Start = *t
		}
		if t, err := parseDate("close_before", in.CloseBefore); err != nil {
			return models.Filter{}, err
		} else if t != nil {
			r.End = *t
		}
		f.CloseDateRange = r
	}
	return f, nil
}

type QueryDealsInput struct {
	Filter        FilterInput `json:"filter,omitempty" jsonschema:"Predicates every returned deal must satisfy"`
	View          string      `json:"view,omitempty" jsonschema:"Run a saved view instead of the filter fields"`
	SortKey       string      `json:"sort_key,omitempty" jsonschema:"Sort field, e.g. amount, expected_close_date, updated_at"`
	SortDirection string      `json:"sort_direction,omitempty" jsonschema:"asc or desc"`
	Page          int         `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize      int         `json:"page_size,omitempty" jsonschema:"Deals per page (default: all)"`
}

func (in QueryDealsInput) toOptions() (engine.QueryOptions, error) {
	f, err := in.Filter.toFilter()
	if err != nil {
		return engine.QueryOptions{}, err
	}
	return engine.QueryOptions{
		Filter:        f,
		SortKey:       in.SortKey,
		SortDirection: in.SortDirection,
		Page:          in.Page,
		PageSize:      in.PageSize,
	}, nil
}

type QueryDealsOutput struct {
	Deals              []DealOutput `json:"deals"`
	TotalFilteredCount int          `json:"total_filtered_count"`
	Page               int          `json:"page"`
	PageSize           int          `json:"page_size"`
	TotalPages         int          `json:"total_pages"`
}

func (h *QueryHandlers) QueryDeals(ctx context.Context, request *mcp.CallToolRequest, input QueryDealsInput) (*mcp.CallToolResult, QueryDealsOutput, error) {
	res, err := h.run(ctx, input)
	if err != nil {
		return nil, QueryDealsOutput{}, err
	}

	out := QueryDealsOutput{
		Deals:              make([]DealOutput, 0, len(res.Items)),
		TotalFilteredCount: res.TotalFilteredCount,
		Page:               res.Page,
		PageSize:           res.PageSize,
		TotalPages:         res.TotalPages,
	}
	now := h.deals.now()
	for _, d := range res.Items {
		out.Deals = append(out.Deals, dealToOutput(h.engine.Catalog(), d, now))
	}
	return nil, out, nil
}

// run executes a saved view when one is named, otherwise the inline query.
func (h *QueryHandlers) run(ctx context.Context, input QueryDealsInput) (engine.QueryResult, error) {
	var (
		res engine.QueryResult
		err error
	)
	if input.View != "" {
		res, err = h.engine.QueryView(ctx, input.View)
	} else {
		var opts engine.QueryOptions
		if opts, err = input.toOptions(); err == nil {
			res, err = h.engine.Query(opts)
		}
	}
	if err != nil {
		return engine.QueryResult{}, fmt.Errorf("failed to query deals: %w", err)
	}
	return res, nil
}

type PipelineMetricsInput struct {
	Filter FilterInput `json:"filter,omitempty" jsonschema:"Predicates selecting the deals to summarize"`
}

type PipelineMetricsOutput struct {
	Metrics engine.Metrics        `json:"metrics"`
	Stages  []engine.StageSummary `json:"stages,omitempty"`
}

// PipelineMetrics adds a per-stage breakdown when the filter names a pipeline.
func (h *QueryHandlers) PipelineMetrics(_ context.Context, request *mcp.CallToolRequest, input PipelineMetricsInput) (*mcp.CallToolResult, PipelineMetricsOutput, error) {
	f, err := input.Filter.toFilter()
	if err != nil {
		return nil, PipelineMetricsOutput{}, err
	}

	out := PipelineMetricsOutput{Metrics: h.engine.Metrics(f)}
	if f.PipelineID != "" {
		p, err := h.engine.Catalog().Pipeline(f.PipelineID)
		if err != nil {
			return nil, PipelineMetricsOutput{}, fmt.Errorf("%w: %s", engine.ErrUnknownPipeline, f.PipelineID)
		}
		all, err := h.engine.Query(engine.QueryOptions{Filter: f})
		if err != nil {
			return nil, PipelineMetricsOutput{}, err
		}
		out.Stages = engine.StageBreakdown(p, all.Items)
	}
	return nil, out, nil
}

type ExportDealsOutput struct {
	Columns []string              `json:"columns"`
	Records []engine.ExportRecord `json:"records"`
}

// ExportDeals takes the same input as query_deals and returns spreadsheet-ready rows.
func (h *QueryHandlers) ExportDeals(ctx context.Context, request *mcp.CallToolRequest, input QueryDealsInput) (*mcp.CallToolResult, ExportDealsOutput, error) {
	res, err := h.run(ctx, input)
	if err != nil {
		return nil, ExportDealsOutput{}, err
	}
	return nil, ExportDealsOutput{
		Columns: engine.ExportColumns,
		Records: h.engine.ExportRecords(nil, res.Items),
	}, nil
}

type SaveViewInput struct {
	Name  string          `json:"name" jsonschema:"View name (required)"`
	Query QueryDealsInput `json:"query" jsonschema:"Filter, sort and page settings to store"`
}

type ViewOutput struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

func (h *QueryHandlers) SaveView(ctx context.Context, request *mcp.CallToolRequest, input SaveViewInput) (*mcp.CallToolResult, ViewOutput, error) {
	opts, err := input.Query.toOptions()
	if err != nil {
		return nil, ViewOutput{}, err
	}
	v := models.ViewState{
		Name:          input.Name,
		Filter:        opts.Filter,
		SortKey:       opts.SortKey,
		SortDirection: opts.SortDirection,
		Page:          opts.Page,
		PageSize:      opts.PageSize,
	}
	if err := h.engine.SaveView(ctx, v); err != nil {
		return nil, ViewOutput{}, fmt.Errorf("failed to save view: %w", err)
	}
	return nil, ViewOutput{Name: v.Name, Params: v.Encode()}, nil
}

type ListViewsInput struct{}

type ListViewsOutput struct {
	Views []ViewOutput `json:"views"`
}

func (h *QueryHandlers) ListViews(ctx context.Context, request *mcp.CallToolRequest, _ ListViewsInput) (*mcp.CallToolResult, ListViewsOutput, error) {
	views, err := h.engine.Views(ctx)
	if err != nil {
		return nil, ListViewsOutput{}, err
	}
	out := ListViewsOutput{Views: make([]ViewOutput, 0, len(views))}
	for _, v := range views {
		out.Views = append(out.Views, ViewOutput{Name: v.Name, Params: v.Encode()})
	}
	return nil, out, nil
}
