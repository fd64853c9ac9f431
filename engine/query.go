// ABOUTME: Filtering, stable sorting and pagination over deal snapshots
// ABOUTME: Pure functions; the engine feeds them store snapshots
package engine

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
)

// StatusResolver classifies a deal's stage as open, won or lost.
type StatusResolver interface {
	Status(pipelineID, stageID string) (status string, ok bool)
}

// Sort keys accepted by Query.
const (
	SortName          = "name"
	SortDealNumber    = "deal_number"
	SortAmount        = "amount"
	SortProbability   = "probability"
	SortStage         = "stage_id"
	SortPipeline      = "pipeline_id"
	SortOwner         = "owner_id"
	SortAccount       = "account_id"
	SortPriority      = "priority"
	SortHealth        = "health"
	SortDealType      = "deal_type"
	SortCurrency      = "currency"
	SortExpectedClose = "expected_close_date"
	SortActualClose   = "actual_close_date"
	SortCreated       = "created_at"
	SortUpdated       = "updated_at"
	SortLastActivity  = "last_activity_at"
	SortWeightedValue = "weighted_value"
)

var comparators = map[string]func(a, b models.Deal) int{
	SortName:          byString(func(d models.Deal) string { return d.Name }),
	SortDealNumber:    byString(func(d models.Deal) string { return d.DealNumber }),
	SortStage:         byString(func(d models.Deal) string { return d.StageID }),
	SortPipeline:      byString(func(d models.Deal) string { return d.PipelineID }),
	SortOwner:         byString(func(d models.Deal) string { return d.OwnerID }),
	SortAccount:       byString(func(d models.Deal) string { return d.AccountID }),
	SortDealType:      byString(func(d models.Deal) string { return d.DealType }),
	SortCurrency:      byString(func(d models.Deal) string { return d.Currency }),
	SortPriority:      byString(func(d models.Deal) string { return d.Priority }),
	SortHealth:        byString(func(d models.Deal) string { return d.Health }),
	SortAmount:        func(a, b models.Deal) int { return cmp.Compare(a.Amount, b.Amount) },
	SortProbability:   func(a, b models.Deal) int { return cmp.Compare(a.Probability, b.Probability) },
	SortWeightedValue: func(a, b models.Deal) int { return cmp.Compare(a.WeightedValue(), b.WeightedValue()) },
	SortExpectedClose: byTime(func(d models.Deal) *time.Time { return d.ExpectedCloseDate }),
	SortActualClose:   byTime(func(d models.Deal) *time.Time { return d.ActualCloseDate }),
	SortLastActivity:  byTime(func(d models.Deal) *time.Time { return d.LastActivityAt }),
	SortCreated:       func(a, b models.Deal) int { return a.CreatedAt.Compare(b.CreatedAt) },
	SortUpdated:       func(a, b models.Deal) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func byString(field func(models.Deal) string) func(a, b models.Deal) int {
	return func(a, b models.Deal) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

// byTime orders missing dates before any set date.
func byTime(field func(models.Deal) *time.Time) func(a, b models.Deal) int {
	return func(a, b models.Deal) int {
		ta, tb := field(a), field(b)
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return -1
		case tb == nil:
			return 1
		}
		return ta.Compare(*tb)
	}
}

// SortKeys lists every accepted sort key.
func SortKeys() []string {
	keys := make([]string, 0, len(comparators))
	for k := range comparators {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type QueryOptions struct {
	Filter        models.Filter
	SortKey       string
	SortDirection string
	Page          int
	PageSize      int
}

// QueryOptionsFromView converts a saved view into query options.
func QueryOptionsFromView(v models.ViewState) QueryOptions {
	return QueryOptions{
		Filter:        v.Filter,
		SortKey:       v.SortKey,
		SortDirection: v.SortDirection,
		Page:          v.Page,
		PageSize:      v.PageSize,
	}
}

type QueryResult struct {
	Items []models.Deal `json:"items"`
	// TotalFilteredCount counts every match, ignoring pagination.
	TotalFilteredCount int `json:"total_filtered_count"`
	Page               int `json:"page"`
	PageSize           int `json:"page_size"`
	TotalPages         int `json:"total_pages"`
}

func validateQuery(opts QueryOptions) error {
	if opts.SortKey != "" {
		if _, ok := comparators[opts.SortKey]; !ok {
			return validationf("unknown sort key %q", opts.SortKey)
		}
	}
	switch opts.SortDirection {
	case "", models.SortAsc, models.SortDesc:
	default:
		return validationf("unknown sort direction %q", opts.SortDirection)
	}
	switch opts.Filter.Status {
	case "", models.StatusOpen, models.StatusWon, models.StatusLost:
	default:
		return validationf("unknown status %q", opts.Filter.Status)
	}
	if r := opts.Filter.AmountRange; r != nil && r.Max != nil && r.Min > *r.Max {
		return validationf("amount range min %.2f exceeds max %.2f", r.Min, *r.Max)
	}
	return nil
}

// Query filters, sorts and paginates deals. Page below 1 is treated as 1 and
// a non-positive PageSize returns every match on a single page.
func Query(status StatusResolver, deals []models.Deal, opts QueryOptions) (QueryResult, error) {
	if err := validateQuery(opts); err != nil {
		return QueryResult{}, err
	}

	filtered := FilterDeals(status, deals, opts.Filter)
	SortDeals(filtered, opts.SortKey, opts.SortDirection)

	total := len(filtered)
	res := QueryResult{TotalFilteredCount: total, Page: max(opts.Page, 1)}

	if opts.PageSize <= 0 {
		res.PageSize = total
		if total > 0 {
			res.TotalPages = 1
		}
		if res.Page == 1 {
			res.Items = filtered
		} else {
			res.Items = []models.Deal{}
		}
		return res, nil
	}

	res.PageSize = opts.PageSize
	res.TotalPages = (total + opts.PageSize - 1) / opts.PageSize
	start := (res.Page - 1) * opts.PageSize
	if start >= total {
		res.Items = []models.Deal{}
		return res, nil
	}
	end := min(start+opts.PageSize, total)
	res.Items = filtered[start:end:end]
	return res, nil
}

// Query runs Query over a snapshot of the store.
func (e *Engine) Query(opts QueryOptions) (QueryResult, error) {
	return Query(e.catalog, e.store.All(), opts)
}

// FilterDeals keeps deals matching every set predicate, preserving order.
func FilterDeals(status StatusResolver, deals []models.Deal, f models.Filter) []models.Deal {
	out := make([]models.Deal, 0, len(deals))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, d := range deals {
		if matches(status, d, f, search) {
			out = append(out, d)
		}
	}
	return out
}

func matches(status StatusResolver, d models.Deal, f models.Filter, search string) bool {
	if search != "" && !strings.Contains(searchText(d), search) {
		return false
	}
	if f.Status != "" && DealStatus(status, d) != f.Status {
		return false
	}
	if !equalOrUnset(f.OwnerID, d.OwnerID) ||
		!equalOrUnset(f.PipelineID, d.PipelineID) ||
		!equalOrUnset(f.StageID, d.StageID) ||
		!equalOrUnset(f.DealType, d.DealType) ||
		!equalOrUnset(f.Priority, d.Priority) ||
		!equalOrUnset(f.Health, d.Health) {
		return false
	}
	if r := f.AmountRange; r != nil && !r.Contains(d.Amount) {
		return false
	}
	if r := f.CloseDateRange; r != nil {
		c := d.ExpectedCloseDate
		if c == nil {
			return false
		}
		if (!r.Start.IsZero() && c.Before(r.Start)) || (!r.End.IsZero() && c.After(r.End)) {
			return false
		}
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, d.HasTag) {
		return false
	}
	return true
}

func equalOrUnset(want, got string) bool {
	return want == "" || want == got
}

func searchText(d models.Deal) string {
	parts := []string{d.Name, d.DealNumber, d.Description, d.Notes}
	parts = append(parts, d.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// DealStatus resolves open, won or lost through the pipeline's stage flags.
// A stage the catalog does not know is counted as open.
func DealStatus(status StatusResolver, d models.Deal) string {
	if s, ok := status.Status(d.PipelineID, d.StageID); ok {
		return s
	}
	return models.StatusOpen
}

// SortDeals stable-sorts in place. An empty key leaves the order alone.
func SortDeals(deals []models.Deal, key, direction string) {
	compare, ok := comparators[key]
	if !ok {
		return
	}
	if direction == models.SortDesc {
		slices.SortStableFunc(deals, func(a, b models.Deal) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(deals, compare)
}
