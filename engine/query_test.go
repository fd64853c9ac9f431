// ABOUTME: Tests for deal filtering, stable sorting and pagination
// ABOUTME: Checks page composition and filter predicates against fixed deals
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryDeal(id, name, stage string, amount float64) models.Deal {
	return models.Deal{
		ID:         id,
		DealNumber: "DEAL-2024-" + id,
		Name:       name,
		OwnerID:    "u1",
		PipelineID: "sales-pipeline",
		StageID:    stage,
		Amount:     amount,
		Currency:   models.CurrencyUSD,
		DealType:   models.DealTypeNewBusiness,
		Priority:   models.PriorityMedium,
		Health:     models.HealthHealthy,
	}
}

func sampleDeals() []models.Deal {
	closeSoon := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	closeLater := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	a := queryDeal("001", "Acme rollout", "lead", 5000)
	a.Tags = []string{"hot"}
	a.ExpectedCloseDate = &closeSoon

	b := queryDeal("002", "beta expansion", "closed-won", 20000)
	b.OwnerID = "u2"
	b.Notes = "Signed by ACME subsidiary"

	c := queryDeal("003", "Cobalt renewal", "closed-lost", 8000)
	c.DealType = models.DealTypeRenewal
	c.ExpectedCloseDate = &closeLater

	d := queryDeal("004", "delta pilot", "proposal", 5000)
	d.Tags = []string{"pilot", "hot"}
	d.Priority = models.PriorityHigh

	e := queryDeal("005", "Echo migration", "negotiation", 12000)
	e.Description = "Legacy migration"

	return []models.Deal{a, b, c, d, e}
}

func amountPtr(v float64) *float64 { return &v }

func ids(deals []models.Deal) []string {
	out := make([]string, 0, len(deals))
	for _, d := range deals {
		out = append(out, d.ID)
	}
	return out
}

func TestFilterPredicates(t *testing.T) {
	cat := catalog.Default()
	deals := sampleDeals()

	tests := []struct {
		name   string
		filter models.Filter
		want   []string
	}{
		{"empty matches all", models.Filter{}, []string{"001", "002", "003", "004", "005"}},
		{"search across name and notes", models.Filter{Search: "acme"}, []string{"001", "002"}},
		{"search deal number", models.Filter{Search: "2024-004"}, []string{"004"}},
		{"search tags", models.Filter{Search: "PILOT"}, []string{"004"}},
		{"search description", models.Filter{Search: "legacy"}, []string{"005"}},
		{"blank search", models.Filter{Search: "   "}, []string{"001", "002", "003", "004", "005"}},
		{"status open", models.Filter{Status: models.StatusOpen}, []string{"001", "004", "005"}},
		{"status won", models.Filter{Status: models.StatusWon}, []string{"002"}},
		{"status lost", models.Filter{Status: models.StatusLost}, []string{"003"}},
		{"owner", models.Filter{OwnerID: "u2"}, []string{"002"}},
		{"stage", models.Filter{StageID: "proposal"}, []string{"004"}},
		{"deal type", models.Filter{DealType: models.DealTypeRenewal}, []string{"003"}},
		{"priority", models.Filter{Priority: models.PriorityHigh}, []string{"004"}},
		{"amount range", models.Filter{AmountRange: &models.AmountRange{Min: 6000, Max: amountPtr(15000)}}, []string{"003", "005"}},
		{"amount min only", models.Filter{AmountRange: &models.AmountRange{Min: 12000}}, []string{"002", "005"}},
		{"close date range", models.Filter{CloseDateRange: &models.DateRange{
			Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		}}, []string{"001"}},
		{"tags any of", models.Filter{Tags: []string{"pilot", "missing"}}, []string{"004"}},
		{"conjunction", models.Filter{Tags: []string{"hot"}, Priority: models.PriorityMedium}, []string{"001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDeals(cat, deals, tt.filter)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortIsStableAndCaseInsensitive(t *testing.T) {
	cat := catalog.Default()

	res, err := Query(cat, sampleDeals(), QueryOptions{SortKey: SortName, SortDirection: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003", "004", "005"}, ids(res.Items))

	// 001 and 004 tie on amount and keep their input order
	res, err = Query(cat, sampleDeals(), QueryOptions{SortKey: SortAmount, SortDirection: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "004", "003", "005", "002"}, ids(res.Items))

	res, err = Query(cat, sampleDeals(), QueryOptions{SortKey: SortAmount, SortDirection: models.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"002", "005", "003", "001", "004"}, ids(res.Items))

	// missing close dates sort first
	res, err = Query(cat, sampleDeals(), QueryOptions{SortKey: SortExpectedClose})
	require.NoError(t, err)
	assert.Equal(t, []string{"002", "004", "005", "001", "003"}, ids(res.Items))
}

func TestSortByEveryField(t *testing.T) {
	cat := catalog.Default()
	closed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	deals := sampleDeals()
	deals[0].AccountID = "zeta-corp"
	deals[1].AccountID = "Alpha Inc"
	deals[1].ActualCloseDate = &closed
	deals[2].Currency = models.CurrencyEUR
	deals[3].PipelineID = "enterprise-pipeline"
	deals[4].DealType = models.DealTypeUpsell

	tests := []struct {
		key  string
		dir  string
		want []string
	}{
		{SortAccount, models.SortAsc, []string{"003", "004", "005", "002", "001"}},
		{SortActualClose, models.SortDesc, []string{"002", "001", "003", "004", "005"}},
		{SortCurrency, models.SortAsc, []string{"003", "001", "002", "004", "005"}},
		{SortPipeline, models.SortAsc, []string{"004", "001", "002", "003", "005"}},
		{SortDealType, models.SortDesc, []string{"005", "003", "001", "002", "004"}},
		{SortOwner, models.SortDesc, []string{"002", "001", "003", "004", "005"}},
		{SortStage, models.SortAsc, []string{"003", "002", "001", "005", "004"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			res, err := Query(cat, deals, QueryOptions{SortKey: tt.key, SortDirection: tt.dir})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Items))
		})
	}

	assert.Len(t, SortKeys(), 18)
}

func TestAmountRangeBounds(t *testing.T) {
	cat := catalog.Default()
	free := queryDeal("006", "Free trial", "lead", 0)
	deals := append(sampleDeals(), free)

	res, err := Query(cat, deals, QueryOptions{Filter: models.Filter{AmountRange: &models.AmountRange{Max: amountPtr(0)}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"006"}, ids(res.Items))

	res, err = Query(cat, deals, QueryOptions{Filter: models.Filter{AmountRange: &models.AmountRange{Min: 5000, Max: amountPtr(5000)}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "004"}, ids(res.Items))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	deals := sampleDeals()
	_, err := Query(catalog.Default(), deals, QueryOptions{SortKey: SortAmount, SortDirection: models.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003", "004", "005"}, ids(deals))
}

func TestPagination(t *testing.T) {
	cat := catalog.Default()
	deals := sampleDeals()

	res, err := Query(cat, deals, QueryOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"003", "004"}, ids(res.Items))
	assert.Equal(t, 5, res.TotalFilteredCount)
	assert.Equal(t, 3, res.TotalPages)

	res, err = Query(cat, deals, QueryOptions{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 5, res.TotalFilteredCount)

	res, err = Query(cat, deals, QueryOptions{Page: 0, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, []string{"001", "002"}, ids(res.Items))

	res, err = Query(cat, deals, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, 1, res.TotalPages)
}

func TestPagesReconstructFilteredSet(t *testing.T) {
	cat := catalog.Default()
	deals := sampleDeals()
	opts := QueryOptions{
		Filter:        models.Filter{Status: models.StatusOpen},
		SortKey:       SortAmount,
		SortDirection: models.SortDesc,
	}

	full, err := Query(cat, deals, opts)
	require.NoError(t, err)

	for size := 1; size <= 4; size++ {
		var joined []string
		opts.PageSize = size
		for page := 1; ; page++ {
			opts.Page = page
			res, err := Query(cat, deals, opts)
			require.NoError(t, err)
			if len(res.Items) == 0 {
				assert.Equal(t, res.TotalPages+1, page)
				break
			}
			assert.Subset(t, ids(full.Items), ids(res.Items))
			joined = append(joined, ids(res.Items)...)
		}
		assert.Equal(t, ids(full.Items), joined, "page size %d", size)
	}
}

func TestQueryValidation(t *testing.T) {
	cat := catalog.Default()

	_, err := Query(cat, nil, QueryOptions{SortKey: "colour"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = Query(cat, nil, QueryOptions{SortKey: SortName, SortDirection: "sideways"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = Query(cat, nil, QueryOptions{Filter: models.Filter{Status: "closed"}})
	assert.True(t, errors.Is(err, ErrValidation))

	for _, key := range []string{SortActualClose, SortPipeline, SortAccount, SortDealType, SortCurrency} {
		_, err = Query(cat, nil, QueryOptions{SortKey: key})
		assert.NoError(t, err, key)
	}

	_, err = Query(cat, nil, QueryOptions{Filter: models.Filter{AmountRange: &models.AmountRange{Min: 10, Max: amountPtr(5)}}})
	assert.True(t, errors.Is(err, ErrValidation))

	res, err := Query(cat, nil, QueryOptions{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalPages)
	assert.Empty(t, res.Items)
}

func TestUnknownStageCountsAsOpen(t *testing.T) {
	d := queryDeal("x", "Ghost", "retired-stage", 100)
	assert.Equal(t, models.StatusOpen, DealStatus(catalog.Default(), d))
}
