// ABOUTME: Tests for deal creation, detail edits, activities, scoring, export and views
// ABOUTME: Exercises the engine through its public operations
package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, "  Acme  ", 5000)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Acme", d.Name)
	assert.Equal(t, "DEAL-2024-001", d.DealNumber)
	assert.Equal(t, "sales-pipeline", d.PipelineID)
	assert.Equal(t, "lead", d.StageID)
	assert.Equal(t, 10, d.Probability)
	assert.Equal(t, models.CurrencyUSD, d.Currency)
	assert.Equal(t, models.DealTypeNewBusiness, d.DealType)
	assert.Equal(t, models.PriorityMedium, d.Priority)
	assert.Equal(t, models.HealthHealthy, d.Health)
	assert.Equal(t, "u1", d.CreatedBy)
	require.Len(t, d.StageHistory, 1)
	assert.Empty(t, d.StageHistory[0].FromStageID)
	assert.Nil(t, d.StageHistory[0].ExitedAt)

	second := f.create(t, "Beta", 1)
	assert.Equal(t, "DEAL-2024-002", second.DealNumber)
}

func TestCreateInClosedStage(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, "Legacy win", 5000, func(in *NewDeal) { in.StageID = "closed-won" })
	assert.NotNil(t, d.ActualCloseDate)
	assert.Equal(t, 100, d.Probability)
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, NewDeal{OwnerID: "u1"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.Create(ctx, NewDeal{Name: "x", OwnerID: "u1", Amount: -5})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.Create(ctx, NewDeal{Name: "x"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.Create(ctx, NewDeal{Name: "x", OwnerID: "u1", PipelineID: "nope"})
	assert.True(t, errors.Is(err, ErrUnknownPipeline))

	_, err = f.engine.Create(ctx, NewDeal{Name: "x", OwnerID: "u1", StageID: "legal-review"})
	assert.True(t, errors.Is(err, ErrInvalidStage))

	assert.Equal(t, 0, f.store.Len())
}

func TestConcurrentCreateAllocatesUniqueNumbers(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Create(context.Background(), NewDeal{Name: "parallel", OwnerID: "u1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, d := range f.engine.Deals() {
		assert.False(t, seen[d.DealNumber], d.DealNumber)
		seen[d.DealNumber] = true
	}
	assert.Len(t, seen, 25)
}

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, "Acme", 5000)
	ctx := context.Background()

	amount := 7500.0
	health := models.HealthAtRisk
	closeAt := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	tags := []string{"b", "a"}

	updated, err := f.engine.UpdateDetails(ctx, d.ID, DealPatch{
		Amount:            &amount,
		Health:            &health,
		ExpectedCloseDate: &closeAt,
		Tags:              &tags,
		CustomFields:      map[string]string{"region": "emea"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7500.0, updated.Amount)
	assert.Equal(t, models.HealthAtRisk, updated.Health)
	assert.Equal(t, closeAt, *updated.ExpectedCloseDate)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	assert.Equal(t, "emea", updated.CustomFields["region"])
	assert.Equal(t, d.StageHistory, updated.StageHistory)
	assert.True(t, updated.UpdatedAt.After(d.UpdatedAt))

	updated, err = f.engine.UpdateDetails(ctx, d.ID, DealPatch{
		ClearCloseDate: true,
		CustomFields:   map[string]string{"region": ""},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ExpectedCloseDate)
	assert.NotContains(t, updated.CustomFields, "region")

	bad := "GBX"
	_, err = f.engine.UpdateDetails(ctx, d.ID, DealPatch{Currency: &bad})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.UpdateDetails(ctx, "missing", DealPatch{})
	assert.True(t, errors.Is(err, ErrUnknownDeal))
}

func TestLogActivity(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, "Acme", 5000)
	ctx := context.Background()

	updated, err := f.engine.LogActivity(ctx, d.ID, models.Activity{
		Type:      models.ActivityCall,
		Subject:   "Discovery call",
		CreatedBy: "u1",
	})
	require.NoError(t, err)
	require.Len(t, updated.Activities, 1)
	a := updated.Activities[0]
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.ActivityCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)
	require.NotNil(t, updated.LastActivityAt)
	assert.Equal(t, a.CreatedAt, *updated.LastActivityAt)

	_, err = f.engine.LogActivity(ctx, d.ID, models.Activity{Type: "fax", Subject: "x"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.LogActivity(ctx, d.ID, models.Activity{Type: models.ActivityNote})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.LogActivity(ctx, "missing", models.Activity{Type: models.ActivityNote, Subject: "x"})
	assert.True(t, errors.Is(err, ErrUnknownDeal))
}

func TestScore(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-48 * time.Hour)
	past := now.AddDate(0, -1, 0)

	d := queryDeal("s", "Scored", "negotiation", 1000)
	d.Probability = 75
	d.Priority = models.PriorityHigh
	d.LastActivityAt = &recent

	// 37 + 20 + 10 + 15
	assert.Equal(t, 82, Score(d, now))
	assert.Equal(t, Score(d, now), Score(d, now))

	d.ExpectedCloseDate = &past
	assert.Equal(t, 72, Score(d, now))

	d.Health = models.HealthArchived
	assert.Equal(t, 0, Score(d, now))

	floor := queryDeal("f", "Cold", "lead", 0)
	floor.Priority = models.PriorityLow
	floor.Health = models.HealthStalled
	floor.ExpectedCloseDate = &past
	assert.Equal(t, 0, Score(floor, now))
}

type names map[string]string

func (n names) AccountName(id string) string { return n.lookup(id) }
func (n names) ContactName(id string) string { return n.lookup(id) }
func (n names) OwnerName(id string) string   { return n.lookup(id) }

func (n names) lookup(id string) string {
	if v, ok := n[id]; ok {
		return v
	}
	return id
}

func TestExportRecords(t *testing.T) {
	f := newFixture(t)
	closeAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := f.create(t, "Acme", 1234.5, func(in *NewDeal) {
		in.AccountID = "acc1"
		in.ExpectedCloseDate = &closeAt
	})

	records := f.engine.ExportRecords(names{"acc1": "Acme Corp", "u1": "Harper"}, f.engine.Deals())
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, d.DealNumber, r.DealNumber)
	assert.Equal(t, "Acme Corp", r.Account)
	assert.Empty(t, r.Contact)
	assert.Equal(t, "Harper", r.Owner)
	assert.Equal(t, "Sales Pipeline", r.Pipeline)
	assert.Equal(t, "Lead", r.Stage)
	assert.Equal(t, "2024-07-01", r.ExpectedClose)
	assert.Empty(t, r.LastActivity)

	row := r.Row()
	require.Len(t, row, len(ExportColumns))
	assert.Equal(t, "1234.50", row[7])
	assert.Equal(t, "10", row[9])

	plain := f.engine.ExportRecords(nil, f.engine.Deals())
	assert.Equal(t, "u1", plain[0].Owner)
	assert.Equal(t, "acc1", plain[0].Account)
}

type memViews struct {
	views map[string]models.ViewState
}

func (m *memViews) SaveView(ctx context.Context, v models.ViewState) error {
	m.views[v.Name] = v
	return nil
}

func (m *memViews) GetView(ctx context.Context, name string) (models.ViewState, error) {
	v, ok := m.views[name]
	if !ok {
		return models.ViewState{}, ErrViewNotFound
	}
	return v, nil
}

func (m *memViews) ListViews(ctx context.Context) ([]models.ViewState, error) {
	out := make([]models.ViewState, 0, len(m.views))
	for _, v := range m.views {
		out = append(out, v)
	}
	return out, nil
}

func (m *memViews) DeleteView(ctx context.Context, name string) error {
	if _, ok := m.views[name]; !ok {
		return ErrViewNotFound
	}
	delete(m.views, name)
	return nil
}

func TestSavedViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Error(t, f.engine.SaveView(ctx, models.ViewState{Name: "x"}))

	f.engine.views = &memViews{views: make(map[string]models.ViewState)}
	f.create(t, "Small", 100)
	f.create(t, "Large", 90000)

	view := models.ViewState{
		Name:          " big deals ",
		Filter:        models.Filter{AmountRange: &models.AmountRange{Min: 50000}},
		SortKey:       SortAmount,
		SortDirection: models.SortDesc,
	}
	require.NoError(t, f.engine.SaveView(ctx, view))

	res, err := f.engine.QueryView(ctx, "big deals")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Large", res.Items[0].Name)

	err = f.engine.SaveView(ctx, models.ViewState{Name: "bad", SortKey: "colour"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(f.engine.SaveView(ctx, models.ViewState{}), ErrValidation))

	views, err := f.engine.Views(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	require.NoError(t, f.engine.DeleteView(ctx, "big deals"))
	_, err = f.engine.View(ctx, "big deals")
	assert.True(t, errors.Is(err, ErrViewNotFound))
}
