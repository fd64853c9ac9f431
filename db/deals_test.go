// ABOUTME: Tests for the SQL deal and view repository
// ABOUTME: Round-trips engine-created deals through a temp SQLite database
package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "deals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db, SQLite)
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := engine.New(catalog.Default(), store.New(), engine.WithRepository(repo))

	closeAt := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	d, err := e.Create(ctx, engine.NewDeal{
		Name:              "Acme rollout",
		OwnerID:           "u1",
		AccountID:         "acc-1",
		Amount:            42000,
		ExpectedCloseDate: &closeAt,
		Tags:              []string{"hot", "q3"},
		CustomFields:      map[string]string{"region": "emea"},
	})
	require.NoError(t, err)

	_, err = e.Transition(ctx, engine.TransitionRequest{DealID: d.ID, ToStageID: "proposal", ChangedBy: "u1", Reason: "quote sent"})
	require.NoError(t, err)
	_, err = e.LogActivity(ctx, d.ID, models.Activity{Type: models.ActivityMeeting, Subject: "Demo", CreatedBy: "u1"})
	require.NoError(t, err)

	want, err := e.Deal(d.ID)
	require.NoError(t, err)

	loaded, err := repo.LoadDeals(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	if diff := cmp.Diff(want, loaded[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	got, err := repo.GetDeal(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "proposal", got.StageID)
	assert.Len(t, got.StageHistory, 2)

	_, err = repo.GetDeal(ctx, "missing")
	assert.True(t, errors.Is(err, engine.ErrUnknownDeal))
}

func TestRepositoryReloadIntoFreshEngine(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := engine.New(catalog.Default(), store.New(), engine.WithRepository(repo))
	for _, name := range []string{"A", "B", "C"} {
		_, err := first.Create(ctx, engine.NewDeal{Name: name, OwnerID: "u1", Amount: 100})
		require.NoError(t, err)
	}
	res, err := first.Apply(ctx, engine.ActionDelete, []string{first.Deals()[1].ID}, engine.BulkParams{})
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)

	second := engine.New(catalog.Default(), store.New(), engine.WithRepository(repo))
	require.NoError(t, second.Load(ctx))

	var names []string
	for _, d := range second.Deals() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestDeleteMissingDealIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	assert.NoError(t, repo.DeleteDeal(context.Background(), "never-saved"))
}

func TestSavedViews(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	view := models.ViewState{
		Name:          "won this quarter",
		Filter:        models.Filter{Status: models.StatusWon, Tags: []string{"q3"}},
		SortKey:       "amount",
		SortDirection: models.SortDesc,
		PageSize:      20,
	}
	require.NoError(t, repo.SaveView(ctx, view))

	got, err := repo.GetView(ctx, view.Name)
	require.NoError(t, err)
	assert.Equal(t, view, got)

	view.PageSize = 50
	require.NoError(t, repo.SaveView(ctx, view))
	require.NoError(t, repo.SaveView(ctx, models.ViewState{Name: "all"}))

	views, err := repo.ListViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "all", views[0].Name)
	assert.Equal(t, 50, views[1].PageSize)

	require.NoError(t, repo.DeleteView(ctx, "all"))
	assert.True(t, errors.Is(repo.DeleteView(ctx, "all"), engine.ErrViewNotFound))

	_, err = repo.GetView(ctx, "all")
	assert.True(t, errors.Is(err, engine.ErrViewNotFound))
}
