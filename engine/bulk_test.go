// ABOUTME: Tests for bulk deal mutations
// ABOUTME: Covers partial failure, deduplication, transport errors and cancellation
package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpdateStagePartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "A", 100)
	b := f.create(t, "B", 200, inPipeline("enterprise-pipeline"))
	c := f.create(t, "C", 300)

	res, err := f.engine.Apply(ctx, ActionUpdateStage, []string{a.ID, b.ID, c.ID}, BulkParams{
		StageID:   "qualified",
		ChangedBy: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, c.ID}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, b.ID, res.Failed[0].ID)
	assert.True(t, errors.Is(res.Failed[0].Err, ErrInvalidStage))
	assert.Empty(t, res.Unsynced)

	for _, id := range []string{a.ID, c.ID} {
		local, err := f.store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "qualified", local.StageID)
		remote, ok := f.repo.saved(id)
		require.True(t, ok)
		assert.Equal(t, "qualified", remote.StageID)
	}

	untouched, err := f.store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "discovery", untouched.StageID)
}

func TestBulkFieldActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "A", 100, func(in *NewDeal) { in.Tags = []string{"old", "keep"} })
	b := f.create(t, "B", 200)
	ids := []string{a.ID, b.ID}

	res, err := f.engine.Apply(ctx, ActionTransfer, ids, BulkParams{OwnerID: "u9"})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 2)

	res, err = f.engine.Apply(ctx, ActionAddTags, ids, BulkParams{Tags: []string{"q3", "keep"}})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 2)

	res, err = f.engine.Apply(ctx, ActionRemoveTags, ids, BulkParams{Tags: []string{"old"}})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 2)

	res, err = f.engine.Apply(ctx, ActionArchive, []string{b.ID}, BulkParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, res.Succeeded)

	gotA, err := f.store.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "u9", gotA.OwnerID)
	assert.Equal(t, []string{"keep", "q3"}, gotA.Tags)
	assert.Equal(t, models.HealthHealthy, gotA.Health)

	gotB, err := f.store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep", "q3"}, gotB.Tags)
	assert.Equal(t, models.HealthArchived, gotB.Health)
}

func TestBulkDelete(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", 100)
	b := f.create(t, "B", 200)

	res, err := f.engine.Apply(context.Background(), ActionDelete, []string{a.ID, "ghost", a.ID}, BulkParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "ghost", res.Failed[0].ID)
	assert.True(t, errors.Is(res.Failed[0], ErrUnknownDeal))

	assert.Equal(t, 1, f.store.Len())
	_, err = f.store.Get(b.ID)
	assert.NoError(t, err)
}

func TestBulkTransportFailureIsUnsynced(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", 100)
	b := f.create(t, "B", 200)
	f.repo.failIDs[b.ID] = true

	res, err := f.engine.Apply(context.Background(), ActionTransfer, []string{a.ID, b.ID}, BulkParams{OwnerID: "u5"})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, res.Succeeded)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Unsynced, 1)
	assert.Equal(t, b.ID, res.Unsynced[0].ID)
	assert.True(t, errors.Is(res.Unsynced[0].Err, ErrTransport))

	local, err := f.store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "u5", local.OwnerID)
}

func TestBulkRejectsBadRequestsUpFront(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", 100)
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, "email", []string{a.ID}, BulkParams{})
	assert.True(t, errors.Is(err, ErrUnknownAction))

	_, err = f.engine.Apply(ctx, ActionTransfer, []string{a.ID}, BulkParams{})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.Apply(ctx, ActionUpdateStage, []string{a.ID}, BulkParams{StageID: "qualified"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.engine.Apply(ctx, ActionAddTags, []string{a.ID}, BulkParams{Tags: []string{""}})
	assert.True(t, errors.Is(err, ErrValidation))

	got, err := f.store.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestBulkProgressAndCancellation(t *testing.T) {
	f := newFixture(t)
	ids := []string{f.create(t, "A", 1).ID, f.create(t, "B", 2).ID, f.create(t, "C", 3).ID}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	res, err := f.engine.Apply(ctx, ActionArchive, ids, BulkParams{
		Progress: func(done, total int) {
			assert.Equal(t, 3, total)
			seen = append(seen, done)
			if done == 1 {
				cancel()
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, ids[:1], res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.True(t, errors.Is(res.Failed[0].Err, context.Canceled))
}
