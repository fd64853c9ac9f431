// ABOUTME: Tests for the in-memory deal store
// ABOUTME: Covers snapshot isolation, ordering, numbering and per-deal locking
package store

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newDeal(id, number string) models.Deal {
	entered := fixedNow.Add(-48 * time.Hour)
	return models.Deal{
		ID:         id,
		DealNumber: number,
		Name:       "Deal " + id,
		OwnerID:    "u1",
		PipelineID: "sales-pipeline",
		StageID:    "lead",
		Amount:     500,
		Currency:   models.CurrencyUSD,
		DealType:   models.DealTypeNewBusiness,
		Priority:   models.PriorityMedium,
		Health:     models.HealthHealthy,
		StageHistory: []models.StageHistoryEntry{
			{ID: "h-" + id, ToStageID: "lead", EnteredAt: entered, ChangedBy: "u1"},
		},
		CreatedAt: entered,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := New(WithClock(func() time.Time { return fixedNow }))

	d := newDeal("a", "DEAL-2024-001")
	d.Tags = []string{"z", "a", "z"}
	stored, err := s.Upsert(d)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, stored.UpdatedAt)
	assert.Equal(t, []string{"a", "z"}, stored.Tags)

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = s.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertRejectsInvalid(t *testing.T) {
	s := New()

	d := newDeal("a", "DEAL-2024-001")
	d.Amount = -10
	_, err := s.Upsert(d)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, 0, s.Len())

	_, err = s.Upsert(models.Deal{})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	_, err := s.Upsert(newDeal("a", "DEAL-2024-001"))
	require.NoError(t, err)

	snap := s.All()
	snap[0].Name = "mutated"
	snap[0].StageHistory[0].ChangedBy = "intruder"

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Deal a", got.Name)
	assert.Equal(t, "u1", got.StageHistory[0].ChangedBy)
}

func TestInsertionOrderAndRemove(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Upsert(newDeal(id, ""))
		require.NoError(t, err)
	}
	// updating an existing deal keeps its position
	_, err := s.Upsert(newDeal("c", ""))
	require.NoError(t, err)

	ids := func() []string {
		var out []string
		for _, d := range s.All() {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids())

	require.NoError(t, s.Remove("a"))
	assert.Equal(t, []string{"c", "b"}, ids())
	assert.True(t, errors.Is(s.Remove("a"), ErrNotFound))
}

func TestReplace(t *testing.T) {
	s := New()
	_, err := s.Upsert(newDeal("old", ""))
	require.NoError(t, err)

	loaded := []models.Deal{newDeal("x", ""), newDeal("y", "")}
	loaded[0].UpdatedAt = fixedNow.Add(-time.Hour)
	require.NoError(t, s.Replace(loaded))
	assert.Equal(t, 2, s.Len())

	x, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(-time.Hour), x.UpdatedAt)

	err = s.Replace([]models.Deal{newDeal("x", ""), newDeal("x", "")})
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, 2, s.Len())
}

func TestNextDealNumber(t *testing.T) {
	s := New(WithClock(func() time.Time { return fixedNow }))
	assert.Equal(t, "DEAL-2024-001", s.NextDealNumber())

	for i, num := range []string{"DEAL-2024-004", "DEAL-2023-090", "DEAL-2024-002"} {
		_, err := s.Upsert(newDeal(fmt.Sprint(i), num))
		require.NoError(t, err)
	}
	assert.Equal(t, "DEAL-2024-005", s.NextDealNumber())
}

func TestLockSerializesPerDeal(t *testing.T) {
	s := New()
	var inside, peak int32

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			unlock := s.Lock("same")
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), peak)
	assert.Equal(t, 0, s.locks.size())
}

func TestLockDifferentDealsDoNotBlock(t *testing.T) {
	s := New()
	unlockA := s.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := s.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}
