// ABOUTME: Tests for the Prometheus recorder
// ABOUTME: Drives an engine and reads the resulting counters
package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsEngineActivity(t *testing.T) {
	rec := NewRecorder()
	e := engine.New(catalog.Default(), store.New(), engine.WithRecorder(rec))
	ctx := context.Background()

	d, err := e.Create(ctx, engine.NewDeal{Name: "Acme", OwnerID: "u1"})
	require.NoError(t, err)
	_, err = e.Transition(ctx, engine.TransitionRequest{DealID: d.ID, ToStageID: "qualified", ChangedBy: "u1"})
	require.NoError(t, err)
	_, err = e.Apply(ctx, engine.ActionArchive, []string{d.ID, "ghost"}, engine.BulkParams{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.transitions.WithLabelValues("sales-pipeline", "qualified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.bulkItems.WithLabelValues("archive", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.bulkItems.WithLabelValues("archive", "failed")))
	assert.Equal(t, 3, testutil.CollectAndCount(rec.durations))
}

func TestHandlerServesMetrics(t *testing.T) {
	rec := NewRecorder()
	rec.PersistFailed("save")

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dealflow_persistence_errors_total{op="save"} 1`)
}
