// ABOUTME: Prometheus counters and histograms for deal pipeline operations
// ABOUTME: Implements the engine Recorder and serves /metrics over HTTP
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Recorder holds the metric vectors registered on one registry.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	bulkItems   *prometheus.CounterVec
	persistErrs *prometheus.CounterVec
	durations   *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Name:      "stage_transitions_total",
			Help:      "Stage transitions applied, by pipeline and target stage.",
		}, []string{"pipeline", "to_stage"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Name:      "bulk_items_total",
			Help:      "Bulk mutation items processed, by action and outcome.",
		}, []string{"action", "outcome"}),
		persistErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Name:      "persistence_errors_total",
			Help:      "Repository calls that failed after a local mutation.",
		}, []string{"op"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealflow",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
	r.registry.MustRegister(r.transitions, r.bulkItems, r.persistErrs, r.durations)
	return r
}

func (r *Recorder) TransitionApplied(pipelineID, toStageID string) {
	r.transitions.WithLabelValues(pipelineID, toStageID).Inc()
}

func (r *Recorder) BulkItem(action, outcome string) {
	r.bulkItems.WithLabelValues(action, outcome).Inc()
}

func (r *Recorder) PersistFailed(op string) {
	r.persistErrs.WithLabelValues(op).Inc()
}

func (r *Recorder) ObserveDuration(op string, seconds float64) {
	r.durations.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
