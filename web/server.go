// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only pipeline dashboard, deal list and flow graph over HTTP
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/viz"
)

//go:embed templates/*
var templatesFS embed.FS

const defaultPageSize = 25

type Server struct {
	engine    *engine.Engine
	templates *template.Template
	metrics   http.Handler
	logger    *zap.Logger
}

// NewServer parses the templates. metrics, when non-nil, is mounted at /metrics.
func NewServer(e *engine.Engine, logger *zap.Logger, metrics http.Handler) (*Server, error) {
	funcMap := template.FuncMap{
		"money":   viz.FormatAmount,
		"percent": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
		"day": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format(time.DateOnly)
		},
		"status": func(d models.Deal) string { return engine.DealStatus(e.Catalog(), d) },
		"add":    func(a, b int) int { return a + b },
		"sub":    func(a, b int) int { return a - b },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{engine: e, templates: tmpl, metrics: metrics, logger: logger}, nil
}

// Handler routes every page of the UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /deals", s.handleDeals)
	mux.HandleFunc("GET /graphs", s.handleGraphs)

	// Partials for HTMX
	mux.HandleFunc("GET /partials/deal-detail", s.handleDealDetail)
	mux.HandleFunc("GET /partials/graph", s.handleGraphPartial)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) pipeline(r *http.Request) (models.Pipeline, error) {
	cat := s.engine.Catalog()
	if id := r.URL.Query().Get("pipeline"); id != "" {
		return cat.Pipeline(id)
	}
	return cat.DefaultPipeline()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipeline(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	stats := viz.GenerateDashboardStats(s.engine.Catalog(), p, s.engine.Deals(), time.Now())

	data := map[string]any{
		"Stats":           stats,
		"Pipelines":       s.engine.Catalog().Pipelines(),
		"Title":           p.Name,
		"ContentTemplate": "dashboard-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		res engine.QueryResult
		err error
	)
	if view := q.Get("view"); view != "" {
		res, err = s.engine.QueryView(r.Context(), view)
	} else {
		opts, perr := queryOptions(q.Get)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		res, err = s.engine.Query(opts)
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	data := map[string]any{
		"Result":          res,
		"Query":           q,
		"Title":           "Deals",
		"ContentTemplate": "deals-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

// queryOptions reads filter, sort and paging from query parameters.
func queryOptions(get func(string) string) (engine.QueryOptions, error) {
	f := models.Filter{
		Search:     get("q"),
		Status:     get("status"),
		OwnerID:    get("owner"),
		PipelineID: get("pipeline"),
		StageID:    get("stage"),
		Priority:   get("priority"),
		Health:     get("health"),
	}
	if tag := get("tag"); tag != "" {
		f.Tags = []string{tag}
	}

	if get("min_amount") != "" || get("max_amount") != "" {
		lo, err := floatParam(get, "min_amount")
		if err != nil {
			return engine.QueryOptions{}, err
		}
		r := &models.AmountRange{Min: lo}
		if get("max_amount") != "" {
			hi, err := floatParam(get, "max_amount")
			if err != nil {
				return engine.QueryOptions{}, err
			}
			r.Max = &hi
		}
		f.AmountRange = r
	}

	page, err := intParam(get, "page", 1)
	if err != nil {
		return engine.QueryOptions{}, err
	}
	size, err := intParam(get, "page_size", defaultPageSize)
	if err != nil {
		return engine.QueryOptions{}, err
	}

	return engine.QueryOptions{
		Filter:        f,
		SortKey:       get("sort"),
		SortDirection: get("dir"),
		Page:          page,
		PageSize:      size,
	}, nil
}

func floatParam(get func(string) string, name string) (float64, error) {
	raw := get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func intParam(get func(string) string, name string, def int) (int, error) {
	raw := get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func (s *Server) handleDealDetail(w http.ResponseWriter, r *http.Request) {
	deal, err := s.engine.Deal(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	data := map[string]any{
		"Deal":  deal,
		"Score": engine.Score(deal, time.Now()),
	}
	s.renderTemplate(w, "partials/deal-detail.html", data)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Pipelines":       s.engine.Catalog().Pipelines(),
		"Title":           "Graphs",
		"ContentTemplate": "graphs-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipeline(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	dot, stats, err := viz.NewGraphGenerator(p, s.engine.Deals()).GenerateFlowGraph(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"DOT":   dot,
		"Stats": stats,
	}
	s.renderTemplate(w, "partials/graph.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownDeal), errors.Is(err, engine.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
