package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spektr-org/sockenstudie/engine"
	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/schema"
	"github.com/spektr-org/sockenstudie/votes"
)

// ============================================================================
// SERVER — JSON surface over the aggregation engine
// ============================================================================
// Holds one parsed dataset behind an RWMutex. Every request aggregates
// afresh; a reload swaps the whole dataset (last write wins). A failed
// initial load leaves an empty dataset, so every endpoint still answers
// with a complete, empty Snapshot.
// ============================================================================

// Loader fetches and parses the survey export.
type Loader func(ctx context.Context) (*helpers.Dataset, error)

// FileLoader loads path with helpers.LoadFile.
func FileLoader(path string, opts helpers.FileOptions) Loader {
	return func(ctx context.Context) (*helpers.Dataset, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return helpers.LoadFile(path, opts)
	}
}

// Options configures New.
type Options struct {
	Schema         *schema.Config       // required
	Loader         Loader               // nil serves an empty dataset
	Votes          votes.Register       // nil disables the vote endpoints
	PodiumSize     int                  // default 3
	AllowedOrigins []string             // CORS and websocket origins; "*" allows all
	Logger         *slog.Logger         // nil discards
	Registry       *prometheus.Registry // nil creates a private registry
}

// Server serves snapshots, charts and votes for one survey.
type Server struct {
	schema     *schema.Config
	engine     *engine.Engine
	loader     Loader
	votes      votes.Register
	podiumSize int
	origins    []string
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *Metrics
	upgrader   websocket.Upgrader
	router     chi.Router

	mu      sync.RWMutex
	current *dataset
	loadErr error
}

// dataset is one loaded export plus what is derived from it once per load.
type dataset struct {
	data     *helpers.Dataset
	groups   []string
	images   []engine.ImageEntry
	subjects map[string]bool
	missing  []schema.MissingColumn
	loadedAt time.Time
}

// New wires the router. It does not load data; call Reload.
func New(opts Options) (*Server, error) {
	if opts.Schema == nil {
		return nil, errors.New("server: schema is required")
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.PodiumSize <= 0 {
		opts.PodiumSize = 3
	}

	logger := opts.Logger.With(slog.String("component", "server"))
	s := &Server{
		schema:     opts.Schema,
		engine:     opts.Schema.Engine(engine.WithLogger(opts.Logger.With(slog.String("component", "engine")))),
		loader:     opts.Loader,
		votes:      opts.Votes,
		podiumSize: opts.PodiumSize,
		origins:    opts.AllowedOrigins,
		logger:     logger,
		registry:   opts.Registry,
		metrics:    NewMetrics(opts.Registry),
		current:    newDataset(nil, opts.Schema),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(StructuredLogger(s.logger))
	r.Use(Recoverer(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", VoterHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, errMethodNotAllowed)
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/schema", s.handleSchema)
		r.Get("/groups", s.handleGroups)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/charts", s.handleCharts)
		r.Get("/summary", s.handleSummary)
		r.Get("/export", s.handleExport)
		r.Post("/reload", s.handleReload)

		if s.votes != nil {
			r.Route("/votes", func(r chi.Router) {
				r.Get("/", s.handleVotes)
				r.Get("/podium", s.handlePodium)
				r.Get("/stream", s.handleVoteStream)
				r.Post("/{subject}", s.handleCastVote)
				r.Delete("/{subject}", s.handleRetractVote)
			})
		}
	})
	return r
}

// Reload fetches the export and swaps it in. On failure the previous
// dataset stays in place and the error is reported by /health.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	data, err := s.loader(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "survey load failed", "error", err)
		return err
	}

	next := newDataset(data, s.schema)
	s.mu.Lock()
	s.current = next
	s.loadErr = nil
	s.mu.Unlock()

	s.metrics.RowsLoaded.Set(float64(len(data.Rows)))
	s.logger.InfoContext(ctx, "survey loaded",
		"rows", len(data.Rows),
		"skipped", data.Skipped,
		"groups", len(next.groups),
	)
	for _, m := range next.missing {
		s.logger.WarnContext(ctx, "configured column missing from export",
			"column", m.Column,
			"section", m.Section,
		)
	}
	return nil
}

func newDataset(data *helpers.Dataset, cfg *schema.Config) *dataset {
	if data == nil {
		data = &helpers.Dataset{}
	}
	view := data.View()
	survey := cfg.Survey()
	snap := engine.Aggregate(view, survey)

	ds := &dataset{
		data:     data,
		groups:   engine.GroupTags(view, survey.Tags.Group),
		subjects: make(map[string]bool),
		images:   make([]engine.ImageEntry, 0),
		loadedAt: time.Now(),
	}
	if len(data.Headers) > 0 {
		ds.missing = schema.CheckColumns(*cfg, data.Headers)
	}
	for _, sec := range survey.SectionsOf(engine.KindImages) {
		for _, img := range snap.Images[sec.ID] {
			ds.images = append(ds.images, img)
			ds.subjects[votes.SubjectID(img.FileRef)] = true
		}
	}
	return ds
}

func (s *Server) state() (*dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.loadErr
}

// snapshot aggregates the current dataset for one group tag.
func (s *Server) snapshot(tag string) engine.Snapshot {
	ds, _ := s.state()
	timer := prometheus.NewTimer(s.metrics.AggregationDuration)
	snap := s.engine.FilterAndAggregate(ds.data.View(), tag)
	timer.ObserveDuration()
	s.metrics.Aggregations.WithLabelValues(s.groupLabel(ds, tag)).Inc()
	return snap
}

// groupLabel bounds metric cardinality to the groups present in the data.
func (s *Server) groupLabel(ds *dataset, tag string) string {
	if s.engine.Survey().IsAllTag(tag) {
		return engine.DefaultAllTag
	}
	lower := strings.ToLower(tag)
	for _, g := range ds.groups {
		if g == lower {
			return g
		}
	}
	return "other"
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
