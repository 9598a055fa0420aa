package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/factstore/internal/api/handlers"
	mw "github.com/Harshitk-cp/factstore/internal/api/middleware"
	"github.com/Harshitk-cp/factstore/internal/app"
	"github.com/Harshitk-cp/factstore/internal/buildconfig"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds the router and the request metrics it reports.
type Server struct {
	Router    *chi.Mux
	app       *app.App
	metrics   *mw.MetricsCollector
	startTime time.Time
	done      chan struct{}
}

func NewServer(a *app.App, opts Options, logger *zap.Logger) *Server {
	factHandler := handlers.NewFactHandler(a.Facts)
	graphHandler := handlers.NewGraphHandler(a.Graph)
	maintenanceHandler := handlers.NewMaintenanceHandler(a.Consolidation, a.Forgetting, a.Expirer, a)
	insightHandler := handlers.NewInsightHandler(a.Temporal, a.Changelog, a.Patterns)
	activityHandler := handlers.NewActivityHandler(a.Activity)

	r := chi.NewRouter()
	s := &Server{
		Router:    r,
		app:       a,
		metrics:   mw.NewMetricsCollector(),
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, s.done))
	}

	r.Get("/health", s.healthHandler)
	r.Get("/metrics", s.metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/facts", func(r chi.Router) {
			r.Get("/", factHandler.List)
			r.Post("/", factHandler.Upsert)
			r.Post("/extracted", factHandler.ApplyExtracted)
			r.Get("/search", factHandler.Search)
			r.Post("/access", factHandler.TrackAccess)
			r.Get("/history", factHandler.History)
			r.Get("/ref/{category}/*", factHandler.Get)
			r.Delete("/ref/{category}/*", factHandler.Delete)
		})

		r.Post("/relations", graphHandler.Link)
		r.Delete("/relations", graphHandler.Unlink)
		r.Get("/graph/neighbors", graphHandler.Neighbors)
		r.Get("/graph/walk", graphHandler.Walk)

		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/consolidate", maintenanceHandler.Consolidate)
			r.Post("/forget", maintenanceHandler.Forget)
			r.Post("/expire", maintenanceHandler.Expire)
			r.Post("/reindex", maintenanceHandler.Reindex)
		})

		r.Get("/timeline", insightHandler.Timeline)
		r.Get("/changelog", insightHandler.Changelog)
		r.Get("/patterns", insightHandler.Patterns)

		r.Get("/archive", activityHandler.ListArchive)
		r.Route("/activity", func(r chi.Router) {
			r.Post("/events", activityHandler.RecordEvent)
			r.Post("/sessions", activityHandler.RecordSession)
			r.Post("/projects", activityHandler.UpsertProject)
		})
	})

	return s
}

// Close stops the server's background goroutines.
func (s *Server) Close() {
	close(s.done)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DB.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildconfig.Version()})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(s.startTime)
	indexed, _ := s.app.Index.DocCount()

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   uptime.Round(time.Second).String(),
		"http":           s.metrics.Snapshot(),
		"indexed_facts":  indexed,
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
			"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
			"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
			"num_gc":         memStats.NumGC,
		},
		"go_version": runtime.Version(),
		"dialect":    s.app.DB.Dialect,
	})
}
