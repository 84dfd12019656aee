package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *logbook.Service
	metrics *metrics.Manager
	gather  prometheus.Gatherer
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. gather backs the
// /metrics endpoint and may be nil to leave it out.
func New(svc *logbook.Service, apiKey string, m *metrics.Manager, gather prometheus.Gatherer, log *slog.Logger) *Server {
	s := &Server{
		svc:     svc,
		metrics: m,
		gather:  gather,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(PanicRecovery(s.metrics, s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	if s.gather != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Reads are open (tsnet handles access).
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/preview", s.handlePreview)
		r.Get("/progress", s.handleProgress)
		r.Get("/top", s.handleTop)
		r.Get("/series", s.handleSeries)
		r.Get("/stats", s.handleStats)
		r.Get("/plans", s.handleListPlans)
		r.Get("/export", s.handleExport)
		r.Get("/import-logs", s.handleImportLogs)

		// Mutations need the API key.
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/exercises", s.handleCreateExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)
			r.Post("/sessions", s.handleLogSession)
			r.Put("/sessions/{id}", s.handleEditSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/plans", s.handleCreatePlan)
			r.Delete("/plans/{id}", s.handleDeletePlan)
			r.Post("/import", s.handleImport)
		})
	})
}
