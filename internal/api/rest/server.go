package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
)

// Server represents the REST API server
type Server struct {
	server *http.Server
	log    *logger.Logger
}

// NewRouter wires every route and middleware.
func NewRouter(handler *Handler, rec *metrics.Recorder, log *logger.Logger) *mux.Router {
	if log == nil {
		log = logger.Nop()
	}
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log, rec))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", rec.Handler()).Methods(http.MethodGet)

	// Scheduler trigger
	router.HandleFunc("/api/cron/ingest", handler.TriggerIngestion).Methods(http.MethodGet)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/leaders", handler.GetLeaders).Methods(http.MethodGet)
	api.HandleFunc("/awards/weekly", handler.GetWeeklyAwards).Methods(http.MethodGet)
	api.HandleFunc("/awards/monthly", handler.GetMonthlyAwards).Methods(http.MethodGet)
	api.HandleFunc("/awards/official", handler.GetOfficialAwards).Methods(http.MethodGet)
	api.HandleFunc("/stats/leaders", handler.GetStatLeaders).Methods(http.MethodGet)
	api.HandleFunc("/runs", handler.GetRuns).Methods(http.MethodGet)

	return router
}

// NewServer creates a new REST API server
func NewServer(addr string, handler *Handler, rec *metrics.Recorder, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		log: log,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(handler, rec, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
