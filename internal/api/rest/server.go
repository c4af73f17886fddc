package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/api/websocket"
	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/metrics"
	"github.com/fortuna/vesta/internal/service"
)

// Option configures the REST server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) { s.logger = logging.Component(logger, "rest") }
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRecorder receives an event for every player query.
func WithRecorder(rec audit.Recorder) Option {
	return func(s *Server) { s.handler.recorder = rec }
}

// WithMCP mounts the streamable HTTP MCP transport on /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithWebsocket mounts the invocation feed on /ws/invocations.
func WithWebsocket(ws *websocket.Server) Option {
	return func(s *Server) { s.ws = ws }
}

// WithInvocationLog serves stored invocations on /api/v1/invocations.
func WithInvocationLog(log InvocationLog) Option {
	return func(s *Server) { s.handler.invocations = log }
}

// WithHealthCheck adds a dependency probe to /health.
func WithHealthCheck(name string, check func(context.Context) error) Option {
	return func(s *Server) { s.handler.checks[name] = check }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) { s.handler.version = version }
}

// Server represents the REST API server
type Server struct {
	server  *http.Server
	router  *mux.Router
	handler *Handler
	logger  *logrus.Entry
	metrics *metrics.Manager
	mcp     http.Handler
	ws      *websocket.Server
}

// NewServer creates a new REST API server
func NewServer(addr string, queries service.Queries, opts ...Option) *Server {
	s := &Server{
		handler: NewHandler(queries),
		logger:  logging.Component(logging.Discard(), "rest"),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(LoggingMiddleware(s.logger, s.metrics))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", s.handler.HealthCheck).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	if s.mcp != nil {
		router.Handle("/mcp", s.mcp)
	}
	if s.ws != nil {
		router.HandleFunc("/ws/invocations", s.ws.HandleInvocations)
		router.HandleFunc("/ws/health", s.ws.HandleHealth).Methods(http.MethodGet)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Players
	api.HandleFunc("/players/{name}/career", s.handler.GetCareerStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/seasons/{season}", s.handler.GetSeasonStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/advanced", s.handler.GetAdvancedStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/per36", s.handler.GetPer36Stats).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/shooting", s.handler.GetShootingSplits).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/totals", s.handler.GetTotals).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/playoffs", s.handler.GetPlayoffStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/headshot", s.handler.GetHeadshotURL).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/highlights", s.handler.GetCareerHighlights).Methods(http.MethodGet)
	api.HandleFunc("/compare", s.handler.ComparePlayers).Methods(http.MethodGet)

	// Invocation log
	if s.handler.invocations != nil {
		api.HandleFunc("/invocations", s.handler.GetRecentInvocations).Methods(http.MethodGet)
		api.HandleFunc("/invocations/usage", s.handler.GetToolUsage).Methods(http.MethodGet)
	}

	s.router = router
	s.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("REST API listening")
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
