// Package api provides the HTTP trigger and status surface of the
// ingestion service. Ingestion runs are scheduled asynchronously: trigger
// endpoints acknowledge immediately and the pipeline runs in the
// background, pacing itself through the rate governor.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/sports-ingest/internal/governor"
	"github.com/sports-ingest/internal/ingest"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/storage"
)

// IngestRunner runs the ingestion pipeline, fully or one stage at a time.
type IngestRunner interface {
	Run(ctx context.Context, opts ingest.RunOptions) (*models.RunSummary, error)
	RunStage(ctx context.Context, stage string, opts ingest.RunOptions) (*models.RunSummary, error)
}

// UsageReader reads daily usage counters.
type UsageReader interface {
	GetUsage(ctx context.Context, provider, date string) *models.UsageCounter
}

// GovernorStatus exposes the governor's counters for the status endpoint.
type GovernorStatus interface {
	Snapshot() governor.Counters
}

// RunReader reads persisted run summaries.
type RunReader interface {
	Latest(ctx context.Context) (*models.RunSummary, error)
}

// Server is the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	runner     IngestRunner
	usage      UsageReader
	governor   GovernorStatus
	runs       RunReader
	cache      *storage.CacheService
	provider   string
	config     *ServerConfig
	logger     *logging.Logger

	mu     sync.Mutex
	active *activeRun
}

// activeRun tracks the run currently executing in the background.
type activeRun struct {
	RunID     string    `json:"runId"`
	JobType   string    `json:"jobType"`
	StartedAt time.Time `json:"startedAt"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond int
	Burst             int
	DailyLimit        int
}

// NewServer creates an API server. cache may be nil to disable usage
// response caching; runs may be nil when no run history store is wired.
func NewServer(
	config *ServerConfig,
	runner IngestRunner,
	usage UsageReader,
	gov GovernorStatus,
	runs RunReader,
	cache *storage.CacheService,
	providerName string,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Server{
		router:   mux.NewRouter(),
		runner:   runner,
		usage:    usage,
		governor: gov,
		runs:     runs,
		cache:    cache,
		provider: providerName,
		config:   config,
		logger:   logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Middleware order matters: logging wraps everything, recovery before
	// anything that can panic, rate limiting after CORS preflights.
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Ingestion triggers. All of them acknowledge immediately.
	api.HandleFunc("/ingest/run", s.handleIngestRun).Methods("POST")
	api.HandleFunc("/ingest/leagues", s.handleIngestStage(ingest.StageLeagues)).Methods("POST")
	api.HandleFunc("/ingest/teams", s.handleIngestStage(ingest.StageTeams)).Methods("POST")
	api.HandleFunc("/ingest/players", s.handleIngestStage(ingest.StagePlayers)).Methods("POST")
	api.HandleFunc("/ingest/team-stats", s.handleIngestStage(ingest.StageTeamStats)).Methods("POST")
	api.HandleFunc("/ingest/player-stats", s.handleIngestStage(ingest.StagePlayerStats)).Methods("POST")
	api.HandleFunc("/ingest/top-stats", s.handleIngestStage(ingest.StageTopStats)).Methods("POST")

	api.HandleFunc("/ingest/status", s.handleIngestStatus).Methods("GET")
	api.HandleFunc("/usage", s.handleGetUsage).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sports-ingest",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{"addr": s.httpServer.Addr}).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
