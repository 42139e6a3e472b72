package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/videohubd/internal/api/models"
	"github.com/smazurov/videohubd/internal/events"
	"github.com/smazurov/videohubd/internal/gateway"
	"github.com/smazurov/videohubd/internal/logging"
	"github.com/smazurov/videohubd/internal/streaming"
	"github.com/smazurov/videohubd/internal/version"
	"github.com/smazurov/videohubd/internal/videohub"
)

// Router is the part of the gateway registry the API drives.
type Router interface {
	Snapshot() gateway.Snapshot
	Peers() []gateway.PeerInfo
	PeerCount() int
	ApplyRoutes(origin string, routes []videohub.Route, verbatim string) ([]videohub.Route, error)
	UpdateInputLabel(index int, label string) (bool, error)
}

// Server is the HTTP observation and control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	router     Router
	hub        *streaming.Hub
	eventBus   *events.Bus
	logger     *slog.Logger
}

// Options configures the API server.
type Options struct {
	Router            Router
	Hub               *streaming.Hub // nil when the relay is not running
	EventBus          *events.Bus
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// NewServer creates the API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("videohubd API", version.String())
	config.Info.Description = "Routing state and control for the Videohub gateway"
	// Empty servers list makes OpenAPI use relative paths
	config.Servers = []*huma.Server{}

	server := &Server{
		api:      humago.New(mux, config),
		mux:      mux,
		router:   opts.Router,
		hub:      opts.Hub,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}
	server.api.UseMiddleware(NewCORSMiddleware(corsConfig))
	server.api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes(server.api)

	return server
}

// Start serves the API on addr. It blocks until Stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints on api.
func (s *Server) registerRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
				Peers:   s.router.PeerCount(),
				Build:   version.Get(),
			},
		}, nil
	})

	s.registerRoutingRoutes(api)
	s.registerRelayRoutes(api)
	s.registerSSERoutes(api)
	s.registerLoggingRoutes(api)
}
