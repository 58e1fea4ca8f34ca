// Package api provides the HTTP server for the library GraphQL API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/libraryapp/library-server/internal/http/response"
	"github.com/libraryapp/library-server/internal/service"
)

// Config holds the server's HTTP-level settings.
type Config struct {
	EnablePlayground bool
}

// Server holds dependencies for HTTP handlers. All GraphQL traffic,
// including subscriptions over websocket, is served on /graphql.
type Server struct {
	authService *service.AuthService
	schema      *graphql.Schema
	router      *chi.Mux
	logger      *slog.Logger
	config      Config
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(schema *graphql.Schema, authService *service.AuthService, config Config, logger *slog.Logger) *Server {
	s := &Server{
		authService: authService,
		schema:      schema,
		router:      chi.NewRouter(),
		logger:      logger,
		config:      config,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	}))
	s.router.Use(requestMetrics)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// graphqlws upgrades websocket requests running the graphql-ws
	// protocol and hands everything else to the relay handler.
	graphqlHandler := graphqlws.NewHandlerFunc(s.schema, &relay.Handler{Schema: s.schema})
	s.router.Handle("/graphql", s.authContext(graphqlHandler))

	if s.config.EnablePlayground {
		s.router.Get("/", playground.Handler("Library GraphQL", "/graphql"))
	}
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
