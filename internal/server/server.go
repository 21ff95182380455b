package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
)

// APIPrefix is the path prefix of every API route
const APIPrefix = "/api/v1"

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, recovery, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the lyric service.
// Implementations serve one resource and register all of its method patterns.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method patterns this handler serves, e.g. "GET /api/v1/lyric"
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewRouter builds the API router for repo with logging and recovery middleware
func NewRouter(repo models.Repository, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(NewLyricHandler(repo, logger))
	router.Handler(NewPlaylistHandler(repo, logger))
	return router
}

// Server serves the API for a repository until its context is canceled
type Server struct {
	repo     models.Repository
	logger   *log.Logger
	http     *http.Server
	shutdown time.Duration
}

// New creates a [Server] listening on host:port
func New(repo models.Repository, host string, port int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("server")

	return &Server{
		repo:   repo,
		logger: logger,
		http: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           NewRouter(repo, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdown: 10 * time.Second,
	}
}

// Addr returns the listen address
func (s *Server) Addr() string { return s.http.Addr }

// Run serves requests until ctx is done, then shuts the listener down and stops the repository.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		if stopErr := s.repo.Stop(context.Background()); stopErr != nil && !errors.Is(stopErr, models.ErrStopped) {
			s.logger.Error("Failed to stop repository", "error", stopErr)
		}
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.Run] on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", ln.Addr().String())
		errs <- s.http.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("failed to shut down: %w", err)
		}
	}

	if err := s.repo.Stop(context.Background()); err != nil && !errors.Is(err, models.ErrStopped) {
		s.logger.Error("Failed to stop repository", "error", err)
		if serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}
