// Package http provides the gin server for the account and content APIs and the metrics server.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	contentHTTP "github.com/allisson/gatekeeper/internal/content/http"
	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/policy"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the public API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	checks []ReadinessCheck
}

// newHTTPServer returns the listener settings shared by the API and metrics servers.
func newHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// NewServer creates a server bound to host:port. Routes are installed by SetupRouter.
func NewServer(host string, port int, logger *slog.Logger, checks ...ReadinessCheck) *Server {
	return &Server{
		logger: logger,
		checks: checks,
		server: newHTTPServer(host, port, nil),
	}
}

// RouterConfig carries the dependencies of the API routes.
type RouterConfig struct {
	AccountHandler   *identityHTTP.AccountHandler
	ContentHandler   *contentHTTP.ContentHandler // Optional; mounts /v1/authors and /v1/posts
	Registry         *policy.Registry
	GateObserver     policy.Observer      // Optional
	MeterProvider    metric.MeterProvider // Optional; enables HTTP metrics
	MetricsNamespace string
	CORSEnabled      bool
	CORSAllowOrigins string
}

// route is one gated endpoint: its method, path, required capability kinds and handler.
type route struct {
	method   string
	path     string
	required []policy.Kind
	handler  policy.Handler
}

func (s *Server) routes(h *identityHTTP.AccountHandler) []route {
	admin := policy.AttestationKind[policy.Admin]()
	staff := policy.AttestationKind[policy.Staff]()

	return []route{
		{http.MethodGet, "/", []policy.Kind{policy.KindRequest}, s.rootHandler},
		{http.MethodPost, "/v1/register", []policy.Kind{policy.KindRequest, policy.KindValidation}, h.RegisterHandler},
		{http.MethodPost, "/v1/login", []policy.Kind{policy.KindRequest, policy.KindValidation}, h.LoginHandler},
		{http.MethodPost, "/v1/logout", []policy.Kind{policy.KindRequest, policy.KindIdentity}, h.LogoutHandler},
		{http.MethodDelete, "/v1/account", []policy.Kind{policy.KindRequest, policy.KindIdentity}, h.DeregisterHandler},
		{http.MethodGet, "/v1/me", []policy.Kind{policy.KindRequest, policy.KindIdentity}, h.MeHandler},
		{
			http.MethodGet, "/v1/admin/users",
			[]policy.Kind{policy.KindRequest, policy.KindIdentity, admin},
			h.ListUsersHandler,
		},
		{
			http.MethodGet, "/v1/staff/ping",
			[]policy.Kind{policy.KindRequest, policy.KindIdentity, staff},
			h.StaffPingHandler,
		},
	}
}

// contentRoutes gates the author and post resources: reads are public, writes need a
// session and validated input, deletes need an admin.
func contentRoutes(h *contentHTTP.ContentHandler) []route {
	read := []policy.Kind{policy.KindRequest}
	write := []policy.Kind{policy.KindRequest, policy.KindIdentity, policy.KindValidation}
	remove := []policy.Kind{policy.KindRequest, policy.KindIdentity, policy.AttestationKind[policy.Admin]()}

	return []route{
		{http.MethodGet, "/v1/authors", read, h.ListAuthorsHandler},
		{http.MethodGet, "/v1/authors/:id", read, h.GetAuthorHandler},
		{http.MethodPost, "/v1/authors", write, h.CreateAuthorHandler},
		{http.MethodPut, "/v1/authors/:id", write, h.UpdateAuthorHandler},
		{http.MethodDelete, "/v1/authors/:id", remove, h.DeleteAuthorHandler},
		{http.MethodGet, "/v1/posts", read, h.ListPostsHandler},
		{http.MethodGet, "/v1/posts/:id", read, h.GetPostHandler},
		{http.MethodPost, "/v1/posts", write, h.CreatePostHandler},
		{http.MethodPut, "/v1/posts/:id", write, h.UpdatePostHandler},
		{http.MethodDelete, "/v1/posts/:id", remove, h.DeletePostHandler},
	}
}

// SetupRouter builds every route chain and installs the middleware stack. A chain that
// does not validate against the registry fails here, before the server accepts traffic.
func (s *Server) SetupRouter(cfg RouterConfig) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cors := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); cors != nil {
		router.Use(cors)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	routes := s.routes(cfg.AccountHandler)
	if cfg.ContentHandler != nil {
		routes = append(routes, contentRoutes(cfg.ContentHandler)...)
	}

	for _, r := range routes {
		chain, err := policy.NewChain(cfg.Registry, r.required...)
		if err != nil {
			return fmt.Errorf("invalid policy chain for %s %s: %w", r.method, r.path, err)
		}

		opts := []policy.GateOption{policy.WithRoute(r.path)}
		if cfg.GateObserver != nil {
			opts = append(opts, policy.WithObserver(cfg.GateObserver))
		}
		router.Handle(r.method, r.path, policy.Gate(chain, r.handler, s.logger, opts...))
	}

	s.router = router
	return nil
}

// Handler returns the installed router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) rootHandler(c *gin.Context, _ *policy.Context) {
	c.String(http.StatusOK, "Gatekeeper!")
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler runs every check; any failure answers 503 with per-component status.
func (s *Server) readinessHandler(c *gin.Context) {
	components := make(map[string]string, len(s.checks))
	ready := len(s.checks) > 0
	if !ready {
		components["identity_store"] = "error"
	}

	for _, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := check.Check(ctx)
		cancel()

		if err != nil {
			s.logger.Warn("readiness check failed",
				slog.String("component", check.Name),
				slog.Any("error", err))
			components[check.Name] = "error"
			ready = false
			continue
		}
		components[check.Name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
