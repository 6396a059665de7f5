// Package devserver is an in-memory implementation of the task backend's
// HTTP API. It backs local development and the gateway's tests.
package devserver

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultBasePath is where the API is mounted.
const DefaultBasePath = "/api"

const (
	defaultAccessTTL  = 5 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
	secretLen         = 32
)

// Options configures a Server. Zero values pick sensible defaults.
type Options struct {
	BasePath   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Secret signs access tokens. A random one is generated when empty.
	Secret []byte
	// AllowOrigins enables CORS with credentials for browser clients.
	AllowOrigins []string
	Logger       *slog.Logger
	// Now replaces the clock, mainly for expiring tokens in tests.
	Now func() time.Time
}

// Server serves the task API from memory.
type Server struct {
	engine *gin.Engine
	data   *memStore
	logger *slog.Logger
	opts   Options

	refreshMu sync.Mutex
	refreshes map[string]refreshEntry
}

// New constructs the server with routes and middleware configured.
func New(opts Options) (*Server, error) {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, secretLen)
		if _, err := rand.Read(opts.Secret); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if len(opts.AllowOrigins) > 0 {
		corsconfig := cors.DefaultConfig()
		corsconfig.AllowOrigins = opts.AllowOrigins
		corsconfig.AllowCredentials = true
		corsconfig.AddAllowHeaders("X-Retry")
		router.Use(cors.New(corsconfig))
	}

	srv := &Server{
		engine:    router,
		data:      newMemStore(),
		logger:    logger,
		opts:      opts,
		refreshes: map[string]refreshEntry{},
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// registerRoutes wires all API handlers together. Paths keep the trailing
// slash the client sends.
func (s *Server) registerRoutes() {
	api := s.engine.Group(s.opts.BasePath)
	{
		api.GET("/healthz/", s.handleHealth)
		api.POST("/register/", s.handleRegister)
		api.POST("/login/", s.handleLogin)
		api.POST("/refresh/", s.handleRefresh)
		api.POST("/logout/", s.handleLogout)

		authed := api.Group("", s.requireAuth())
		{
			authed.GET("/tasks/", s.handleListTasks)
			authed.POST("/tasks/", s.handleCreateTask)
			authed.GET("/tasks/:id/", s.handleGetTask)
			authed.PATCH("/tasks/:id/", s.handleUpdateTask)
			authed.DELETE("/tasks/:id/", s.handleDeleteTask)
			authed.PATCH("/subtask/:id/", s.handleUpdateSubtask)

			authed.GET("/contacts/", s.handleListContacts)
			authed.POST("/contacts/", s.handleCreateContact)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) now() time.Time {
	return s.opts.Now()
}

// requestLogger logs one debug line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}

// parseID converts a path parameter to int with error handling.
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError maps store errors to statuses and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	case errors.Is(err, errConflict):
		status = http.StatusConflict
	}
	s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes payload, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
