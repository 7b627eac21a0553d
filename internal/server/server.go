package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tasktree/internal/tasks"
)

// Server provides HTTP handlers for the task tracker backend.
type Server struct {
	engine    *gin.Engine
	service   *tasks.Service
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(service *tasks.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter))

	srv := &Server{
		engine:    router,
		service:   service,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires the API and the index page together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	s.engine.POST("/tasks", s.handleCreateTask)
	s.engine.PUT("/tasks/:id/status", s.handleUpdateStatus)
	s.engine.GET("/tasks", s.handleListAll)
	s.engine.GET("/tasks/active", s.handleListNonCleared)
	s.engine.GET("/tasks/active-only", s.handleListActiveOnly)
	s.engine.GET("/schema", s.handleSchema)

	s.mountIndex()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError maps a service failure to its HTTP status and logs it.
func (s *Server) respondError(c *gin.Context, err error) {
	s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))

	var conflict *tasks.ConflictError
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Reason + ".", "message": conflict.Message})
	case errors.Is(err, tasks.ErrInvalidStatus),
		errors.Is(err, tasks.ErrEmptyDescription),
		errors.Is(err, tasks.ErrDescriptionTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
