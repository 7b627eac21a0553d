package server

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// mountIndex serves the task manager page from the configured directory.
func (s *Server) mountIndex() {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})
}
