package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

type updateStatusRequest struct {
	Status *string `json:"status"`
}

// handleCreateTask adds a new task, optionally as a subtask of an ACTIVE parent.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing JSON data"})
		return
	}

	task, err := s.service.Create(c.Request.Context(), req.Description, req.ParentID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

// handleUpdateStatus applies a status transition, cascading to descendants
// for ABANDONED and CLEAR.
func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing status in JSON data"})
		return
	}

	result, err := s.service.Transition(c.Request.Context(), id, *req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Task %d and relevant children status updated to %s.", id, result.Status),
	})
}

// handleListAll returns every task, nested, including cleared ones.
func (s *Server) handleListAll(c *gin.Context) {
	tree, err := s.service.ListAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// handleListNonCleared returns the nested tree of tasks not in CLEAR status.
func (s *Server) handleListNonCleared(c *gin.Context) {
	tree, err := s.service.ListNonCleared(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// handleListActiveOnly returns the nested tree of ACTIVE tasks.
func (s *Server) handleListActiveOnly(c *gin.Context) {
	tree, err := s.service.ListActiveOnly(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// handleSchema returns the tasks table definition and column metadata.
func (s *Server) handleSchema(c *gin.Context) {
	schema, err := s.service.Schema(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}
