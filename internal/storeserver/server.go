package storeserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

const maxBodySize = 1 << 20 // 1MB

// Server serves the task store contract over a Backend
type Server struct {
	backend Backend
	router  *gin.Engine
	now     func() time.Time
}

// NewServer creates a server with gin's default logger and recovery
func NewServer(backend Backend) *Server {
	return newServer(backend, gin.Default())
}

func newServer(backend Backend, router *gin.Engine) *Server {
	s := &Server{
		backend: backend,
		router:  router,
		now:     time.Now,
	}

	todos := router.Group("/todos")
	{
		todos.GET("", s.handleList)
		todos.GET("/:id", s.handleGet)
		todos.POST("", s.handleCreate)
		todos.PATCH("/:id", s.handleUpdate)
		todos.DELETE("/:id", s.handleDelete)
	}

	return s
}

// Handler exposes the router for http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

type createRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	Date        time.Time `json:"date"`
}

func (s *Server) handleList(c *gin.Context) {
	filter := remote.FilterFromQuery(c.Request.URL.Query())

	tasks, err := s.backend.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGet(c *gin.Context) {
	id := c.Param("id")

	tasks, err := s.backend.List(c.Request.Context(), remote.Filter{"id": id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(tasks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}

	c.JSON(http.StatusOK, tasks[0])
}

func (s *Server) handleCreate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := task.Task{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Done:        req.Done,
		CreatedAt:   req.Date.UTC(),
	}
	if t.Name == "" || t.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and description are required"})
		return
	}
	if req.Date.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	created, err := s.backend.Create(c.Request.Context(), t)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id := c.Param("id")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var patch task.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	updated, err := s.backend.Update(c.Request.Context(), id, patch)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")

	err := s.backend.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
