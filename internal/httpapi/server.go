package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/service"
)

// Server aggregates the services behind the HTTP surface.
type Server struct {
	auth       *service.AuthService
	categories *service.CategoryService
	tasks      *service.TaskService
	subtasks   *service.SubtaskService
}

func New(auth *service.AuthService, categories *service.CategoryService, tasks *service.TaskService, subtasks *service.SubtaskService) *Server {
	return &Server{auth: auth, categories: categories, tasks: tasks, subtasks: subtasks}
}

// Router builds the gin engine with all routes mounted under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.POST("/register", s.register)
	api.POST("/token", s.token)

	authed := api.Group("", s.authRequired())
	authed.GET("/users/me", s.me)

	authed.GET("/categories", s.listCategories)
	authed.POST("/categories", s.createCategory)
	authed.GET("/categories/:id", s.getCategory)
	authed.PUT("/categories/:id", s.updateCategory)
	authed.DELETE("/categories/:id", s.deleteCategory)

	authed.GET("/tasks", s.listTasks)
	authed.POST("/tasks", s.createTask)
	authed.GET("/tasks/:id", s.getTask)
	authed.PUT("/tasks/:id", s.putTask)
	authed.PATCH("/tasks/:id", s.patchTask)
	authed.DELETE("/tasks/:id", s.deleteTask)
	authed.POST("/tasks/:id/categorize", s.categorizeTask)
	authed.POST("/tasks/:id/suggest_subtask", s.suggestSubtask)

	authed.GET("/subtasks", s.listSubtasks)
	authed.POST("/subtasks", s.createSubtask)
	authed.GET("/subtasks/:id", s.getSubtask)
	authed.PUT("/subtasks/:id", s.putSubtask)
	authed.PATCH("/subtasks/:id", s.patchSubtask)
	authed.DELETE("/subtasks/:id", s.deleteSubtask)

	return r
}

// fail translates service errors into HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{verr.Field: verr.Message})
	case errors.Is(err, service.ErrNoCategories):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNoCategories.Error()})
	case errors.Is(err, service.ErrNoSuggestion):
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrNoSuggestion.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	default:
		log.Printf("httpapi: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{field: message})
}

// idParam parses the :id path segment; responds 404 on garbage so malformed
// ids read the same as missing records.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return 0, false
	}
	return uint(id), true
}
