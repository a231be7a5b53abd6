package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/service"
)

// taskPayload is the client-writable surface of a task. "user" and
// "ai_classification" are deliberately not bindable: ownership comes from the
// token, the classification only from the categorize action.
type taskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Category    *uint   `json:"category"`
	DueDate     *string `json:"due_date"`
}

func (p *taskPayload) dueDate(c *gin.Context) (*time.Time, bool) {
	if p.DueDate == nil {
		return nil, true
	}
	t, ok := parseDate(*p.DueDate)
	if !ok {
		badRequest(c, "due_date", "expected a date like 2026-01-31")
		return nil, false
	}
	return t, true
}

func (s *Server) listTasks(c *gin.Context) {
	user := currentUser(c)
	tasks, err := s.tasks.List(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, len(tasks))
	for i := range tasks {
		out[i] = taskJSON(&tasks[i], user.Username)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c *gin.Context) {
	var p taskPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}
	if p.Title == nil {
		badRequest(c, "title", "title is required")
		return
	}
	due, ok := p.dueDate(c)
	if !ok {
		return
	}

	user := currentUser(c)
	task, err := s.tasks.Create(c.Request.Context(), user, service.TaskInput{
		Title:       *p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		CategoryID:  p.Category,
		DueDate:     due,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskJSON(task, user.Username))
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := currentUser(c)
	task, err := s.tasks.Get(c.Request.Context(), user, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskJSON(task, user.Username))
}

// putTask replaces the writable fields; fields absent from the body are reset.
func (s *Server) putTask(c *gin.Context) {
	s.updateTask(c, false)
}

// patchTask applies only the fields present in the body.
func (s *Server) patchTask(c *gin.Context) {
	s.updateTask(c, true)
}

func (s *Server) updateTask(c *gin.Context, partial bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var p taskPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}
	if !partial && p.Title == nil {
		badRequest(c, "title", "title is required")
		return
	}
	due, ok := p.dueDate(c)
	if !ok {
		return
	}

	update := service.TaskUpdate{
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		CategoryID:  p.Category,
		DueDate:     due,
	}
	if !partial {
		update.ClearDescription = p.Description == nil
		update.ClearCategory = p.Category == nil
		update.ClearDueDate = p.DueDate == nil
		if p.Completed == nil {
			completed := false
			update.Completed = &completed
		}
	}

	user := currentUser(c)
	task, err := s.tasks.Update(c.Request.Context(), user, id, update)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskJSON(task, user.Username))
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.tasks.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// categorizeTask runs the AI categorize action: obtain a suggestion, then
// apply it when it matches an existing category.
func (s *Server) categorizeTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := currentUser(c)

	result, err := s.tasks.Categorize(c.Request.Context(), user, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	if result.MatchedCategory == nil {
		// No persisting: the client may decide to create this category.
		c.JSON(http.StatusOK, gin.H{
			"suggested_category": result.Suggestion,
			"matched":            false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": result.MatchedCategory.Name,
		"matched":  true,
		"task":     taskJSON(result.Task, user.Username),
	})
}

// suggestSubtask asks the AI service for the next subtask and persists it.
func (s *Server) suggestSubtask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	subtask, err := s.subtasks.SuggestNext(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, subtaskJSON(subtask))
}
