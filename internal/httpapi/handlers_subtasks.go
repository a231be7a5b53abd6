package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/service"
)

// subtaskPayload is the client-writable surface of a subtask. The task
// reference is required on create and re-checked for ownership on change.
type subtaskPayload struct {
	Task        *uint   `json:"task"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Category    *uint   `json:"category"`
	DueDate     *string `json:"due_date"`
}

func (p *subtaskPayload) dueDate(c *gin.Context) (*time.Time, bool) {
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

func (s *Server) listSubtasks(c *gin.Context) {
	subtasks, err := s.subtasks.List(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, len(subtasks))
	for i := range subtasks {
		out[i] = subtaskJSON(&subtasks[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createSubtask(c *gin.Context) {
	var p subtaskPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}
	if p.Task == nil {
		badRequest(c, "task", "task is required")
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

	subtask, err := s.subtasks.Create(c.Request.Context(), currentUser(c), service.SubtaskInput{
		TaskID:      *p.Task,
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
	c.JSON(http.StatusCreated, subtaskJSON(subtask))
}

func (s *Server) getSubtask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	subtask, err := s.subtasks.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subtaskJSON(subtask))
}

func (s *Server) putSubtask(c *gin.Context) {
	s.updateSubtask(c, false)
}

func (s *Server) patchSubtask(c *gin.Context) {
	s.updateSubtask(c, true)
}

func (s *Server) updateSubtask(c *gin.Context, partial bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var p subtaskPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}
	if !partial {
		if p.Task == nil {
			badRequest(c, "task", "task is required")
			return
		}
		if p.Title == nil {
			badRequest(c, "title", "title is required")
			return
		}
	}
	due, ok := p.dueDate(c)
	if !ok {
		return
	}

	update := service.SubtaskUpdate{
		TaskID:      p.Task,
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

	subtask, err := s.subtasks.Update(c.Request.Context(), currentUser(c), id, update)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subtaskJSON(subtask))
}

func (s *Server) deleteSubtask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.subtasks.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
