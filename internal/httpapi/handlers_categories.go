package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryPayload struct {
	Name string `json:"name"`
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.categories.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, len(categories))
	for i := range categories {
		out[i] = categoryJSON(&categories[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	var p categoryPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}

	category, err := s.categories.Create(c.Request.Context(), p.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryJSON(category))
}

func (s *Server) getCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	category, err := s.categories.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryJSON(category))
}

func (s *Server) updateCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var p categoryPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}

	category, err := s.categories.Update(c.Request.Context(), id, p.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryJSON(category))
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.categories.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
