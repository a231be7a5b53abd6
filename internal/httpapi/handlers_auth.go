package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/service"
)

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var p registerPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}

	user, err := s.auth.Register(c.Request.Context(), p.Username, p.Email, p.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userJSON(user))
}

type tokenPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) token(c *gin.Context) {
	var p tokenPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "error", "invalid JSON body")
		return
	}

	token, user, err := s.auth.Login(c.Request.Context(), p.Email, p.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotFound) || errors.Is(err, service.ErrWrongPassword) {
			badRequest(c, "error", err.Error())
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, userJSON(currentUser(c)))
}
