package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/model"
)

const userKey = "httpapi.user"

// authRequired validates the bearer token and stores the caller on the
// request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication required"})
			return
		}

		user, err := s.auth.Authenticate(c.Request.Context(), strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	v, _ := c.Get(userKey)
	user, _ := v.(*model.User)
	return user
}
