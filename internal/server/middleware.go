package server

import (
	"github.com/gin-gonic/gin"
	"github.com/projectnest/projectnest/internal/identity"
)

// IdentityRequired resolves the caller and rejects anonymous requests.
func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.identity.CurrentUser(c.Request)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), user))
		c.Next()
	}
}
