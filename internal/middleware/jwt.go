package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/liveclass/backend/internal/auth"
	"github.com/liveclass/backend/pkg/response"
)

// ContextSubject is the key for the token subject in gin context.
const ContextSubject = "subject"

// JWT returns a middleware that requires a valid bearer token and sets its subject in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}
