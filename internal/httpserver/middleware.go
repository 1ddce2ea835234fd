package httpserver

import (
	"strings"

	authsvc "eato/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	sessionTokenKey = "sessionToken"
)

// requestIDMiddleware echoes a caller-supplied UUID request id or mints one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authMiddleware resolves the bearer session token and stores the user on the
// request context for the services to pick up.
func authMiddleware(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			writeError(c, authsvc.ErrInvalidToken)
			c.Abort()
			return
		}
		u, err := auth.LookupByToken(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionTokenKey, token)
		c.Request = c.Request.WithContext(authsvc.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortWithStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    message,
		RequestID:  c.GetString(requestIDKey),
	})
}
