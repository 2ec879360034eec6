package auth

import (
	"errors"
	"strings"

	"github.com/dhima/audittrail/internal/api/response"
	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Middleware attaches the bearer token's user to the request. Requests
// without an Authorization header pass through anonymously; a present but
// invalid token is rejected with 401. A nil service disables the check.
func Middleware(tokens *TokenService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if tokens == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(header, bearerPrefix) {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		user, err := tokens.ValidateToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			logger.Warn("rejected bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			msg := ErrInvalidToken.Error()
			if errors.Is(err, ErrTokenExpired) {
				msg = ErrTokenExpired.Error()
			}
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}

		audittrail.SetUser(c, user)
		c.Next()
	}
}
