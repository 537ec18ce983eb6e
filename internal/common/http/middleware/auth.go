package middleware

import (
	"context"
	"strconv"
	"strings"

	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/contextkey"
	"coderelay/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// TokenAuthenticator validates a session token and returns the user id it is bound to.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// AuthMiddleware requires a valid bearer token on the route.
func AuthMiddleware(authenticator TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil {
			response.AbortWithErrorMessage(c, pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("auth service unavailable"))
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortWithErrorMessage(c, pkgerrors.UnauthorizedError("Missing bearer token"))
			return
		}
		userID, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithErrorMessage(c, err)
			return
		}

		id := strconv.FormatInt(userID, 10)
		c.Set(userIDContextKey, userID)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
