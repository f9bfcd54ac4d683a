package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

type ctxKey int

const ctxCredential ctxKey = iota

// WithCredential stores a raw credential in context.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, ctxCredential, credential)
}

// Credential returns the raw credential from context.
func Credential(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxCredential).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("credential not in context")
}

// RequireCredential extracts the bearer credential into request context.
// It does not verify the token or decide roles; every call operation is
// authorized against its case by the access resolver.
func RequireCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		c.Request = c.Request.WithContext(WithCredential(c.Request.Context(), tok))
		c.Next()
	}
}
