package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims"
	actorKey  = "actorId"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the
// provided verifier. The verified "sub" claim becomes the request's actor id.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		if status, msg := authenticate(c, ver); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates when an Authorization header is sent
// and lets anonymous requests through (e.g. reading history of public prompts).
func OptionalAuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if status, msg := authenticate(c, ver); status != 0 {
				c.AbortWithStatusJSON(status, gin.H{"error": msg})
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, ver Verifier) (int, string) {
	if ver == nil {
		return http.StatusUnauthorized, "authentication not configured"
	}
	// Expect 'Bearer <token>'
	var token string
	if n, _ := fmt.Sscanf(c.GetHeader("Authorization"), "Bearer %s", &token); n != 1 {
		return http.StatusUnauthorized, "invalid Authorization header"
	}
	idToken, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		return http.StatusUnauthorized, "invalid token"
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return http.StatusUnauthorized, "failed to parse claims"
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return http.StatusUnauthorized, "token has no subject"
	}
	c.Set(claimsKey, claims)
	c.Set(actorKey, sub)
	return 0, ""
}

// ActorID returns the verified actor of the request, or "" when anonymous.
func ActorID(c *gin.Context) string {
	return c.GetString(actorKey)
}

// Claims returns the verified token claims, or nil when anonymous.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}
