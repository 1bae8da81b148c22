package middleware

import (
	"errors"
	"strings"

	"go_gone/internal/auth"
	"go_gone/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthRequired
const (
	KeyUID      = "uid"
	KeyUsername = "username"
	KeyRole     = "role"
)

// TokenParser validates bearer tokens
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthRequired is a middleware that validates JWT token
func AuthRequired(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		c.Set(KeyUID, claims.UID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)

		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		httpx.FailErr(c, httpx.ErrForbidden("insufficient permissions"))
		c.Abort()
	}
}
