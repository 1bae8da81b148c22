package auth

import (
	"context"
	"errors"
	"time"

	"go_gone/internal/auth"
	"go_gone/internal/httpx"
	"go_gone/internal/model"
	"go_gone/internal/users"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserFinder looks operators up by name
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// TokenGenerator signs tokens for authenticated operators
type TokenGenerator interface {
	Generate(uid int, username, role string) (string, time.Time, error)
}

// LoginHandler handles operator login
func LoginHandler(finder UserFinder, tokens TokenGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
			return
		}

		user, err := finder.FindByUsername(c.Request.Context(), req.Username)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				// Same answer as a wrong password
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
				return
			}
			httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
			return
		}

		if user.Status == model.UserStatusInactive {
			httpx.FailErr(c, httpx.ErrForbidden("user is inactive"))
			return
		}

		if !auth.VerifyPassword(user.PasswordHash, req.Password) {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
			return
		}

		token, expireAt, err := tokens.Generate(user.ID, user.Username, user.Role)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
			return
		}

		httpx.Logger(c).WithField("username", user.Username).Info("Operator logged in")
		httpx.OK(c, LoginResponse{
			Token:    token,
			ExpireAt: expireAt.Format(time.RFC3339),
			User: UserInfo{
				ID:       user.ID,
				Username: user.Username,
				Role:     user.Role,
			},
		})
	}
}
