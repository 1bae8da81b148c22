package v1

import (
	"go_gone/api/v1/auth"
	"go_gone/api/v1/middleware"
	"go_gone/api/v1/patterns"
	"go_gone/api/v1/settings"
	"go_gone/internal/gone"
	"go_gone/internal/httpx"
	"go_gone/internal/model"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the admin API needs
type Deps struct {
	Users  auth.UserFinder
	Tokens interface {
		auth.TokenGenerator
		middleware.TokenParser
	}
	Store  *gone.Store
	Engine *gone.Engine
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.Users, deps.Tokens))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(deps.Tokens))
		{
			protected.GET("/me", meHandler)

			// Reads are open to every role, writes need admin
			admin := middleware.RequireRole(model.RoleAdmin)

			patternsHandler := patterns.NewHandler(deps.Store, deps.Engine)
			patternsGroup := protected.Group("/patterns")
			{
				patternsGroup.GET("", patternsHandler.List)
				patternsGroup.GET("/check", patternsHandler.Check)
				patternsGroup.GET("/:id", patternsHandler.Get)
				patternsGroup.POST("/create", admin, patternsHandler.Create)
				patternsGroup.POST("/delete", admin, patternsHandler.Delete)
				patternsGroup.POST("/bulk-delete", admin, patternsHandler.BulkDelete)
				patternsGroup.POST("/import", admin, patternsHandler.Import)
			}

			settingsHandler := settings.NewHandler(deps.Store)
			settingsGroup := protected.Group("/settings")
			{
				settingsGroup.GET("", settingsHandler.Get)
				settingsGroup.POST("/update", admin, settingsHandler.Update)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"uid":      c.GetInt(middleware.KeyUID),
		"username": c.GetString(middleware.KeyUsername),
		"role":     c.GetString(middleware.KeyRole),
	})
}
