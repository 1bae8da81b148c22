package settings

import (
	"context"

	"go_gone/internal/httpx"

	"github.com/gin-gonic/gin"
)

// Store reads and writes site-wide gone settings
type Store interface {
	Convert404(ctx context.Context) bool
	SetConvert404(ctx context.Context, enabled bool) error
}

// Settings is the settings payload
type Settings struct {
	Convert404To410 bool `json:"convert404To410"`
}

// UpdateRequest represents update settings request
type UpdateRequest struct {
	Convert404To410 *bool `json:"convert404To410" binding:"required"`
}

// Handler handles settings API
type Handler struct {
	store Store
}

// NewHandler creates a new settings handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get handles GET /api/v1/settings
func (h *Handler) Get(c *gin.Context) {
	httpx.OK(c, Settings{Convert404To410: h.store.Convert404(c.Request.Context())})
}

// Update handles POST /api/v1/settings/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	if err := h.store.SetConvert404(c.Request.Context(), *req.Convert404To410); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to save settings", err))
		return
	}
	httpx.OKMsg(c, "settings saved", Settings{Convert404To410: *req.Convert404To410})
}
