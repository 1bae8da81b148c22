package patterns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go_gone/internal/gone"
	"go_gone/internal/httpx"
	"go_gone/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Store is the pattern store used by the handler
type Store interface {
	Add(ctx context.Context, pattern string, isRegex bool) (int, error)
	Get(ctx context.Context, id int) (*model.GonePattern, error)
	Delete(ctx context.Context, id int) (bool, error)
	DeleteBulk(ctx context.Context, ids []int) (int64, error)
	ListAll(ctx context.Context) ([]model.GonePattern, error)
	ImportBatch(ctx context.Context, rows []gone.ImportRow) gone.ImportResult
}

// Checker evaluates a path the way the request hook does
type Checker interface {
	IsGone(ctx context.Context, req gone.RequestContext) bool
}

// ListRequest represents list patterns request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Keyword  string `form:"keyword"`
}

// CreateRequest represents create pattern request
type CreateRequest struct {
	Pattern string `json:"pattern" binding:"required"`
	IsRegex bool   `json:"isRegex"`
}

// DeleteRequest represents delete pattern request
type DeleteRequest struct {
	ID int `json:"id" binding:"required,min=1"`
}

// BulkDeleteRequest represents bulk delete request
type BulkDeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// CheckResponse is the verdict for one path
type CheckResponse struct {
	Path string `json:"path"`
	Gone bool   `json:"gone"`
}

// Handler handles patterns API
type Handler struct {
	store   Store
	checker Checker
}

// NewHandler creates a new patterns handler
func NewHandler(store Store, checker Checker) *Handler {
	return &Handler{store: store, checker: checker}
}

// List handles GET /api/v1/patterns
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	rows, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		filtered := rows[:0:0]
		for _, r := range rows {
			if strings.Contains(r.URLPattern, kw) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	total := len(rows)
	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	httpx.OKItems(c, rows[start:end], int64(total), req.Page, req.PageSize)
}

// Get handles GET /api/v1/patterns/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid id"))
		return
	}

	p, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, p)
}

// Create handles POST /api/v1/patterns/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.Add(ctx, req.Pattern, req.IsRegex)
	if err != nil {
		fail(c, err)
		return
	}

	p, err := h.store.Get(ctx, id)
	if err != nil {
		// The row is committed; report what we know.
		httpx.OK(c, gin.H{"id": id})
		return
	}
	httpx.OK(c, p)
}

// Delete handles POST /api/v1/patterns/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	removed, err := h.store.Delete(c.Request.Context(), req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	if !removed {
		httpx.FailErr(c, httpx.ErrNotFound("pattern not found"))
		return
	}
	httpx.OKMsg(c, "pattern deleted", gin.H{"id": req.ID})
}

// BulkDelete handles POST /api/v1/patterns/bulk-delete
func (h *Handler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	n, err := h.store.DeleteBulk(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	httpx.OK(c, gin.H{"deleted": n})
}

// Import handles POST /api/v1/patterns/import (multipart field "file")
func (h *Handler) Import(c *gin.Context) {
	// Hard cap on the whole body; the file itself is checked below.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*gone.MaxCSVBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.FailErr(c, httpx.ErrPayloadTooLarge(fmt.Sprintf("file exceeds %d bytes", gone.MaxCSVBytes)))
			return
		}
		httpx.FailErr(c, httpx.ErrParamMissing("file is required"))
		return
	}
	if fh.Size > gone.MaxCSVBytes {
		httpx.FailErr(c, httpx.ErrPayloadTooLarge(fmt.Sprintf("file exceeds %d bytes", gone.MaxCSVBytes)))
		return
	}

	f, err := fh.Open()
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to open upload", err))
		return
	}
	defer f.Close()

	rows, err := gone.ParseCSV(io.LimitReader(f, gone.MaxCSVBytes))
	if err != nil {
		fail(c, err)
		return
	}

	res := h.store.ImportBatch(c.Request.Context(), rows)
	httpx.Logger(c).WithFields(logrus.Fields{
		"file":    fh.Filename,
		"success": res.SuccessCount,
		"errors":  res.ErrorCount,
	}).Info("Patterns imported")

	if res.SuccessCount == 0 {
		httpx.OKMsg(c, "no patterns imported", res)
		return
	}
	httpx.OKMsg(c, fmt.Sprintf("%d patterns imported", res.SuccessCount), res)
}

// Check handles GET /api/v1/patterns/check?path=
func (h *Handler) Check(c *gin.Context) {
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("path is required"))
		return
	}

	isGone := h.checker.IsGone(c.Request.Context(), gone.RequestContext{Method: http.MethodGet, URI: path})
	httpx.OK(c, CheckResponse{Path: path, Gone: isGone})
}

// fail maps store errors to API errors
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gone.ErrValidation):
		httpx.FailErr(c, httpx.ErrPatternInvalid(err.Error(), nil))
	case errors.Is(err, gone.ErrDuplicate):
		httpx.FailErr(c, httpx.ErrAlreadyExists("pattern already exists"))
	case errors.Is(err, gone.ErrNotFound):
		httpx.FailErr(c, httpx.ErrNotFound("pattern not found"))
	default:
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
	}
}
