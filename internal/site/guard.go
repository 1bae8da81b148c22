package site

import (
	"context"
	"net/http"

	"go_gone/internal/gone"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RobotsHeader keeps gone and converted pages out of search indexes
const (
	RobotsHeader = "X-Robots-Tag"
	RobotsValue  = "noindex"
)

// Checker decides whether a request targets removed content
type Checker interface {
	IsGone(ctx context.Context, req gone.RequestContext) bool
}

// Settings exposes the 404 to 410 promotion switch
type Settings interface {
	Convert404(ctx context.Context) bool
}

// GuardOptions configures GoneGuard
type GuardOptions struct {
	Checker  Checker
	Settings Settings
	Page     Page
	Logger   *logrus.Entry
}

// GoneGuard answers 410 for gone paths before the site handler runs, and
// promotes 404 responses from the rest of the chain to 410 when enabled.
func GoneGuard(opts GuardOptions) gin.HandlerFunc {
	page := opts.Page
	if len(page.Body) == 0 {
		page = DefaultPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if opts.Checker.IsGone(ctx, gone.RequestContextFrom(c.Request)) {
			logger.WithField("path", c.Request.URL.Path).Debug("Answering 410 for gone path")
			c.Header(RobotsHeader, RobotsValue)
			c.Data(http.StatusGone, page.ContentType, page.Body)
			c.Abort()
			return
		}

		w := &goneWriter{
			ResponseWriter: c.Writer,
			convert: func() bool {
				return opts.Settings != nil && opts.Settings.Convert404(ctx)
			},
		}
		c.Writer = w

		c.Next()

		// Nothing downstream wrote a response; gin would send its own 404.
		if !w.Written() && w.Status() == http.StatusNotFound && w.promote() {
			w.Header().Del("Content-Length")
			c.Data(http.StatusGone, page.ContentType, page.Body)
		}
	}
}

// goneWriter rewrites a pending 404 status to 410 at the moment headers
// are committed
type goneWriter struct {
	gin.ResponseWriter
	convert  func() bool
	decided  bool
	promoted bool
}

// promote reports whether the pending 404 was turned into a 410.
// The setting is read at most once per request.
func (w *goneWriter) promote() bool {
	if w.decided {
		return w.promoted
	}
	w.decided = true
	if w.ResponseWriter.Written() || w.ResponseWriter.Status() != http.StatusNotFound {
		return false
	}
	if !w.convert() {
		return false
	}
	w.promoted = true
	w.Header().Set(RobotsHeader, RobotsValue)
	w.ResponseWriter.WriteHeader(http.StatusGone)
	return true
}

func (w *goneWriter) WriteHeader(code int) {
	if w.promoted {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *goneWriter) WriteHeaderNow() {
	w.promote()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *goneWriter) Write(b []byte) (int, error) {
	w.promote()
	return w.ResponseWriter.Write(b)
}

func (w *goneWriter) WriteString(s string) (int, error) {
	w.promote()
	return w.ResponseWriter.WriteString(s)
}

func (w *goneWriter) Flush() {
	w.promote()
	w.ResponseWriter.Flush()
}
