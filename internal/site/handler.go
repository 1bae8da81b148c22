package site

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go_gone/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewHandler picks the site behind the guard: a reverse proxy, a static
// directory, or nothing
func NewHandler(cfg config.SiteConfig, logger *logrus.Entry) (gin.HandlerFunc, error) {
	switch {
	case cfg.Upstream != "":
		return NewProxy(cfg.Upstream, logger)
	case cfg.Root != "":
		return NewStatic(cfg.Root)
	default:
		// No site: gin answers 404 and GoneGuard may promote it
		return func(c *gin.Context) {}, nil
	}
}

// NewProxy forwards requests to an upstream site. Upstream failures answer 502.
func NewProxy(upstream string, logger *logrus.Entry) (gin.HandlerFunc, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid site upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("site upstream %q must be an absolute URL", upstream)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.WithError(err).WithField("path", r.URL.Path).Error("Upstream request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}, nil
}

// NewStatic serves files from root; missing files answer 404
func NewStatic(root string) (gin.HandlerFunc, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid site root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site root %q is not a directory", root)
	}

	fs := http.FileServer(http.Dir(root))
	return func(c *gin.Context) {
		fs.ServeHTTP(c.Writer, c.Request)
	}, nil
}
