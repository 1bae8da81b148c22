package site

import (
	"time"

	"go_gone/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// AccessLog tags every request with an id, stores a request logger for
// handlers and logs one line per response
func AccessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		entry := logger.WithField("request_id", id)
		c.Set(httpx.LoggerKey, entry)

		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"size":    c.Writer.Size(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.WithFields(fields).Error("Request completed")
		case status >= 400:
			entry.WithFields(fields).Info("Request completed")
		default:
			entry.WithFields(fields).Debug("Request completed")
		}
	}
}
