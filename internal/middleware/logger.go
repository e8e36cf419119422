package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/log"
)

// RequestLogger logs every request through logger.
func RequestLogger(logger log.Logger) gin.HandlerFunc {
	logger = logger.WithValues(log.Kv{"svc": "http"})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := logger.WithValues(log.Kv{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Errorf("request failed: %s", c.Errors.String())
		case status >= 400:
			l.Warningf("request rejected")
		default:
			l.Debugf("request served")
		}
	}
}

// CORS allows the browser dashboard to call the API from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
