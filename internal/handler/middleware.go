package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger logs every request except health checks and metrics scrapes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" || path == "/metrics" || strings.HasPrefix(path, "/swagger") {
			return
		}
		status := c.Writer.Status()
		if ce := logger.Check(levelFromStatus(status), "http request"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("elapsed", time.Since(start)),
			)
		}
	}
}

func levelFromStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// ClientHints asks browsers to send their preferred color scheme.
func ClientHints() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
		h.Set("Critical-CH", "Sec-CH-Prefers-Color-Scheme")
		h.Add("Vary", "Sec-CH-Prefers-Color-Scheme")
		c.Next()
	}
}

// RegisterMetrics serves g on /metrics.
func RegisterMetrics(r *gin.Engine, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
