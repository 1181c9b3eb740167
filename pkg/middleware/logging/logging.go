// Package logging emits one structured log line per HTTP request.
package logging

import (
	"strings"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// Config configures request logging.
type Config struct {
	Enabled bool
	// ExcludedPathPrefixes are not logged, e.g. static assets.
	ExcludedPathPrefixes []string
}

// DefaultConfig logs every request.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) router.MiddlewareFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig logs "request completed" at info, or "request failed" at
// error when the handler chain returns an error. Server errors already
// answered by a handler are logged at warn.
func WithConfig(log logger.Logger, cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if !cfg.Enabled || excluded(req.URL.Path, cfg.ExcludedPathPrefixes) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)
			status := c.Response().Status()

			reqLog := log.WithContext(c.Request().Context())
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"query", req.URL.RawQuery,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"remote_addr", req.RemoteAddr,
			}

			switch {
			case err != nil:
				reqLog.Error("request failed", append(fields, "error", err)...)
			case status >= 500:
				reqLog.Warn("request completed", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
			return err
		}
	}
}

func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
