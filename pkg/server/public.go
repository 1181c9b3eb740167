package server

import (
	"strings"

	"github.com/nimburion/catalog/pkg/config"
	"github.com/nimburion/catalog/pkg/middleware/compression"
	"github.com/nimburion/catalog/pkg/middleware/cors"
	"github.com/nimburion/catalog/pkg/middleware/logging"
	"github.com/nimburion/catalog/pkg/middleware/metrics"
	"github.com/nimburion/catalog/pkg/middleware/ratelimit"
	"github.com/nimburion/catalog/pkg/middleware/recovery"
	"github.com/nimburion/catalog/pkg/middleware/requestid"
	"github.com/nimburion/catalog/pkg/middleware/requestsize"
	"github.com/nimburion/catalog/pkg/middleware/static"
	"github.com/nimburion/catalog/pkg/middleware/tracing"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// PublicAPIServer wraps Server for application traffic.
type PublicAPIServer struct {
	*Server
	router router.Router
}

// NewPublicAPIServer applies the standard middleware stack to r and wraps it
// in a Server. Routes must be registered on r afterwards so they pick up the
// stack. When cfg.HTTP.StaticDir is set, unmatched paths are served from it.
//
// Middleware order:
// request id, cors, logging, recovery, metrics, tracing (when enabled),
// rate limit (when enabled), request size, compression (when enabled).
func NewPublicAPIServer(cfg *config.Config, r router.Router, log logger.Logger) *PublicAPIServer {
	type middlewareEntry struct {
		name string
		fn   router.MiddlewareFunc
	}
	namedMiddlewares := []middlewareEntry{
		{name: "request_id", fn: requestid.RequestID()},
		{name: "cors", fn: cors.Middleware(corsConfig(cfg.CORS))},
		{name: "logging", fn: logging.WithConfig(log, logging.DefaultConfig())},
		{name: "recovery", fn: recovery.Recovery(log)},
		{name: "metrics", fn: metrics.Metrics()},
	}
	if cfg.Observability.TracingEnabled {
		namedMiddlewares = append(namedMiddlewares, middlewareEntry{name: "tracing", fn: tracing.Tracing(tracing.Config{})})
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewTokenBucketLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		namedMiddlewares = append(namedMiddlewares, middlewareEntry{name: "rate_limit", fn: ratelimit.RateLimit(limiter, nil)})
	}
	namedMiddlewares = append(namedMiddlewares, middlewareEntry{name: "request_size", fn: requestsize.Middleware(cfg.HTTP.MaxRequestSize)})
	if cfg.Compression.Enabled {
		namedMiddlewares = append(namedMiddlewares, middlewareEntry{name: "compression", fn: compression.Middleware(compressionConfig(cfg.Compression))})
	}

	middlewareFuncs := make([]router.MiddlewareFunc, 0, len(namedMiddlewares))
	middlewareNames := make([]string, 0, len(namedMiddlewares))
	for _, entry := range namedMiddlewares {
		middlewareFuncs = append(middlewareFuncs, entry.fn)
		middlewareNames = append(middlewareNames, entry.name)
	}
	log.Debug("active middleware stack", "middlewares", strings.Join(middlewareNames, ", "))
	r.Use(middlewareFuncs...)

	if dir := strings.TrimSpace(cfg.HTTP.StaticDir); dir != "" {
		r.NoRoute(static.ServeRoot(dir))
	}

	serverCfg := Config{
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &PublicAPIServer{
		Server: NewServer(serverCfg, r, log),
		router: r,
	}
}

// Router returns the router for registering API routes.
func (s *PublicAPIServer) Router() router.Router {
	return s.router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	return cors.Config{
		Enabled:          cfg.Enabled,
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		AllowWildcard:    cfg.AllowWildcard,
		MaxAge:           cfg.MaxAge,
	}
}

func compressionConfig(cfg config.CompressionConfig) compression.Config {
	out := compression.DefaultConfig()
	out.Enabled = cfg.Enabled
	out.EnableGzip = cfg.EnableGzip
	out.EnableBrotli = cfg.EnableBrotli
	out.GzipLevel = cfg.GzipLevel
	out.BrotliLevel = cfg.BrotliLevel
	if cfg.MinSize > 0 {
		out.MinSize = cfg.MinSize
	}
	return out
}
