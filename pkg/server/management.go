package server

import (
	"net/http"
	"time"

	"github.com/nimburion/catalog/pkg/config"
	"github.com/nimburion/catalog/pkg/health"
	"github.com/nimburion/catalog/pkg/middleware/logging"
	"github.com/nimburion/catalog/pkg/middleware/recovery"
	"github.com/nimburion/catalog/pkg/middleware/requestid"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/observability/metrics"
	"github.com/nimburion/catalog/pkg/server/router"
)

// ManagementServer serves health, readiness and metrics on a separate port
// from the public API.
type ManagementServer struct {
	*Server
	router          router.Router
	healthRegistry  *health.Registry
	metricsRegistry *metrics.Registry
}

// NewManagementServer registers the management endpoints on r:
// - /health: liveness, always 200
// - /ready: readiness, 503 when a registered check is unhealthy
// - /metrics: Prometheus exposition
//
// Management traffic is logged but not counted in the HTTP metrics.
func NewManagementServer(
	cfg config.ManagementConfig,
	r router.Router,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
) *ManagementServer {
	r.Use(
		requestid.RequestID(),
		logging.WithConfig(log, logging.Config{Enabled: true, ExcludedPathPrefixes: []string{"/health", "/metrics"}}),
		recovery.Recovery(log),
	)

	serverCfg := Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s := &ManagementServer{
		Server:          NewServer(serverCfg, r, log),
		router:          r,
		healthRegistry:  healthRegistry,
		metricsRegistry: metricsRegistry,
	}

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", s.handleMetrics)

	return s
}

func (s *ManagementServer) handleHealth(c router.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": health.StatusHealthy,
	})
}

func (s *ManagementServer) handleReady(c router.Context) error {
	result := s.healthRegistry.Check(c.Request().Context())
	if !result.IsHealthy() {
		return c.JSON(http.StatusServiceUnavailable, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *ManagementServer) handleMetrics(c router.Context) error {
	s.metricsRegistry.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

// Router returns the underlying router for registering custom admin routes.
func (s *ManagementServer) Router() router.Router {
	return s.router
}
