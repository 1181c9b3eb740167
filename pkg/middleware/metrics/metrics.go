// Package metrics records Prometheus HTTP metrics per request.
package metrics

import (
	"time"

	"github.com/nimburion/catalog/pkg/observability/metrics"
	"github.com/nimburion/catalog/pkg/server/router"
)

// Metrics tracks in-flight requests and observes duration and count by
// method, path and status.
func Metrics() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			metrics.IncrementInFlight()
			defer metrics.DecrementInFlight()

			start := time.Now()
			err := next(c)

			status := c.Response().Status()
			if err != nil && !c.Response().Written() {
				status = 500
			}
			metrics.RecordHTTPMetrics(c.Request().Method, c.Request().URL.Path, status, time.Since(start))
			return err
		}
	}
}
