// Package recovery turns handler panics into the generic 500 envelope.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/nimburion/catalog/pkg/controller"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// Recovery recovers panics, logs them with the stack and answers
// {"success":false,"error":"Server Error"} unless a response was started.
func Recovery(log logger.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.WithContext(c.Request().Context()).Error("panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				if c.Response().Written() {
					return
				}
				err = c.JSON(http.StatusInternalServerError, controller.ErrorResponse{
					Success: false,
					Error:   controller.GenericErrorMessage,
				})
			}()
			return next(c)
		}
	}
}
