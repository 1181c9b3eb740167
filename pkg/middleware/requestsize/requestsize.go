// Package requestsize bounds request bodies.
package requestsize

import (
	"errors"
	"net/http"

	"github.com/nimburion/catalog/pkg/controller"
	"github.com/nimburion/catalog/pkg/server/router"
)

// Middleware enforces a maximum request body size in bytes.
// A non-positive maxBytes disables the middleware.
func Middleware(maxBytes int64) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if maxBytes <= 0 || req.Body == nil {
				return next(c)
			}

			if req.ContentLength > maxBytes {
				return payloadTooLarge(c)
			}

			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			c.SetRequest(req)

			err := next(c)
			var maxBytesErr *http.MaxBytesError
			if err != nil && errors.As(err, &maxBytesErr) && !c.Response().Written() {
				return payloadTooLarge(c)
			}
			return err
		}
	}
}

func payloadTooLarge(c router.Context) error {
	return c.JSON(http.StatusRequestEntityTooLarge, controller.ErrorResponse{
		Success: false,
		Error:   http.StatusText(http.StatusRequestEntityTooLarge),
	})
}
