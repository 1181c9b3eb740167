package requestsize

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		max        int64
		body       string
		chunked    bool
		wantStatus int
	}{
		{name: "within limit", max: 64, body: `{"name":"desk"}`, wantStatus: http.StatusCreated},
		{name: "declared too large", max: 8, body: `{"name":"desk"}`, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "streamed too large", max: 8, body: `{"name":"desk"}`, chunked: true, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "disabled", max: 0, body: strings.Repeat("x", 1024), wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := nethttp.NewRouter()
			r.Use(Middleware(tt.max))
			r.POST("/products", func(c router.Context) error {
				if _, err := io.ReadAll(c.Request().Body); err != nil {
					return fmt.Errorf("read body: %w", err)
				}
				return c.String(http.StatusCreated, "ok")
			})

			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
