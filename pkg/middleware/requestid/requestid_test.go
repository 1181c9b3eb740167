package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nimburion/catalog/pkg/middleware"
	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
)

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string, interface{}) {
	t.Helper()
	r := nethttp.NewRouter()
	r.Use(RequestID())

	var fromCtx string
	var fromStore interface{}
	r.GET("/products", func(c router.Context) error {
		fromCtx = GetRequestID(c.Request().Context())
		fromStore = c.Get(string(middleware.RequestIDKey))
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, fromCtx, fromStore
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	rec, fromCtx, fromStore := serve(t, "")

	if _, err := uuid.Parse(fromCtx); err != nil {
		t.Fatalf("expected generated UUID, got %q", fromCtx)
	}
	if rec.Header().Get(RequestIDHeader) != fromCtx {
		t.Fatalf("response header %q does not match context %q", rec.Header().Get(RequestIDHeader), fromCtx)
	}
	if fromStore != fromCtx {
		t.Fatalf("expected router context value %q, got %v", fromCtx, fromStore)
	}
}

func TestRequestID_PreservesIncomingHeader(t *testing.T) {
	rec, fromCtx, _ := serve(t, "req-123")

	if fromCtx != "req-123" {
		t.Fatalf("expected req-123 in context, got %q", fromCtx)
	}
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected req-123 in response, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	_, first, _ := serve(t, "")
	_, second, _ := serve(t, "")
	if first == second {
		t.Fatalf("expected distinct IDs, got %q twice", first)
	}
}
