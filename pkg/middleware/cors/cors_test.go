package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
)

func newRouter(cfg Config) router.Router {
	r := nethttp.NewRouter()
	r.Use(Middleware(cfg))
	r.GET("/products", func(c router.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "simple request from allowed origin",
			cfg:        Config{Enabled: true, AllowOrigins: []string{"https://shop.example.com"}},
			method:     http.MethodGet,
			origin:     "https://shop.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://shop.example.com",
		},
		{
			name:       "simple request from unknown origin",
			cfg:        Config{Enabled: true, AllowOrigins: []string{"https://shop.example.com"}},
			method:     http.MethodGet,
			origin:     "https://evil.example.org",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight allowed",
			cfg:        Config{Enabled: true, AllowOrigins: []string{"*"}},
			method:     http.MethodOptions,
			origin:     "https://shop.example.com",
			preflight:  true,
			wantStatus: http.StatusNoContent,
			wantOrigin: "*",
		},
		{
			name:       "preflight rejected",
			cfg:        Config{Enabled: true, AllowOrigins: []string{"https://shop.example.com"}},
			method:     http.MethodOptions,
			origin:     "https://evil.example.org",
			preflight:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wildcard subdomain",
			cfg:        Config{Enabled: true, AllowWildcard: true, AllowOrigins: []string{"https://*.example.com"}},
			method:     http.MethodGet,
			origin:     "https://admin.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://admin.example.com",
		},
		{
			name:       "credentials echo origin",
			cfg:        Config{Enabled: true, AllowCredentials: true, AllowOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "https://shop.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://shop.example.com",
		},
		{
			name:       "disabled",
			cfg:        Config{AllowOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "https://shop.example.com",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/products", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			}
			w := httptest.NewRecorder()
			newRouter(tt.cfg).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("expected allow origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	r := newRouter(Config{Enabled: true, AllowOrigins: []string{"*"}})
	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Fatalf("expected requested headers echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "43200" {
		t.Fatalf("expected 12h max age, got %q", got)
	}
}
