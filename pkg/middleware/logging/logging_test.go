package logging

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimburion/catalog/pkg/middleware/requestid"
	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
	"github.com/nimburion/catalog/pkg/testutil"
)

func TestLogging_Completed(t *testing.T) {
	rec := &testutil.RecordingLogger{}
	r := nethttp.NewRouter()
	r.Use(requestid.RequestID(), Logging(rec))
	r.GET("/products", func(c router.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/products?price%5Bgte%5D=10", nil)
	req.Header.Set(requestid.RequestIDHeader, "req-1")
	req.RemoteAddr = "10.0.0.1:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry, ok := rec.Find("request completed")
	if !ok {
		t.Fatalf("expected completion log, got %+v", rec.Entries())
	}
	if entry.Level != "info" {
		t.Fatalf("expected info level, got %s", entry.Level)
	}
	want := map[string]interface{}{
		"request_id":  "req-1",
		"method":      http.MethodGet,
		"path":        "/products",
		"query":       "price%5Bgte%5D=10",
		"status":      http.StatusOK,
		"remote_addr": "10.0.0.1:5555",
	}
	for k, v := range want {
		if entry.Fields[k] != v {
			t.Errorf("field %s: expected %v, got %v", k, v, entry.Fields[k])
		}
	}
	if _, ok := entry.Fields["duration_ms"]; !ok {
		t.Error("expected duration_ms")
	}
}

func TestLogging_Failed(t *testing.T) {
	rec := &testutil.RecordingLogger{}
	r := nethttp.NewRouter()
	r.Use(Logging(rec))
	boom := errors.New("boom")
	r.GET("/products", func(c router.Context) error { return boom })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	entry, ok := rec.Find("request failed")
	if !ok {
		t.Fatal("expected failure log")
	}
	if entry.Level != "error" || entry.Fields["error"] != boom {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestLogging_ServerErrorResponseIsWarn(t *testing.T) {
	rec := &testutil.RecordingLogger{}
	r := nethttp.NewRouter()
	r.Use(Logging(rec))
	r.GET("/products", func(c router.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

	entry, ok := rec.Find("request completed")
	if !ok || entry.Level != "warn" {
		t.Fatalf("expected warn completion, got %+v", rec.Entries())
	}
}

func TestLogging_ExcludedAndDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		path string
	}{
		{name: "excluded prefix", cfg: Config{Enabled: true, ExcludedPathPrefixes: []string{"/assets"}}, path: "/assets/app.js"},
		{name: "disabled", cfg: Config{}, path: "/products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &testutil.RecordingLogger{}
			r := nethttp.NewRouter()
			r.Use(WithConfig(rec, tt.cfg))
			r.GET(tt.path, func(c router.Context) error { return c.String(http.StatusOK, "ok") })

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			if n := len(rec.Entries()); n != 0 {
				t.Fatalf("expected no log entries, got %d", n)
			}
		})
	}
}
