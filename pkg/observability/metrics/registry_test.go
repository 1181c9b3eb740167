package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestRegistry_ExposesHTTPAndStoreMetrics(t *testing.T) {
	reg := NewRegistry()

	RecordHTTPMetrics(http.MethodGet, "/api/v1/products", http.StatusOK, 12*time.Millisecond)
	RecordStoreOperation("find", "products", 3*time.Millisecond, nil)
	RecordStoreOperation("count", "products", time.Millisecond, errors.New("boom"))

	body := scrape(t, reg)
	for _, want := range []string{
		"http_request_duration_seconds",
		"http_requests_total",
		"catalog_store_operation_duration_seconds",
		`catalog_store_operation_errors_total{collection="products",operation="count"}`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}

func TestNewRegistry_Twice(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("creating two registries must not panic: %v", r)
		}
	}()
	_ = NewRegistry()
	_ = NewRegistry()
}
