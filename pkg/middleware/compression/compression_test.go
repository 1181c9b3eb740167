package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/nimburion/catalog/pkg/server/router"
	"github.com/nimburion/catalog/pkg/server/router/nethttp"
)

type product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func catalogPage() []product {
	page := make([]product, 40)
	for i := range page {
		page[i] = product{Name: "chair", Description: strings.Repeat("oak ", 20)}
	}
	return page
}

func serve(t *testing.T, cfg Config, acceptEncoding string, handler router.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := nethttp.NewRouter()
	r.Use(Middleware(cfg))
	r.GET("/products", handler)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeProducts(t *testing.T, r io.Reader) []product {
	t.Helper()
	var out []product
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func listHandler(c router.Context) error {
	return c.JSON(http.StatusOK, catalogPage())
}

func TestMiddleware_Brotli(t *testing.T) {
	rec := serve(t, DefaultConfig(), "gzip, br", listHandler)

	if rec.Header().Get("Content-Encoding") != encodingBrotli {
		t.Fatalf("expected br, got %q", rec.Header().Get("Content-Encoding"))
	}
	if got := decodeProducts(t, brotli.NewReader(bytes.NewReader(rec.Body.Bytes()))); len(got) != 40 {
		t.Fatalf("expected 40 products, got %d", len(got))
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Fatalf("expected Vary header, got %q", rec.Header().Get("Vary"))
	}
}

func TestMiddleware_Gzip(t *testing.T) {
	rec := serve(t, DefaultConfig(), "gzip", listHandler)

	if rec.Header().Get("Content-Encoding") != encodingGzip {
		t.Fatalf("expected gzip, got %q", rec.Header().Get("Content-Encoding"))
	}
	gz, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()
	if got := decodeProducts(t, gz); len(got) != 40 {
		t.Fatalf("expected 40 products, got %d", len(got))
	}
}

func TestMiddleware_PlainResponses(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		accept  string
		handler router.HandlerFunc
	}{
		{name: "no accept encoding", cfg: DefaultConfig(), handler: listHandler},
		{name: "below min size", cfg: DefaultConfig(), accept: "br", handler: func(c router.Context) error {
			return c.JSON(http.StatusOK, map[string]bool{"success": true})
		}},
		{name: "binary content type", cfg: DefaultConfig(), accept: "gzip", handler: func(c router.Context) error {
			c.Response().Header().Set("Content-Type", "image/png")
			_, err := c.Response().Write(bytes.Repeat([]byte{0x89}, 4096))
			return err
		}},
		{name: "disabled", cfg: Config{}, accept: "br", handler: listHandler},
		{name: "encoding refused", cfg: DefaultConfig(), accept: "br;q=0, gzip;q=0", handler: listHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.cfg, tt.accept, tt.handler)
			if enc := rec.Header().Get("Content-Encoding"); enc != "" {
				t.Fatalf("expected identity encoding, got %q", enc)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestMiddleware_ErrorAfterNoWrite(t *testing.T) {
	rec := serve(t, DefaultConfig(), "br", func(c router.Context) error {
		return errors.New("boom")
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("expected plain error body, got %q", rec.Body.String())
	}
}

func TestNegotiateEncoding(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		accept string
		want   string
	}{
		{accept: "", want: ""},
		{accept: "br", want: encodingBrotli},
		{accept: "gzip", want: encodingGzip},
		{accept: "gzip;q=1.0, br;q=0.5", want: encodingGzip},
		{accept: "gzip, br", want: encodingBrotli},
		{accept: "*", want: encodingBrotli},
		{accept: "identity", want: ""},
	}
	for _, tt := range tests {
		if got := negotiateEncoding(tt.accept, cfg); got != tt.want {
			t.Errorf("negotiateEncoding(%q) = %q, want %q", tt.accept, got, tt.want)
		}
	}

	gzipOnly := cfg
	gzipOnly.EnableBrotli = false
	if got := negotiateEncoding("br, gzip", gzipOnly); got != encodingGzip {
		t.Errorf("expected gzip when brotli disabled, got %q", got)
	}
}
