// Package compression negotiates Brotli or gzip response encoding.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/nimburion/catalog/pkg/server/router"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Config controls response compression.
type Config struct {
	Enabled      bool
	EnableGzip   bool
	EnableBrotli bool
	GzipLevel    int
	BrotliLevel  int
	// MinSize is the body size below which responses are sent as is.
	MinSize                  int
	CompressibleContentTypes []string
	ExcludedPathPrefixes     []string
}

// DefaultConfig compresses JSON, text and script responses of 1KiB or more.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		EnableGzip:   true,
		EnableBrotli: true,
		GzipLevel:    gzip.DefaultCompression,
		BrotliLevel:  4,
		MinSize:      1024,
		CompressibleContentTypes: []string{
			"text/",
			"application/json",
			"application/javascript",
			"image/svg+xml",
		},
	}
}

// Middleware wraps the response writer when the client accepts br or gzip.
func Middleware(cfg Config) router.MiddlewareFunc {
	cfg = normalizeConfig(cfg)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if !cfg.Enabled || req.Method == http.MethodHead || excluded(req.URL.Path, cfg.ExcludedPathPrefixes) {
				return next(c)
			}

			encoding := negotiateEncoding(req.Header.Get("Accept-Encoding"), cfg)
			if encoding == "" {
				return next(c)
			}

			base := c.Response()
			appendVary(base.Header(), "Accept-Encoding")
			wrapped := &compressResponseWriter{base: base, encoding: encoding, cfg: cfg}
			c.SetResponse(wrapped)

			err := next(c)
			closeErr := wrapped.Close()
			// Outer error handling must not write into a closed encoder.
			c.SetResponse(base)
			if err == nil {
				err = closeErr
			}
			return err
		}
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = def.GzipLevel
	}
	if cfg.BrotliLevel <= 0 {
		cfg.BrotliLevel = def.BrotliLevel
	}
	if cfg.MinSize < 0 {
		cfg.MinSize = 0
	}
	if len(cfg.CompressibleContentTypes) == 0 {
		cfg.CompressibleContentTypes = def.CompressibleContentTypes
	}
	return cfg
}

func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// negotiateEncoding prefers Brotli unless gzip has a strictly higher q.
func negotiateEncoding(acceptEncoding string, cfg Config) string {
	if acceptEncoding == "" {
		return ""
	}

	qAny, hasAny := qualityForEncoding(acceptEncoding, "*")
	quality := func(enabled bool, name string) float64 {
		if !enabled {
			return 0
		}
		if q, ok := qualityForEncoding(acceptEncoding, name); ok {
			return q
		}
		if hasAny {
			return qAny
		}
		return 0
	}

	qBr := quality(cfg.EnableBrotli, encodingBrotli)
	qGzip := quality(cfg.EnableGzip, encodingGzip)
	switch {
	case qBr > 0 && qBr >= qGzip:
		return encodingBrotli
	case qGzip > 0:
		return encodingGzip
	default:
		return ""
	}
}

func qualityForEncoding(acceptEncoding, encoding string) (float64, bool) {
	for _, part := range strings.Split(acceptEncoding, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(sections[0]), encoding) {
			continue
		}

		q := 1.0
		for _, section := range sections[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(section), "=")
			if !ok || !strings.EqualFold(key, "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				q = parsed
			}
		}
		return q, true
	}
	return 0, false
}

// compressResponseWriter buffers up to MinSize bytes before deciding
// whether to compress, since Content-Type and size are only known then.
type compressResponseWriter struct {
	base          router.ResponseWriter
	encoding      string
	cfg           Config
	statusCode    int
	headerWritten bool
	decided       bool
	compress      bool
	encoder       io.WriteCloser
	buffer        bytes.Buffer
}

func (w *compressResponseWriter) Header() http.Header {
	return w.base.Header()
}

func (w *compressResponseWriter) WriteHeader(code int) {
	if w.headerWritten {
		return
	}
	w.statusCode = code
	w.headerWritten = true
	if noBodyStatus(code) {
		w.decided = true
		w.base.WriteHeader(code)
	}
}

func (w *compressResponseWriter) Write(p []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}

	if w.decided {
		if w.compress {
			return w.encoder.Write(p)
		}
		return w.base.Write(p)
	}

	w.buffer.Write(p)
	if w.buffer.Len() < w.cfg.MinSize {
		return len(p), nil
	}
	if err := w.decide(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *compressResponseWriter) decide() error {
	w.decided = true

	contentType := strings.ToLower(w.Header().Get("Content-Type"))
	if w.Header().Get("Content-Encoding") != "" ||
		w.buffer.Len() < w.cfg.MinSize ||
		!isCompressibleContentType(contentType, w.cfg.CompressibleContentTypes) {
		return w.flushPlain()
	}

	switch w.encoding {
	case encodingBrotli:
		w.encoder = brotli.NewWriterLevel(w.base, w.cfg.BrotliLevel)
	case encodingGzip:
		gz, err := gzip.NewWriterLevel(w.base, w.cfg.GzipLevel)
		if err != nil {
			return fmt.Errorf("create gzip writer: %w", err)
		}
		w.encoder = gz
	default:
		return w.flushPlain()
	}

	w.compress = true
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", w.encoding)
	w.base.WriteHeader(w.statusOrOK())

	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.encoder.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

func (w *compressResponseWriter) flushPlain() error {
	w.base.WriteHeader(w.statusOrOK())
	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.base.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

// Close flushes buffered bytes and terminates the encoded stream.
func (w *compressResponseWriter) Close() error {
	if !w.headerWritten {
		return nil
	}
	if !w.decided {
		if err := w.decide(); err != nil {
			return err
		}
	}
	if w.compress {
		return w.encoder.Close()
	}
	return nil
}

func (w *compressResponseWriter) statusOrOK() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *compressResponseWriter) Status() int {
	if w.base.Written() {
		return w.base.Status()
	}
	return w.statusOrOK()
}

func (w *compressResponseWriter) Written() bool {
	return w.base.Written() || w.headerWritten
}

func (w *compressResponseWriter) Flush() {
	if !w.decided && w.headerWritten {
		_ = w.decide()
	}
	if f, ok := w.encoder.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := w.base.(http.Flusher); ok {
		f.Flush()
	}
}

func noBodyStatus(statusCode int) bool {
	return statusCode == http.StatusNoContent || statusCode == http.StatusNotModified || (statusCode >= 100 && statusCode < 200)
}

// Responses without a Content-Type are compressed.
func isCompressibleContentType(contentType string, allow []string) bool {
	if contentType == "" {
		return true
	}
	for _, prefix := range allow {
		if strings.HasPrefix(contentType, strings.ToLower(strings.TrimSpace(prefix))) {
			return true
		}
	}
	return false
}

func appendVary(header http.Header, value string) {
	current := header.Get("Vary")
	if current == "" {
		header.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	header.Set("Vary", current+", "+value)
}
