// Package cors answers preflight requests and sets CORS response headers.
package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nimburion/catalog/pkg/server/router"
)

// Config configures CORS. An AllowOrigins entry of "*" allows any origin;
// with AllowWildcard a single "*" inside an entry matches a substring, as
// in "https://*.example.com".
type Config struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	AllowWildcard    bool
	MaxAge           time.Duration
}

// DefaultConfig returns a disabled configuration with the methods the
// catalog routes use.
func DefaultConfig() Config {
	return Config{
		AllowOrigins: []string{},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{},
		MaxAge:       12 * time.Hour,
	}
}

// Middleware returns a router middleware implementing CORS.
func Middleware(cfg Config) router.MiddlewareFunc {
	cfg = normalize(cfg)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			origin := req.Header.Get("Origin")
			if !cfg.Enabled || origin == "" {
				return next(c)
			}

			res := c.Response()
			if !cfg.allows(origin) {
				if isPreflight(req) {
					res.WriteHeader(http.StatusForbidden)
					return nil
				}
				return next(c)
			}

			h := res.Header()
			h.Add("Vary", "Origin")
			cfg.setOriginHeaders(h, origin)
			if len(cfg.ExposeHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}

			if !isPreflight(req) {
				return next(c)
			}

			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			if len(cfg.AllowHeaders) > 0 {
				h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			} else if requested := req.Header.Get("Access-Control-Request-Headers"); requested != "" {
				h.Set("Access-Control-Allow-Headers", requested)
			}
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge/time.Second)))
			}
			res.WriteHeader(http.StatusNoContent)
			return nil
		}
	}
}

func normalize(cfg Config) Config {
	defaults := DefaultConfig()
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = defaults.AllowMethods
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = defaults.MaxAge
	}
	cfg.AllowMethods = trimAll(cfg.AllowMethods, strings.ToUpper)
	cfg.AllowOrigins = trimAll(cfg.AllowOrigins, nil)
	cfg.AllowHeaders = trimAll(cfg.AllowHeaders, nil)
	cfg.ExposeHeaders = trimAll(cfg.ExposeHeaders, nil)
	return cfg
}

func trimAll(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	return out
}

func isPreflight(req *http.Request) bool {
	return req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != ""
}

func (cfg Config) allows(origin string) bool {
	for _, allowed := range cfg.AllowOrigins {
		switch {
		case allowed == "*":
			return true
		case strings.EqualFold(allowed, origin):
			return true
		case cfg.AllowWildcard && wildcardMatch(allowed, origin):
			return true
		}
	}
	return false
}

func (cfg Config) anyOrigin() bool {
	for _, allowed := range cfg.AllowOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

func wildcardMatch(pattern, value string) bool {
	if strings.Count(pattern, "*") != 1 {
		return false
	}
	prefix, suffix, _ := strings.Cut(pattern, "*")
	return len(value) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(value, prefix) && strings.HasSuffix(value, suffix)
}

// Credentials cannot be combined with a literal "*" origin, so the request
// origin is echoed instead.
func (cfg Config) setOriginHeaders(h http.Header, origin string) {
	if cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		return
	}
	if cfg.anyOrigin() {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
}
