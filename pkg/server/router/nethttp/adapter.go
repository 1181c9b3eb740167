// Package nethttp implements router.Router on top of net/http with a small
// segment matcher.
package nethttp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/nimburion/catalog/pkg/server/router"
)

// NetHTTPRouter implements router.Router. Groups share the route table of
// the router they were created from.
type NetHTTPRouter struct {
	table      *table
	middleware []router.MiddlewareFunc
	prefix     string
}

type table struct {
	mu      sync.RWMutex
	routes  []route
	options map[string]struct{}
	noRoute router.HandlerFunc
}

type route struct {
	method  string
	pattern string
	handler router.HandlerFunc
}

// NewRouter creates a new NetHTTPRouter.
func NewRouter() *NetHTTPRouter {
	return &NetHTTPRouter{table: &table{options: make(map[string]struct{})}}
}

func (r *NetHTTPRouter) GET(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.addRoute(http.MethodGet, path, handler, middleware)
}

func (r *NetHTTPRouter) POST(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.addRoute(http.MethodPost, path, handler, middleware)
}

func (r *NetHTTPRouter) PUT(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.addRoute(http.MethodPut, path, handler, middleware)
}

func (r *NetHTTPRouter) DELETE(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.addRoute(http.MethodDelete, path, handler, middleware)
}

func (r *NetHTTPRouter) PATCH(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.addRoute(http.MethodPatch, path, handler, middleware)
}

// Group creates a route group with common prefix and middleware.
func (r *NetHTTPRouter) Group(prefix string, middleware ...router.MiddlewareFunc) router.Router {
	r.table.mu.RLock()
	combined := append(append([]router.MiddlewareFunc{}, r.middleware...), middleware...)
	r.table.mu.RUnlock()
	return &NetHTTPRouter{table: r.table, middleware: combined, prefix: r.prefix + prefix}
}

// Use appends middleware for routes registered afterwards.
func (r *NetHTTPRouter) Use(middleware ...router.MiddlewareFunc) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// NoRoute sets the handler for unmatched requests.
func (r *NetHTTPRouter) NoRoute(handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	all := append(append([]router.MiddlewareFunc{}, r.middleware...), middleware...)
	r.table.noRoute = router.Chain(handler, all...)
}

// ServeHTTP implements http.Handler.
func (r *NetHTTPRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.table.mu.RLock()
	handler, params := r.table.lookup(req.Method, req.URL.Path)
	r.table.mu.RUnlock()

	if handler == nil {
		http.NotFound(w, req)
		return
	}

	ctx := newContext(w, req, params)
	if err := handler(ctx); err != nil && !ctx.Response().Written() {
		http.Error(ctx.Response(), err.Error(), http.StatusInternalServerError)
	}
}

func (t *table) lookup(method, path string) (router.HandlerFunc, map[string]string) {
	for _, rt := range t.routes {
		if rt.method != method {
			continue
		}
		if params, ok := matchRoute(rt.pattern, path); ok {
			return rt.handler, params
		}
	}
	return t.noRoute, nil
}

func (r *NetHTTPRouter) addRoute(method, path string, handler router.HandlerFunc, middleware []router.MiddlewareFunc) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()

	fullPath := r.prefix + path
	all := append(append([]router.MiddlewareFunc{}, r.middleware...), middleware...)
	r.table.routes = append(r.table.routes, route{
		method:  method,
		pattern: fullPath,
		handler: router.Chain(handler, all...),
	})

	// OPTIONS answers 204 behind the router level middleware so CORS
	// preflight works for every registered path.
	if _, ok := r.table.options[fullPath]; ok {
		return
	}
	r.table.options[fullPath] = struct{}{}
	r.table.routes = append(r.table.routes, route{
		method:  http.MethodOptions,
		pattern: fullPath,
		handler: router.Chain(noContent, r.middleware...),
	})
}

func noContent(c router.Context) error {
	if !c.Response().Written() {
		c.Response().WriteHeader(http.StatusNoContent)
	}
	return nil
}

// matchRoute matches patterns like /products/:id and extracts parameters.
func matchRoute(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") {
			if pathParts[i] == "" {
				return nil, false
			}
			params[part[1:]] = pathParts[i]
		} else if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

type netHTTPContext struct {
	request  *http.Request
	response router.ResponseWriter
	params   map[string]string
	store    map[string]interface{}
	mu       sync.RWMutex
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *netHTTPContext {
	return &netHTTPContext{
		request:  r,
		response: &responseWriter{ResponseWriter: w},
		params:   params,
		store:    make(map[string]interface{}),
	}
}

func (c *netHTTPContext) Request() *http.Request { return c.request }
func (c *netHTTPContext) SetRequest(r *http.Request) { c.request = r }
func (c *netHTTPContext) Response() router.ResponseWriter { return c.response }
func (c *netHTTPContext) SetResponse(w router.ResponseWriter) {
	c.response = w
}

func (c *netHTTPContext) Param(name string) string { return c.params[name] }

func (c *netHTTPContext) Query(name string) string { return c.request.URL.Query().Get(name) }

func (c *netHTTPContext) Bind(v interface{}) error {
	if c.request.Body == nil || c.request.Body == http.NoBody {
		return errors.New("request body is empty")
	}
	defer c.request.Body.Close()

	contentType := c.request.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}
	return json.NewDecoder(c.request.Body).Decode(v)
}

func (c *netHTTPContext) JSON(code int, v interface{}) error {
	c.response.Header().Set("Content-Type", "application/json")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *netHTTPContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain")
	c.response.WriteHeader(code)
	_, err := io.WriteString(c.response, s)
	return err
}

func (c *netHTTPContext) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store[key]
}

func (c *netHTTPContext) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

// responseWriter records the first status written.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseWriter) Written() bool { return w.written }
