// Package router abstracts HTTP routing so handlers and middleware stay
// independent of the engine (gin, gorilla/mux or net/http).
package router

import "net/http"

// Router registers handlers. Paths use ":name" for parameters.
type Router interface {
	GET(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	POST(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	PUT(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	DELETE(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	PATCH(path string, handler HandlerFunc, middleware ...MiddlewareFunc)

	// Group creates a route group with common prefix and middleware.
	Group(prefix string, middleware ...MiddlewareFunc) Router

	// Use appends middleware for routes registered afterwards.
	Use(middleware ...MiddlewareFunc)

	// NoRoute sets the fallback for requests no route matches. The
	// middleware registered with Use so far wraps it.
	NoRoute(handler HandlerFunc, middleware ...MiddlewareFunc)

	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// HandlerFunc handles one request.
type HandlerFunc func(Context) error

// MiddlewareFunc wraps a HandlerFunc.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Context gives handlers engine independent access to the exchange.
type Context interface {
	Request() *http.Request
	SetRequest(r *http.Request)
	Response() ResponseWriter
	SetResponse(w ResponseWriter)

	// Param returns a path parameter, "" when absent.
	Param(name string) string
	// Query returns the first value of a query parameter.
	Query(name string) string

	// Bind decodes a JSON request body into v.
	Bind(v interface{}) error
	JSON(code int, v interface{}) error
	String(code int, s string) error

	Get(key string) interface{}
	Set(key string, value interface{})
}

// ResponseWriter tracks the status written to the client.
type ResponseWriter interface {
	http.ResponseWriter
	Status() int
	Written() bool
}

// Chain applies middleware to h so that middleware[0] runs first.
func Chain(h HandlerFunc, middleware ...MiddlewareFunc) HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
