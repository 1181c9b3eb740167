// Package middleware groups the HTTP middleware of the public and
// management servers. Each concern lives in its own subpackage.
package middleware

// ContextKey names values stored on router.Context with Set.
type ContextKey string

const (
	// RequestIDKey holds the request ID set by the requestid middleware.
	RequestIDKey ContextKey = "request_id"
)
