// Package static serves the storefront assets for paths no API route claims.
package static

import (
	"net/http"
	"path"

	"github.com/nimburion/catalog/pkg/server/router"
)

// ServeFileSystem is an http.FileSystem that can answer whether a request
// path resolves to a servable file.
type ServeFileSystem interface {
	http.FileSystem
	Exists(requestPath string) bool
}

// Fallback returns a handler for router.NoRoute. GET and HEAD requests for
// existing files (or "/" with an index.html) are served; everything else is
// a plain 404.
func Fallback(fs ServeFileSystem) router.HandlerFunc {
	fileserver := http.FileServer(fs)
	return func(c router.Context) error {
		req := c.Request()
		if (req.Method == http.MethodGet || req.Method == http.MethodHead) && fs.Exists(req.URL.Path) {
			fileserver.ServeHTTP(c.Response(), req)
			return nil
		}
		http.NotFound(c.Response(), req)
		return nil
	}
}

// ServeRoot is Fallback over a local directory.
func ServeRoot(root string) router.HandlerFunc {
	return Fallback(LocalFile(root))
}

func cleanPath(requestPath string) string {
	cleaned := path.Clean("/" + requestPath)
	if cleaned == "." {
		return "/"
	}
	return cleaned
}
