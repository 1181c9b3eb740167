package static

import (
	"net/http"
	"path"
)

const indexFileName = "index.html"

// LocalFile returns a ServeFileSystem rooted at dir. Directories are only
// servable through their index.html.
func LocalFile(dir string) ServeFileSystem {
	return &localFileSystem{FileSystem: http.Dir(dir)}
}

type localFileSystem struct {
	http.FileSystem
}

func (l *localFileSystem) Exists(requestPath string) bool {
	relative := cleanPath(requestPath)

	f, err := l.Open(relative)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}

	index, err := l.Open(path.Join(relative, indexFileName))
	if err != nil {
		return false
	}
	index.Close()
	return true
}
