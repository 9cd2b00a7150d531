package game

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticFileServer serves the frontend bundle from dir, falling back to
// fallbackPath for unknown routes so the SPA router can handle them.
func StaticFileServer(dir string, fallbackPath string) http.Handler {
	fs := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(filepath.Join(dir, r.URL.Path)); err == nil {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, fallbackPath))
	})
}
