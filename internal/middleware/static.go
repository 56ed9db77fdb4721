package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const fallbackSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#e8f5e9"/><path d="M100 40c-30 30-45 60-45 85 0 25 20 40 45 40s45-15 45-40c0-25-15-55-45-85zm0 105c-8 0-15-10-15-20h30c0 10-7 20-15 20z" fill="#4caf50"/><text x="100" y="185" text-anchor="middle" font-family="Arial" font-size="14" fill="#388e3c">CO2</text></svg>`

// StaticFileServer serves category icons for the mobile client, falling
// back to a generic leaf icon when an asset is missing.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(fallbackSVG))
	})
}
