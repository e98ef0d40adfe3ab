// Package web serves the studio's single-page front end.
//
// # Bundle
//
// The compiled front end lives in dist/ and ships inside the binary via
// go:embed. A development build can point the server at a directory on disk
// instead through the [server] web_dir config key, which skips the embedded
// copy entirely.
//
// # Routing
//
// The SPA owns its routes client-side. [Handler] serves real files when they
// exist and falls back to index.html for everything else, so a hard reload on
// /playlists/abc123 still boots the app.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed all:dist
var bundle embed.FS

const indexPage = "index.html"

// Handler returns the SPA file server. An empty dir serves the embedded
// bundle; otherwise dir is served straight from disk.
func Handler(dir string) http.Handler {
	if dir != "" {
		return &spaHandler{root: os.DirFS(dir)}
	}

	sub, err := fs.Sub(bundle, "dist")
	if err != nil {
		// The embed directive guarantees dist/ exists in the binary.
		panic(err)
	}
	return &spaHandler{root: sub}
}

type spaHandler struct {
	root fs.FS
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = indexPage
	}

	info, err := fs.Stat(h.root, name)
	if err != nil || info.IsDir() {
		name = indexPage
	}

	http.ServeFileFS(w, r, h.root, name)
}
