// Package handler implements the request handling for the harness server:
// URL-to-filesystem path translation, MIME type inference for WASM builds,
// and the cross-origin headers the browser requires before it grants the
// page access to cross-origin-isolated features.
package handler

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sockudo/devserver/internal/config"
)

// crossOriginHeaders are added to every response, error responses
// included. The COOP/COEP pair is what unlocks crossOriginIsolated
// features (SharedArrayBuffer, high-resolution timers) in the harness.
var crossOriginHeaders = [...][2]string{
	{"Access-Control-Allow-Origin", "*"},
	{"Access-Control-Allow-Methods", "GET, POST, OPTIONS"},
	{"Access-Control-Allow-Headers", "*"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Embedder-Policy", "require-corp"},
}

// CrossOrigin wraps next so that every response carries the CORS and
// cross-origin isolation headers. The headers are set before the inner
// handler runs, so they survive onto 404s and other error responses.
func CrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range crossOriginHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// Files serves the test harness directory and the compiled WASM bundle
// directory. The two roots are fixed at construction and never change; a
// Files value holds no other state, so concurrent requests need no
// coordination.
type Files struct {
	fs         afero.Fs
	assetRoot  string
	moduleRoot string
	indexPage  string
	pkgPrefix  string
}

// NewFiles builds the file handler for the configured roots. Pass
// afero.NewOsFs() in production; tests use an in-memory filesystem.
func NewFiles(cfg *config.Config, fs afero.Fs) *Files {
	return &Files{
		fs:         fs,
		assetRoot:  cfg.AssetRoot,
		moduleRoot: cfg.ModuleRoot,
		indexPage:  cfg.IndexPage,
		pkgPrefix:  cfg.PkgPrefix,
	}
}

// TranslatePath maps a raw request path to the filesystem path to serve.
// The query is stripped first, then the fragment from whatever remains.
// "/" becomes the landing page, and paths under the pkg prefix resolve
// against the module root instead of the asset root.
func (f *Files) TranslatePath(reqPath string) string {
	if i := strings.IndexByte(reqPath, '?'); i >= 0 {
		reqPath = reqPath[:i]
	}
	if i := strings.IndexByte(reqPath, '#'); i >= 0 {
		reqPath = reqPath[:i]
	}

	if reqPath == "/" {
		reqPath = f.indexPage
	}

	if rest, ok := strings.CutPrefix(reqPath, f.pkgPrefix); ok {
		// "/pkg/" alone resolves to the module root itself.
		return filepath.Join(f.moduleRoot, filepath.FromSlash(rest))
	}

	return filepath.Join(f.assetRoot, filepath.FromSlash(path.Clean("/"+reqPath)))
}

// ContentType infers the MIME type for a path. Streaming WASM compilation
// refuses anything but application/wasm, and the loader script must be
// served as a native module, so those two extensions are pinned; the rest
// go through the platform MIME table.
func (f *Files) ContentType(p string) string {
	switch {
	case strings.HasSuffix(p, ".wasm"):
		return "application/wasm"
	case strings.HasSuffix(p, ".js"):
		return "text/javascript"
	}
	if t := mime.TypeByExtension(filepath.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (f *Files) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fullPath := f.TranslatePath(r.URL.Path)

	info, err := f.fs.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 - Not Found"))
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("500 - Internal Server Error"))
		}
		return
	}
	if info.IsDir() {
		// No directory listings.
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 - Not Found"))
		return
	}

	file, err := f.fs.Open(fullPath)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("500 - Internal Server Error"))
		return
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", f.ContentType(fullPath))
	http.ServeContent(w, r, "", info.ModTime(), file)
}
