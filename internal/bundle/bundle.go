// Package bundle serves an esbuild bundle of the harness entry script, so
// a multi-file harness can be loaded through a single script tag without a
// separate frontend build step.
package bundle

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/zeebo/blake3"
)

// Builder bundles the entry script on first request and caches the output
// in memory until Invalidate is called (the file watcher calls it when
// anything under the asset root changes).
type Builder struct {
	entry string // absolute path of the harness entry script

	mu    sync.Mutex
	data  []byte
	mtime time.Time
}

func New(entry string) *Builder {
	return &Builder{entry: entry}
}

// Invalidate drops the cached bundle so the next request rebuilds it.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
}

// bundle returns the cached output, building it if necessary.
func (b *Builder) bundle() ([]byte, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data != nil {
		return b.data, b.mtime, nil
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{b.entry},
		Bundle:            true,
		Format:            api.FormatESModule,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Write:             false,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, time.Time{}, fmt.Errorf("bundling %s: %s", b.entry, result.Errors[0].Text)
	}
	if len(result.OutputFiles) == 0 {
		return nil, time.Time{}, fmt.Errorf("bundling %s: no output produced", b.entry)
	}

	b.data = result.OutputFiles[0].Contents
	b.mtime = time.Now()

	sum := blake3.Sum256(b.data)
	slog.Info("Bundled harness entry",
		"entry", b.entry, "bytes", len(b.data), "blake3", fmt.Sprintf("%x", sum[:8]))
	return b.data, b.mtime, nil
}

func (b *Builder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, mtime, err := b.bundle()
	if err != nil {
		slog.Error("Bundle build failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("500 - Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "text/javascript")
	http.ServeContent(w, r, "", mtime, bytes.NewReader(data))
}
