package bundle

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEntry(t *testing.T, dir string) string {
	t.Helper()
	util := filepath.Join(dir, "util.js")
	if err := os.WriteFile(util, []byte("export function greet() { return \"hello-from-util\"; }\n"), 0644); err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(dir, "harness.js")
	src := "import { greet } from \"./util.js\";\nconsole.log(greet());\n"
	if err := os.WriteFile(entry, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return entry
}

func serve(t *testing.T, b *Builder) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bundle.js", nil))
	return rec
}

func TestServeHTTP_BundlesEntry(t *testing.T) {
	b := New(writeEntry(t, t.TempDir()))
	rec := serve(t, b)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/javascript" {
		t.Errorf("Content-Type = %q, want %q", got, "text/javascript")
	}
	if body := rec.Body.String(); !strings.Contains(body, "hello-from-util") {
		t.Errorf("bundle does not include the imported module: %q", body)
	}
}

func TestServeHTTP_CachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir)
	b := New(entry)

	first := serve(t, b).Body.String()

	// Change the entry on disk; without Invalidate the cache wins.
	if err := os.WriteFile(entry, []byte("console.log(\"second-version\");\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := serve(t, b).Body.String(); got != first {
		t.Errorf("cached bundle changed without Invalidate: %q vs %q", got, first)
	}

	b.Invalidate()
	if got := serve(t, b).Body.String(); !strings.Contains(got, "second-version") {
		t.Errorf("bundle after Invalidate = %q, want the rebuilt entry", got)
	}
}

func TestServeHTTP_MissingEntry(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "nope.js"))
	if rec := serve(t, b); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
