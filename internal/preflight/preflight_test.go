package preflight

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sockudo/devserver/internal/config"
)

func TestCheck_ModuleRootExists(t *testing.T) {
	cfg := &config.Config{ModuleRoot: t.TempDir()}
	var out bytes.Buffer
	// Input would decline; it must not even be consulted.
	if !Check(cfg, strings.NewReader("n\n"), &out) {
		t.Error("Check() = false, want true when the module root exists")
	}
	if out.Len() != 0 {
		t.Errorf("Check() wrote %q, want no output when the module root exists", out.String())
	}
}

func TestCheck_MissingRootPrompts(t *testing.T) {
	cfg := &config.Config{ModuleRoot: filepath.Join(t.TempDir(), "pkg")}

	for _, tc := range []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false}, // non-interactive stdin
	} {
		var out bytes.Buffer
		got := Check(cfg, strings.NewReader(tc.input), &out)
		if got != tc.want {
			t.Errorf("Check() with input %q = %v, want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "Continue anyway?") {
			t.Errorf("Check() with input %q did not prompt", tc.input)
		}
	}
}
