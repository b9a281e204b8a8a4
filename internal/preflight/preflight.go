// Package preflight checks that the compiled WASM bundle is present
// before the server starts accepting connections.
package preflight

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sockudo/devserver/internal/config"
)

// Check stats the module root and returns true if serving should proceed.
// When the directory is missing, the operator is prompted; anything other
// than y/yes (including EOF on a non-interactive stdin) is a no-go.
func Check(cfg *config.Config, in io.Reader, out io.Writer) bool {
	if _, err := os.Stat(cfg.ModuleRoot); err == nil {
		return true
	}

	fmt.Fprintln(out, "⚠️  WARNING: pkg directory not found!")
	fmt.Fprintf(out, "   Expected compiled WASM bundle at: %s\n", cfg.ModuleRoot)
	fmt.Fprintln(out, "   Please run the WASM build first:")
	fmt.Fprintln(out, "     ./build-wasm.sh")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Continue anyway? (y/N): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
