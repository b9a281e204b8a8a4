// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// MemFs returns an in-memory filesystem populated with the given files.
func MemFs(files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			panic(err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	return fs
}

// AssertFileExists checks that a file exists in the filesystem.
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if !exists {
		t.Errorf("Expected file to exist: %s", path)
	}
}
