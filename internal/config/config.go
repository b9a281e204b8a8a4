// Package config holds the immutable server configuration, assembled once
// at startup from defaults, an optional devserver.yaml, and command-line
// flags (in that order of precedence).
package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional YAML file read from the working directory.
const ConfigFile = "devserver.yaml"

// Config contains every tunable of the dev server. Values never change
// after Load returns.
type Config struct {
	Host string `yaml:"host"` // interface to bind (default: localhost)
	Port string `yaml:"port"` // port to listen on (default: 8080)

	AssetRoot  string `yaml:"assetRoot"`  // directory with the test harness
	ModuleRoot string `yaml:"moduleRoot"` // directory with the compiled WASM bundle
	IndexPage  string `yaml:"indexPage"`  // document served for "/"
	PkgPrefix  string `yaml:"pkgPrefix"`  // URL prefix mapped onto ModuleRoot

	Bundle      bool   `yaml:"bundle"`      // serve an esbuild bundle at /bundle.js
	BundleEntry string `yaml:"bundleEntry"` // entry script within AssetRoot

	DebounceDuration time.Duration `yaml:"debounceDuration"` // watcher debounce (default: 300ms)
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`  // graceful shutdown limit (default: 5s)
}

// Default returns the built-in configuration: serve the current directory
// on localhost:8080, with the WASM bundle expected in a pkg/ directory two
// levels above the harness (the layout the WASM build produces).
func Default() *Config {
	return &Config{
		Host:             "localhost",
		Port:             "8080",
		AssetRoot:        ".",
		ModuleRoot:       "", // derived from AssetRoot unless set
		IndexPage:        "/test.html",
		PkgPrefix:        "/pkg/",
		Bundle:           false,
		BundleEntry:      "harness.js",
		DebounceDuration: 300 * time.Millisecond,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Load builds the configuration from args. Flags override devserver.yaml,
// which overrides the defaults. Root directories are made absolute here;
// nothing mutates the result afterwards.
func Load(args []string) *Config {
	cfg := Default()

	if data, err := os.ReadFile(ConfigFile); err == nil {
		// Parse errors fall back to whatever was loaded so far.
		_ = yaml.Unmarshal(data, cfg)
	}

	// Flag defaults are the merged values, so a flag only changes the
	// result when it was actually passed.
	fs := flag.NewFlagSet("devserver", flag.ExitOnError)
	host := fs.String("host", cfg.Host, "The host/IP to bind to")
	port := fs.String("port", cfg.Port, "The port to listen on")
	assetRoot := fs.String("root", cfg.AssetRoot, "Directory containing the test harness")
	moduleRoot := fs.String("pkg", cfg.ModuleRoot, "Directory containing the compiled WASM bundle")
	bundle := fs.Bool("bundle", cfg.Bundle, "Serve an esbuild bundle of the harness entry at /bundle.js")
	bundleEntry := fs.String("bundle-entry", cfg.BundleEntry, "Harness entry script, relative to the asset root")
	_ = fs.Parse(args)

	cfg.Host = *host
	cfg.Port = *port
	cfg.AssetRoot = *assetRoot
	cfg.ModuleRoot = *moduleRoot
	cfg.Bundle = *bundle
	cfg.BundleEntry = *bundleEntry

	cfg.resolve()
	cfg.validate()
	return cfg
}

// resolve makes the two roots absolute. The module root defaults to the
// pkg/ directory two levels above the asset root.
func (c *Config) resolve() {
	if abs, err := filepath.Abs(c.AssetRoot); err == nil {
		c.AssetRoot = abs
	}
	if c.ModuleRoot == "" {
		c.ModuleRoot = filepath.Join(c.AssetRoot, "..", "..", "pkg")
	}
	if abs, err := filepath.Abs(c.ModuleRoot); err == nil {
		c.ModuleRoot = abs
	}
}

// validate clamps values to reasonable bounds.
func (c *Config) validate() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if !strings.HasPrefix(c.IndexPage, "/") {
		c.IndexPage = "/" + c.IndexPage
	}
	if !strings.HasPrefix(c.PkgPrefix, "/") {
		c.PkgPrefix = "/" + c.PkgPrefix
	}
	if !strings.HasSuffix(c.PkgPrefix, "/") {
		c.PkgPrefix += "/"
	}
	if c.DebounceDuration < 10*time.Millisecond {
		c.DebounceDuration = 10 * time.Millisecond
	}
	if c.DebounceDuration > 5*time.Second {
		c.DebounceDuration = 5 * time.Second
	}
	if c.ShutdownTimeout < time.Second {
		c.ShutdownTimeout = time.Second
	}
	if c.ShutdownTimeout > 60*time.Second {
		c.ShutdownTimeout = 60 * time.Second
	}
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
