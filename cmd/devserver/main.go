package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"

	"github.com/sockudo/devserver/internal/config"
	"github.com/sockudo/devserver/internal/preflight"
	"github.com/sockudo/devserver/internal/server"
)

func main() {
	cfg := config.Load(os.Args[1:])

	if !preflight.Check(cfg, os.Stdin, os.Stdout) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, afero.NewOsFs())

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("🚀 Test Server Started!")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("📍 Server running at: http://%s/\n", cfg.Addr())
	fmt.Printf("📄 Test page: http://%s%s\n", cfg.Addr(), cfg.IndexPage)
	fmt.Println("   (Auto-reload enabled via /events)")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop the server")
	fmt.Println(strings.Repeat("=", 60))

	if err := srv.Run(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("\n✅ Server stopped.")
}
