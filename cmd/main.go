// Package main is the production entry point for the SIDTune player.
//
// SIDTune drives a chip synthesis engine, streams its mixed output to the default
// audio device and polls a visualization snapshot alongside it.
//
// Build:
//
//	go build -o build/sidtune ./cmd
//
// Run (Ctrl-C to stop):
//
//	./build/sidtune
//
// Set SIDTUNE_HEADLESS=1 to run without an audio device.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tejashwikalptaru/sidtune/internal/app"
)

func main() {
	// Create default configuration
	config := app.DefaultConfig()
	config.UseHeadlessAudio = os.Getenv("SIDTUNE_HEADLESS") != ""

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run blocks until interrupted
	if err := application.Run(ctx); err != nil {
		log.Printf("Application error: %v", err)
	}

	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		os.Exit(1)
	}
}
