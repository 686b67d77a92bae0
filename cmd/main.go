// Package main is the production entry point for the barviz visualizer.
//
// barviz plays an audio file while animating one bar per frequency band, each
// bar following the precomputed spectrogram of the track.
//
// Build:
//
//	go build -o build/barviz ./cmd
//
// Run:
//
//	./build/barviz [flags] [audio-file]
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tejashwikalptaru/barviz/internal/app"
	"github.com/tejashwikalptaru/barviz/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "barviz: %v\n", err)
		return 2
	}

	if settings.ShowVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return 0
	}

	// Create the application with dependency injection
	application, err := app.NewApplication(app.DefaultConfig(settings))
	if err != nil {
		log.Printf("Failed to create application: %v", err)
		return 1
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window is closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
		return 1
	}
	return 0
}
