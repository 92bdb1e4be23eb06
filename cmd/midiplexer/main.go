// midiplexer routes MIDI signals from controllers to client devices.
//
// Controllers are learned signal by signal. In trigger mode a signal toggles
// the tracks mapped to it; in scene mode it activates a scene, starting the
// scene's tracks and stopping everything else. Devices, tracks, scenes and
// signal maps persist in a JSON routing file; the HTTP API edits them live.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
