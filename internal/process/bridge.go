package process

import (
	"fmt"
	"os"

	"github.com/nerrad567/midiplexer/internal/infrastructure/config"
)

// BridgeName is the process name used for the MIDI bridge.
const BridgeName = "midi-bridge"

// FromBridge builds a Config for the bridge daemon. The bridge counts as
// ready once every path in devices exists.
func FromBridge(cfg config.BridgeConfig, devices []string) Config {
	return Config{
		Name:               BridgeName,
		Binary:             cfg.Binary,
		Args:               append([]string(nil), cfg.Args...),
		RestartOnFailure:   cfg.RestartOnFailure,
		RestartDelay:       cfg.RestartDelay,
		MaxRestartAttempts: cfg.MaxRestartAttempts,
		Ready:              DevicesReady(devices),
		ReadyTimeout:       cfg.StartupDelay,
	}
}

// DevicesReady returns a readiness check that fails while any path is
// missing.
func DevicesReady(paths []string) func() error {
	paths = append([]string(nil), paths...)
	return func() error {
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				return fmt.Errorf("device %s: %w", p, err)
			}
		}
		return nil
	}
}
