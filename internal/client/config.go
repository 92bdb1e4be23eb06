package client

import (
	"fmt"
	"sort"

	"github.com/nerrad567/midiplexer/internal/track"
)

// Config is the persisted definition of a client.
type Config struct {
	Name         string                  `json:"name"`
	Type         string                  `json:"type"`
	ToggleRecord bool                    `json:"toggle_record"`
	Tracks       map[string]track.Config `json:"tracks"`
}

// Labels returns the track labels sorted, which is the order tracks are
// created in when a client is built from Config.
func (c Config) Labels() []string {
	labels := make([]string, 0, len(c.Tracks))
	for label := range c.Tracks {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Validate checks the name and every track definition.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("client: name is required")
	}
	for _, label := range c.Labels() {
		if err := c.Tracks[label].Validate(); err != nil {
			return fmt.Errorf("client %q track %q: %w", c.Name, label, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Tracks = make(map[string]track.Config, len(c.Tracks))
	for label, tc := range c.Tracks {
		out.Tracks[label] = tc.Clone()
	}
	return out
}
