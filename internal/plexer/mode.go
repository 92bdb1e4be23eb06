package plexer

import "fmt"

// Mode selects which table a signal is looked up in.
type Mode int

const (
	// Trigger toggles the tracks mapped to a signal.
	Trigger Mode = iota
	// Scene activates the scene mapped to a signal.
	Scene
)

func (m Mode) String() string {
	switch m {
	case Trigger:
		return "trigger"
	case Scene:
		return "scene"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Trigger {
		return Scene
	}
	return Trigger
}

// MarshalText encodes the mode as its name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "trigger":
		*m = Trigger
	case "scene":
		*m = Scene
	default:
		return fmt.Errorf("plexer: unknown mode %q", b)
	}
	return nil
}

// Status is the snapshot published when the plexer is idle.
type Status struct {
	Mode       Mode   `json:"mode"`
	ConfigPath string `json:"config_path"`
	Dirty      bool   `json:"dirty"`
}
