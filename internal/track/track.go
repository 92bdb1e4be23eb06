// Package track implements a client's stateful output units.
//
// A Track remembers whether it is playing and knows how to compose the
// message for each transition from its default fields plus an optional
// on or off override. Overrides apply to one message only.
package track

import (
	"fmt"

	"github.com/nerrad567/midiplexer/internal/midi"
)

// State is the desired outcome of a trigger.
type State int

const (
	// Toggle flips the playing flag and always sends.
	Toggle State = iota
	// Play sends only when the track is stopped.
	Play
	// Stop sends only when the track is playing.
	Stop
)

func (s State) String() string {
	switch s {
	case Toggle:
		return "toggle"
	case Play:
		return "play"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Opposite returns Stop for Play and Play for Stop. Toggle has no opposite.
func (s State) Opposite() State {
	switch s {
	case Play:
		return Stop
	case Stop:
		return Play
	default:
		return s
	}
}

// Config is the persisted definition of a track.
type Config struct {
	Type    midi.Kind   `json:"type"`
	Data    midi.Fields `json:"data"`
	OnData  midi.Fields `json:"on_data,omitempty"`
	OffData midi.Fields `json:"off_data,omitempty"`
}

// Validate checks that every transition composes a valid message.
func (c Config) Validate() error {
	for _, override := range []midi.Fields{nil, c.OnData, c.OffData} {
		if _, err := midi.Compose(c.Type, c.Data, override); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Clone returns a copy that shares no maps with c.
func (c Config) Clone() Config {
	out := Config{Type: c.Type, Data: c.Data.Clone()}
	if c.OnData != nil {
		out.OnData = c.OnData.Clone()
	}
	if c.OffData != nil {
		out.OffData = c.OffData.Clone()
	}
	return out
}

// Sender delivers a composed message to a device.
type Sender interface {
	Send(msg midi.Message) error
}

// Track is owned by exactly one client worker and is not safe for
// concurrent use.
type Track struct {
	label   string
	cfg     Config
	playing bool
	armed   bool
}

// New creates a stopped track. Armed tracks send their next Play or Stop
// message even when the state would not change.
func New(label string, cfg Config, armed bool) (*Track, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("track %q: %w", label, err)
	}
	return &Track{label: label, cfg: cfg.Clone(), armed: armed}, nil
}

// Label returns the track's name within its client.
func (t *Track) Label() string { return t.label }

// Kind returns the message kind the track sends.
func (t *Track) Kind() midi.Kind { return t.cfg.Type }

// Playing reports the believed device state.
func (t *Track) Playing() bool { return t.playing }

// Armed reports whether the next Play or Stop is forced.
func (t *Track) Armed() bool { return t.armed }

// Config returns a copy of the stored definition.
func (t *Track) Config() Config { return t.cfg.Clone() }

// Arm forgets the playing state and forces the next Play or Stop to send.
func (t *Track) Arm() {
	t.playing = false
	t.armed = true
}

// Message composes the message for entering the given playing state.
func (t *Track) Message(playing bool) (midi.Message, error) {
	override := t.cfg.OffData
	if playing {
		override = t.cfg.OnData
	}
	msg, err := midi.Compose(t.cfg.Type, t.cfg.Data, override)
	if err != nil {
		return midi.Message{}, fmt.Errorf("track %q: %w", t.label, err)
	}
	return msg, nil
}

// Trigger drives the track toward desired, sending through out when a
// message is due. It reports whether a message was sent. On a send error
// the playing state is left unchanged.
func (t *Track) Trigger(desired State, out Sender) (bool, error) {
	var target bool
	switch desired {
	case Toggle:
		target = !t.playing
	case Play:
		if t.playing && !t.armed {
			return false, nil
		}
		target = true
	case Stop:
		if !t.playing && !t.armed {
			return false, nil
		}
		target = false
	default:
		return false, fmt.Errorf("track %q: unknown state %v", t.label, desired)
	}

	msg, err := t.Message(target)
	if err != nil {
		return false, err
	}
	if err := out.Send(msg); err != nil {
		return false, err
	}

	t.playing = target
	t.armed = false
	return true, nil
}
