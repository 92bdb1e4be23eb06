package midi

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind names a MIDI message type.
type Kind string

// Supported message kinds.
const (
	NoteOff       Kind = "note_off"
	NoteOn        Kind = "note_on"
	PolyTouch     Kind = "polytouch"
	ControlChange Kind = "control_change"
	ProgramChange Kind = "program_change"
	Aftertouch    Kind = "aftertouch"
	Pitchwheel    Kind = "pitchwheel"
	Sysex         Kind = "sysex"
	QuarterFrame  Kind = "quarter_frame"
	SongPos       Kind = "songpos"
	SongSelect    Kind = "song_select"
	TuneRequest   Kind = "tune_request"
	Clock         Kind = "clock"
	Start         Kind = "start"
	Continue      Kind = "continue"
	Stop          Kind = "stop"
	Reset         Kind = "reset"
)

// Field names accepted by Compose.
const (
	FieldChannel    = "channel"
	FieldNote       = "note"
	FieldVelocity   = "velocity"
	FieldValue      = "value"
	FieldControl    = "control"
	FieldProgram    = "program"
	FieldPitch      = "pitch"
	FieldData       = "data"
	FieldFrameType  = "frame_type"
	FieldFrameValue = "frame_value"
	FieldPos        = "pos"
	FieldSong       = "song"
)

// DefaultVelocity is used when a note message does not name one.
const DefaultVelocity = 64

type kindSpec struct {
	status byte
	fields []string
}

var kinds = map[Kind]kindSpec{
	NoteOff:       {0x80, []string{FieldChannel, FieldNote, FieldVelocity}},
	NoteOn:        {0x90, []string{FieldChannel, FieldNote, FieldVelocity}},
	PolyTouch:     {0xA0, []string{FieldChannel, FieldNote, FieldValue}},
	ControlChange: {0xB0, []string{FieldChannel, FieldControl, FieldValue}},
	ProgramChange: {0xC0, []string{FieldChannel, FieldProgram}},
	Aftertouch:    {0xD0, []string{FieldChannel, FieldValue}},
	Pitchwheel:    {0xE0, []string{FieldChannel, FieldPitch}},
	Sysex:         {0xF0, []string{FieldData}},
	QuarterFrame:  {0xF1, []string{FieldFrameType, FieldFrameValue}},
	SongPos:       {0xF2, []string{FieldPos}},
	SongSelect:    {0xF3, []string{FieldSong}},
	TuneRequest:   {0xF6, nil},
	Clock:         {0xF8, nil},
	Start:         {0xFA, nil},
	Continue:      {0xFB, nil},
	Stop:          {0xFC, nil},
	Reset:         {0xFF, nil},
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// FieldNames returns the fields a kind carries, in wire order.
func (k Kind) FieldNames() []string {
	ks, ok := kinds[k]
	if !ok {
		return nil
	}
	out := make([]string, len(ks.fields))
	copy(out, ks.fields)
	return out
}

// Kinds returns every supported kind, sorted by name.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fields is a loosely typed set of message fields as stored in the routing
// document. Numbers may be any Go integer or float type (JSON decoding yields
// float64); data is a list of bytes.
type Fields map[string]any

// Clone returns a shallow copy of f. A nil map clones to an empty one.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Message is one decoded MIDI message. Only the fields relevant to Kind are
// meaningful.
type Message struct {
	Kind       Kind
	Channel    int
	Note       int
	Velocity   int
	Value      int
	Control    int
	Program    int
	Pitch      int
	Data       []byte
	FrameType  int
	FrameValue int
	Pos        int
	Song       int
}

// Compose builds a message of the given kind. Layers are applied in order, so
// later layers override earlier ones. Fields the kind needs but no layer sets
// take their defaults (velocity 64, everything else zero). Fields the kind
// does not use are ignored.
func Compose(kind Kind, layers ...Fields) (Message, error) {
	ks, ok := kinds[kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	msg := Message{Kind: kind, Velocity: DefaultVelocity}
	for _, name := range ks.fields {
		var (
			raw   any
			found bool
		)
		for _, layer := range layers {
			if v, ok := layer[name]; ok {
				raw, found = v, true
			}
		}
		if !found {
			continue
		}
		if err := msg.set(name, raw); err != nil {
			return Message{}, err
		}
	}

	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (m *Message) set(name string, raw any) error {
	if name == FieldData {
		data, err := toBytes(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidField, name, err)
		}
		m.Data = data
		return nil
	}

	v, err := toInt(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidField, name, err)
	}
	switch name {
	case FieldChannel:
		m.Channel = v
	case FieldNote:
		m.Note = v
	case FieldVelocity:
		m.Velocity = v
	case FieldValue:
		m.Value = v
	case FieldControl:
		m.Control = v
	case FieldProgram:
		m.Program = v
	case FieldPitch:
		m.Pitch = v
	case FieldFrameType:
		m.FrameType = v
	case FieldFrameValue:
		m.FrameValue = v
	case FieldPos:
		m.Pos = v
	case FieldSong:
		m.Song = v
	}
	return nil
}

// Validate checks every field the kind uses against its MIDI range.
func (m Message) Validate() error {
	ks, ok := kinds[m.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	for _, name := range ks.fields {
		var v, lo, hi int
		switch name {
		case FieldChannel:
			v, lo, hi = m.Channel, 0, 15
		case FieldNote:
			v, lo, hi = m.Note, 0, 127
		case FieldVelocity:
			v, lo, hi = m.Velocity, 0, 127
		case FieldValue:
			v, lo, hi = m.Value, 0, 127
		case FieldControl:
			v, lo, hi = m.Control, 0, 127
		case FieldProgram:
			v, lo, hi = m.Program, 0, 127
		case FieldPitch:
			v, lo, hi = m.Pitch, -8192, 8191
		case FieldFrameType:
			v, lo, hi = m.FrameType, 0, 7
		case FieldFrameValue:
			v, lo, hi = m.FrameValue, 0, 15
		case FieldPos:
			v, lo, hi = m.Pos, 0, 16383
		case FieldSong:
			v, lo, hi = m.Song, 0, 127
		case FieldData:
			for _, b := range m.Data {
				if b > 0x7F {
					return fmt.Errorf("%w: data byte 0x%02X", ErrOutOfRange, b)
				}
			}
			continue
		}
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s=%d not in [%d, %d]", ErrOutOfRange, name, v, lo, hi)
		}
	}
	return nil
}

// Fields returns the message's relevant fields as a map, suitable for the
// routing document.
func (m Message) Fields() Fields {
	ks, ok := kinds[m.Kind]
	if !ok {
		return Fields{}
	}
	out := make(Fields, len(ks.fields))
	for _, name := range ks.fields {
		switch name {
		case FieldChannel:
			out[name] = m.Channel
		case FieldNote:
			out[name] = m.Note
		case FieldVelocity:
			out[name] = m.Velocity
		case FieldValue:
			out[name] = m.Value
		case FieldControl:
			out[name] = m.Control
		case FieldProgram:
			out[name] = m.Program
		case FieldPitch:
			out[name] = m.Pitch
		case FieldData:
			data := make([]int, len(m.Data))
			for i, b := range m.Data {
				data[i] = int(b)
			}
			out[name] = data
		case FieldFrameType:
			out[name] = m.FrameType
		case FieldFrameValue:
			out[name] = m.FrameValue
		case FieldPos:
			out[name] = m.Pos
		case FieldSong:
			out[name] = m.Song
		}
	}
	return out
}

// String renders the message for logs.
func (m Message) String() string {
	return fmt.Sprintf("%s %s", m.Kind, m.Hex())
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func toBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case []int:
		out := make([]byte, len(v))
		for i, n := range v {
			if n < 0 || n > 0x7F {
				return nil, fmt.Errorf("byte %d out of range", n)
			}
			out[i] = byte(n)
		}
		return out, nil
	case []any:
		out := make([]byte, len(v))
		for i, item := range v {
			n, err := toInt(item)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > 0x7F {
				return nil, fmt.Errorf("byte %d out of range", n)
			}
			out[i] = byte(n)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}
