package midi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	statusSysexEnd byte = 0xF7
	pitchCenter         = 8192
)

// Bytes encodes m for the wire. The message is assumed valid.
func (m Message) Bytes() []byte {
	ks, ok := kinds[m.Kind]
	if !ok {
		return nil
	}
	status := ks.status
	if status < 0xF0 {
		status |= byte(m.Channel & 0x0F)
	}

	switch m.Kind {
	case NoteOff, NoteOn:
		return []byte{status, byte(m.Note), byte(m.Velocity)}
	case PolyTouch:
		return []byte{status, byte(m.Note), byte(m.Value)}
	case ControlChange:
		return []byte{status, byte(m.Control), byte(m.Value)}
	case ProgramChange:
		return []byte{status, byte(m.Program)}
	case Aftertouch:
		return []byte{status, byte(m.Value)}
	case Pitchwheel:
		v := m.Pitch + pitchCenter
		return []byte{status, byte(v & 0x7F), byte(v >> 7 & 0x7F)}
	case Sysex:
		out := make([]byte, 0, len(m.Data)+2)
		out = append(out, status)
		out = append(out, m.Data...)
		return append(out, statusSysexEnd)
	case QuarterFrame:
		return []byte{status, byte(m.FrameType<<4 | m.FrameValue&0x0F)}
	case SongPos:
		return []byte{status, byte(m.Pos & 0x7F), byte(m.Pos >> 7 & 0x7F)}
	case SongSelect:
		return []byte{status, byte(m.Song)}
	default:
		return []byte{status}
	}
}

// Hex returns the upper-case, space-separated hex encoding of the message
// bytes. It is the signature a controller's signal map is keyed by.
func (m Message) Hex() string {
	return FormatHex(m.Bytes())
}

// FormatHex renders raw bytes the same way Hex does.
func FormatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}

// ParseHex decodes a signature produced by Hex back into a message.
// Whitespace between bytes is optional.
func ParseHex(s string) (Message, error) {
	raw, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return Decode(raw)
}

// Decode parses exactly one complete message from b.
func Decode(b []byte) (Message, error) {
	var p Parser
	var out []Message
	for _, c := range b {
		if msg, ok := p.Feed(c); ok {
			out = append(out, msg)
		}
	}
	if len(out) != 1 || p.pending() {
		return Message{}, fmt.Errorf("%w: % X", ErrInvalidMessage, b)
	}
	return out[0], nil
}
