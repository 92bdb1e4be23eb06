package midi

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestParser_Stream(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []string
	}{
		{
			name:  "single control change",
			input: []byte{0xB0, 0x14, 0x7F},
			want:  []string{"B0 14 7F"},
		},
		{
			name:  "running status",
			input: []byte{0x90, 0x3C, 0x40, 0x3E, 0x40},
			want:  []string{"90 3C 40", "90 3E 40"},
		},
		{
			name:  "realtime inside message",
			input: []byte{0x90, 0x3C, 0xF8, 0x40},
			want:  []string{"F8", "90 3C 40"},
		},
		{
			name:  "active sensing dropped",
			input: []byte{0xFE, 0xC0, 0x05, 0xFE},
			want:  []string{"C0 05"},
		},
		{
			name:  "sysex",
			input: []byte{0xF0, 0x7E, 0x00, 0x06, 0x01, 0xF7},
			want:  []string{"F0 7E 00 06 01 F7"},
		},
		{
			name:  "stray data bytes dropped",
			input: []byte{0x10, 0x20, 0xC1, 0x02},
			want:  []string{"C1 02"},
		},
		{
			name:  "system common cancels running status",
			input: []byte{0xB0, 0x01, 0x02, 0xF3, 0x05, 0x03, 0x04},
			want:  []string{"B0 01 02", "F3 05"},
		},
		{
			name:  "pitchwheel",
			input: []byte{0xE2, 0x7F, 0x7F},
			want:  []string{"E2 7F 7F"},
		},
		{
			name:  "tune request",
			input: []byte{0xF6},
			want:  []string{"F6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parser
			msgs := p.Parse(tt.input)
			if len(msgs) != len(tt.want) {
				t.Fatalf("Parse() returned %d messages, want %d (%v)", len(msgs), len(tt.want), msgs)
			}
			for i, m := range msgs {
				if got := m.Hex(); got != tt.want[i] {
					t.Errorf("message %d = %q, want %q", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestParser_PitchwheelValue(t *testing.T) {
	var p Parser
	msgs := p.Parse([]byte{0xE0, 0x7F, 0x7F})
	if len(msgs) != 1 {
		t.Fatalf("Parse() returned %d messages, want 1", len(msgs))
	}
	if msgs[0].Pitch != 8191 {
		t.Errorf("Pitch = %d, want 8191", msgs[0].Pitch)
	}
}

func TestParseHex(t *testing.T) {
	msg, err := ParseHex("b0 14 7f")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if msg.Kind != ControlChange || msg.Control != 20 || msg.Value != 127 {
		t.Errorf("ParseHex() = %+v", msg)
	}

	for _, bad := range []string{"", "zz", "B0 14", "B0 14 7F 01", "F0 01"} {
		if _, err := ParseHex(bad); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("ParseHex(%q) error = %v, want ErrInvalidMessage", bad, err)
		}
	}
}

func TestEncodeDecode_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom(Kinds()).Draw(t, "kind")
		fields := Fields{
			FieldChannel:    rapid.IntRange(0, 15).Draw(t, "channel"),
			FieldNote:       rapid.IntRange(0, 127).Draw(t, "note"),
			FieldVelocity:   rapid.IntRange(0, 127).Draw(t, "velocity"),
			FieldValue:      rapid.IntRange(0, 127).Draw(t, "value"),
			FieldControl:    rapid.IntRange(0, 127).Draw(t, "control"),
			FieldProgram:    rapid.IntRange(0, 127).Draw(t, "program"),
			FieldPitch:      rapid.IntRange(-8192, 8191).Draw(t, "pitch"),
			FieldData:       rapid.SliceOfN(rapid.IntRange(0, 127), 0, 8).Draw(t, "data"),
			FieldFrameType:  rapid.IntRange(0, 7).Draw(t, "frame_type"),
			FieldFrameValue: rapid.IntRange(0, 15).Draw(t, "frame_value"),
			FieldPos:        rapid.IntRange(0, 16383).Draw(t, "pos"),
			FieldSong:       rapid.IntRange(0, 127).Draw(t, "song"),
		}

		msg, err := Compose(kind, fields)
		if err != nil {
			t.Fatalf("Compose(%s) error = %v", kind, err)
		}

		decoded, err := Decode(msg.Bytes())
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", msg.Hex(), err)
		}
		if decoded.Kind != kind {
			t.Fatalf("decoded kind = %s, want %s", decoded.Kind, kind)
		}
		if decoded.Hex() != msg.Hex() {
			t.Fatalf("decoded hex = %q, want %q", decoded.Hex(), msg.Hex())
		}
	})
}
