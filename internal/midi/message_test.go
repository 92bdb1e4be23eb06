package midi

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCompose_Defaults(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want string
	}{
		{"note_on uses default velocity", NoteOn, "90 00 40"},
		{"note_off uses default velocity", NoteOff, "80 00 40"},
		{"control_change zero", ControlChange, "B0 00 00"},
		{"program_change zero", ProgramChange, "C0 00"},
		{"aftertouch zero", Aftertouch, "D0 00"},
		{"pitchwheel centre", Pitchwheel, "E0 00 40"},
		{"sysex empty", Sysex, "F0 F7"},
		{"quarter_frame zero", QuarterFrame, "F1 00"},
		{"songpos zero", SongPos, "F2 00 00"},
		{"song_select zero", SongSelect, "F3 00"},
		{"tune_request", TuneRequest, "F6"},
		{"clock", Clock, "F8"},
		{"start", Start, "FA"},
		{"continue", Continue, "FB"},
		{"stop", Stop, "FC"},
		{"reset", Reset, "FF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Compose(tt.kind)
			if err != nil {
				t.Fatalf("Compose(%s) error = %v", tt.kind, err)
			}
			if got := msg.Hex(); got != tt.want {
				t.Errorf("Compose(%s).Hex() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestCompose_LayerPrecedence(t *testing.T) {
	defaults := Fields{"channel": 1, "note": 60}
	on := Fields{"velocity": 100}
	override := Fields{"note": 62}

	msg, err := Compose(NoteOn, defaults, on, override)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if msg.Channel != 1 {
		t.Errorf("Channel = %d, want 1", msg.Channel)
	}
	if msg.Note != 62 {
		t.Errorf("Note = %d, want 62", msg.Note)
	}
	if msg.Velocity != 100 {
		t.Errorf("Velocity = %d, want 100", msg.Velocity)
	}
	if got := msg.Hex(); got != "91 3E 64" {
		t.Errorf("Hex() = %q, want %q", got, "91 3E 64")
	}
	// Layers are not modified.
	if defaults["note"] != 60 {
		t.Errorf("defaults[note] = %v, want 60", defaults["note"])
	}
}

func TestCompose_IgnoresIrrelevantFields(t *testing.T) {
	msg, err := Compose(ProgramChange, Fields{"program": 5, "velocity": 999, "note": -4})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got := msg.Hex(); got != "C0 05" {
		t.Errorf("Hex() = %q, want %q", got, "C0 05")
	}
}

func TestCompose_JSONNumbers(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"control": 20, "value": 127, "channel": 0}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msg, err := Compose(ControlChange, f)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got := msg.Hex(); got != "B0 14 7F" {
		t.Errorf("Hex() = %q, want %q", got, "B0 14 7F")
	}
}

func TestCompose_SysexData(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"data": [1, 2, 3]}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msg, err := Compose(Sysex, f)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got := msg.Hex(); got != "F0 01 02 03 F7" {
		t.Errorf("Hex() = %q, want %q", got, "F0 01 02 03 F7")
	}
}

func TestCompose_Errors(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		fields  Fields
		wantErr error
	}{
		{"unknown kind", Kind("bogus"), nil, ErrUnknownKind},
		{"channel too high", NoteOn, Fields{"channel": 16}, ErrOutOfRange},
		{"note negative", NoteOn, Fields{"note": -1}, ErrOutOfRange},
		{"pitch too low", Pitchwheel, Fields{"pitch": -8193}, ErrOutOfRange},
		{"fractional value", ControlChange, Fields{"value": 1.5}, ErrInvalidField},
		{"string value", ControlChange, Fields{"value": "loud"}, ErrInvalidField},
		{"sysex byte too large", Sysex, Fields{"data": []any{200.0}}, ErrInvalidField},
		{"frame type too large", QuarterFrame, Fields{"frame_type": 8}, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(tt.kind, tt.fields)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compose() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessage_Fields(t *testing.T) {
	msg, err := Compose(ControlChange, Fields{"channel": 2, "control": 7, "value": 90})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	f := msg.Fields()
	if len(f) != 3 {
		t.Fatalf("len(Fields()) = %d, want 3", len(f))
	}

	again, err := Compose(ControlChange, f)
	if err != nil {
		t.Fatalf("Compose(Fields()) error = %v", err)
	}
	if again.Hex() != msg.Hex() {
		t.Errorf("Compose(Fields()).Hex() = %q, want %q", again.Hex(), msg.Hex())
	}
}

func TestKinds(t *testing.T) {
	got := Kinds()
	if len(got) != 17 {
		t.Fatalf("len(Kinds()) = %d, want 17", len(got))
	}
	for _, k := range got {
		if !k.Valid() {
			t.Errorf("%s.Valid() = false", k)
		}
	}
	if Kind("active_sensing").Valid() {
		t.Error("active_sensing should not be a composable kind")
	}
	if names := NoteOn.FieldNames(); len(names) != 3 || names[2] != FieldVelocity {
		t.Errorf("NoteOn.FieldNames() = %v", names)
	}
}
