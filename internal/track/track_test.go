package track

import (
	"errors"
	"testing"

	"github.com/nerrad567/midiplexer/internal/midi"
)

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(msg midi.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg.Hex())
	return nil
}

func noteTrack(t *testing.T, armed bool) *Track {
	t.Helper()
	tr, err := New("t0", Config{
		Type:    midi.NoteOn,
		Data:    midi.Fields{"note": 60, "velocity": 100},
		OffData: midi.Fields{"velocity": 0},
	}, armed)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestTrigger_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		start       bool
		desired     State
		wantSent    bool
		wantPlaying bool
		wantHex     string
	}{
		{"toggle from stopped", false, Toggle, true, true, "90 3C 64"},
		{"toggle from playing", true, Toggle, true, false, "90 3C 00"},
		{"play from stopped", false, Play, true, true, "90 3C 64"},
		{"play while playing", true, Play, false, true, ""},
		{"stop while playing", true, Stop, true, false, "90 3C 00"},
		{"stop while stopped", false, Stop, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := noteTrack(t, false)
			tr.playing = tt.start
			out := &recordingSender{}

			sent, err := tr.Trigger(tt.desired, out)
			if err != nil {
				t.Fatalf("Trigger() error = %v", err)
			}
			if sent != tt.wantSent {
				t.Errorf("sent = %v, want %v", sent, tt.wantSent)
			}
			if tr.Playing() != tt.wantPlaying {
				t.Errorf("Playing() = %v, want %v", tr.Playing(), tt.wantPlaying)
			}
			if tt.wantSent && (len(out.sent) != 1 || out.sent[0] != tt.wantHex) {
				t.Errorf("sent messages = %v, want [%s]", out.sent, tt.wantHex)
			}
			if !tt.wantSent && len(out.sent) != 0 {
				t.Errorf("sent messages = %v, want none", out.sent)
			}
		})
	}
}

func TestTrigger_OverrideIsOneShot(t *testing.T) {
	tr := noteTrack(t, false)
	out := &recordingSender{}

	if _, err := tr.Trigger(Stop, out); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Trigger(Play, out); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Trigger(Stop, out); err != nil {
		t.Fatal(err)
	}

	// Stop on a stopped track sends nothing; then on, then the off override.
	want := []string{"90 3C 64", "90 3C 00"}
	if len(out.sent) != len(want) {
		t.Fatalf("sent = %v, want %v", out.sent, want)
	}
	for i := range want {
		if out.sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, out.sent[i], want[i])
		}
	}

	cfg := tr.Config()
	if cfg.Data["velocity"] != 100 {
		t.Errorf("default velocity = %v, want 100 after overrides", cfg.Data["velocity"])
	}
}

func TestTrigger_OverridePrecedence(t *testing.T) {
	tr, err := New("pad", Config{
		Type:   midi.ControlChange,
		Data:   midi.Fields{"control": 20, "value": 10},
		OnData: midi.Fields{"value": 127},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	out := &recordingSender{}

	if _, err := tr.Trigger(Play, out); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Trigger(Stop, out); err != nil {
		t.Fatal(err)
	}

	// On uses the override, off falls back to the default value.
	want := []string{"B0 14 7F", "B0 14 0A"}
	for i := range want {
		if out.sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, out.sent[i], want[i])
		}
	}
}

func TestTrigger_ToggleTwiceRestores(t *testing.T) {
	for _, start := range []bool{false, true} {
		tr := noteTrack(t, false)
		tr.playing = start
		out := &recordingSender{}

		for i := 0; i < 2; i++ {
			if _, err := tr.Trigger(Toggle, out); err != nil {
				t.Fatal(err)
			}
		}
		if tr.Playing() != start {
			t.Errorf("start=%v: Playing() = %v after two toggles", start, tr.Playing())
		}
		if len(out.sent) != 2 {
			t.Errorf("start=%v: sent %d messages, want 2", start, len(out.sent))
		}
	}
}

func TestTrigger_Armed(t *testing.T) {
	tr := noteTrack(t, true)
	out := &recordingSender{}

	// Armed: Stop on a stopped track still sends once.
	sent, err := tr.Trigger(Stop, out)
	if err != nil {
		t.Fatal(err)
	}
	if !sent || tr.Armed() {
		t.Errorf("armed Stop: sent=%v armed=%v, want sent and disarmed", sent, tr.Armed())
	}

	sent, _ = tr.Trigger(Stop, out)
	if sent {
		t.Error("second Stop sent after disarm")
	}

	tr.playing = true
	tr.Arm()
	if tr.Playing() {
		t.Error("Arm() should clear playing")
	}
	sent, _ = tr.Trigger(Play, out)
	if !sent || !tr.Playing() {
		t.Errorf("Play after Arm: sent=%v playing=%v", sent, tr.Playing())
	}
}

func TestTrigger_SendError(t *testing.T) {
	tr := noteTrack(t, false)
	boom := errors.New("device gone")

	sent, err := tr.Trigger(Play, &recordingSender{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("Trigger() error = %v, want %v", err, boom)
	}
	if sent || tr.Playing() {
		t.Errorf("failed send changed state: sent=%v playing=%v", sent, tr.Playing())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown kind", Config{Type: "bogus"}},
		{"bad default", Config{Type: midi.NoteOn, Data: midi.Fields{"note": 200}}},
		{"bad on override", Config{Type: midi.NoteOn, OnData: midi.Fields{"velocity": -1}}},
		{"bad off override", Config{Type: midi.ControlChange, OffData: midi.Fields{"value": "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("x", tt.cfg, false); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestState_Opposite(t *testing.T) {
	if Play.Opposite() != Stop || Stop.Opposite() != Play || Toggle.Opposite() != Toggle {
		t.Error("Opposite() mismatch")
	}
	if Play.String() != "play" {
		t.Errorf("Play.String() = %q", Play.String())
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Config{Type: midi.NoteOn, Data: midi.Fields{"note": 1}, OnData: midi.Fields{"velocity": 2}}
	clone := cfg.Clone()
	clone.Data["note"] = 9
	clone.OnData["velocity"] = 9
	if cfg.Data["note"] != 1 || cfg.OnData["velocity"] != 2 {
		t.Error("Clone() shares maps with the original")
	}
	if clone.OffData != nil {
		t.Error("Clone() should keep a nil OffData nil")
	}
}
