package plexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/midi"
	"github.com/nerrad567/midiplexer/internal/port"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

const testTimeout = 2 * time.Second

// eventLog collects activity from the plexer and its workers.
type eventLog struct {
	mu     sync.Mutex
	events []activity.Event
}

func (l *eventLog) Observe(e activity.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind activity.Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	t      *testing.T
	bus    *port.Virtual
	p      *Plexer
	path   string
	events *eventLog
}

func noteTrack(note int) track.Config {
	return track.Config{
		Type:    midi.NoteOn,
		Data:    midi.Fields{"note": note, "velocity": 100},
		OffData: midi.Fields{"velocity": 0},
	}
}

func padMessage(note int) midi.Message {
	msg, err := midi.Compose(midi.NoteOn, midi.Fields{"note": note, "velocity": 127})
	if err != nil {
		panic(err)
	}
	return msg
}

// stageDocument has two clients, one controller with three signals, two
// scenes and a mode switch.
func stageDocument() *routing.Document {
	doc := routing.NewDocument()
	doc.Clients = []client.Config{
		{Name: "A", Type: port.TypeVirtual, Tracks: map[string]track.Config{"a1": noteTrack(60), "a2": noteTrack(61)}},
		{Name: "B", Type: port.TypeVirtual, Tracks: map[string]track.Config{"b1": noteTrack(70), "b2": noteTrack(71)}},
	}
	doc.Controllers = []controller.Config{{
		Name: "pads",
		Type: port.TypeVirtual,
		SignalMap: controller.SignalMap{
			padMessage(1).Hex(): "s1",
			padMessage(2).Hex(): "s2",
			padMessage(3).Hex(): "mode",
		},
	}}
	doc.Scenes["s1"] = routing.TrackList{"A": {"a1"}, "B": {"b2"}}
	doc.Scenes["s2"] = routing.TrackList{"A": {"a2"}}
	doc.TriggerMap["pads"] = map[string]routing.TrackList{
		"s1":   {"A": {"a1"}, "B": {"b1"}},
		"mode": {"A": {"a2"}},
	}
	doc.SceneMap["pads"] = map[string]string{"s1": "s1", "s2": "s2"}
	doc.ModeSwitch["pads"] = []string{"mode"}
	return doc
}

// startPlexer writes doc (when non-nil) to a temp routing file and runs a
// plexer over a virtual bus until the test ends.
func startPlexer(t *testing.T, doc *routing.Document) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		bus:    port.NewVirtual(),
		path:   filepath.Join(t.TempDir(), "routing.json"),
		events: &eventLog{},
	}
	if doc != nil {
		if err := routing.Save(h.path, doc); err != nil {
			t.Fatalf("routing.Save() error = %v", err)
		}
	}

	reg := port.NewRegistry()
	reg.Register(port.TypeVirtual, h.bus)

	p, err := New(Options{
		Opener:       reg,
		Observer:     h.events,
		RoutingFile:  h.path,
		PollInterval: time.Millisecond,
		IdleInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.p = p

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(testTimeout):
			t.Error("plexer did not stop")
		}
	})

	// The first answered query means every device from the file is open.
	if _, err := p.CurrentStatus(h.ctx()); err != nil {
		t.Fatalf("CurrentStatus() error = %v", err)
	}
	return h
}

func (h *harness) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	h.t.Cleanup(cancel)
	return ctx
}

// listen opens an input on a client's bus so the test sees what it sends.
func (h *harness) listen(name string) port.Input {
	h.t.Helper()
	in, err := h.bus.OpenInput(name)
	if err != nil {
		h.t.Fatalf("OpenInput(%q) error = %v", name, err)
	}
	h.t.Cleanup(func() { in.Close() }) //nolint:errcheck // test cleanup
	return in
}

func (h *harness) press(note int) {
	h.t.Helper()
	if n := h.bus.Inject("pads", padMessage(note)); n == 0 {
		h.t.Fatalf("no controller listening for note %d", note)
	}
}

func (h *harness) setMode(want Mode) {
	h.t.Helper()
	h.waitFor(func() bool {
		s, err := h.p.CurrentStatus(h.ctx())
		return err == nil && s.Mode == want
	})
}

func (h *harness) waitFor(cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	h.t.Fatal("condition not met before deadline")
}

func expectMessages(t *testing.T, in port.Input, want ...string) {
	t.Helper()
	for i, w := range want {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		msg, err := in.Receive(ctx)
		cancel()
		if err != nil {
			t.Fatalf("%s message %d: Receive() error = %v, want %q", in.Name(), i, err, w)
		}
		if got := msg.Hex(); got != w {
			t.Fatalf("%s message %d = %q, want %q", in.Name(), i, got, w)
		}
	}
}

func expectQuiet(t *testing.T, in port.Input) {
	t.Helper()
	msg, ok, err := in.Poll(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if ok {
		t.Fatalf("%s sent unexpected %q", in.Name(), msg.Hex())
	}
}

func TestNew_RequiresOpener(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New() without opener succeeded")
	}
}

func TestNew_MalformedRoutingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := New(Options{Opener: port.NewRegistry(), RoutingFile: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(p.initial.Clients) != 0 || len(p.initial.Scenes) != 0 {
		t.Errorf("initial document = %+v, want empty", p.initial)
	}
}

func TestTriggerMode_TogglesMappedTracks(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a, b := h.listen("A"), h.listen("B")

	h.press(1)
	expectMessages(t, a, "90 3C 64")
	expectMessages(t, b, "90 46 64")

	h.press(1)
	expectMessages(t, a, "90 3C 00")
	expectMessages(t, b, "90 46 00")
}

func TestTriggerMode_UnmappedSignalIsIgnored(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a := h.listen("A")

	// s2 has no trigger entry.
	h.press(2)
	h.waitFor(func() bool { return h.events.count(activity.KindUnmappedSignal) == 1 })
	expectQuiet(t, a)
}

func TestModeSwitch_TakesPrecedence(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a := h.listen("A")

	// "mode" is also in the trigger map for A/a2; the switch wins.
	h.press(3)
	h.setMode(Scene)
	expectQuiet(t, a)
	if got := h.events.count(activity.KindModeChanged); got != 1 {
		t.Errorf("mode_changed events = %d, want 1", got)
	}

	h.press(3)
	h.setMode(Trigger)
}

func TestSceneMode_ActivatesScenes(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a, b := h.listen("A"), h.listen("B")

	h.press(3)
	h.setMode(Scene)

	h.press(1)
	expectMessages(t, a, "90 3C 64")
	expectMessages(t, b, "90 47 64")

	// B is not in s2 so everything on it stops.
	h.press(2)
	expectMessages(t, a, "90 3D 64", "90 3C 00")
	expectMessages(t, b, "90 47 00")

	h.press(2)
	h.waitFor(func() bool { return h.events.count(activity.KindSceneActivated) == 3 })
	expectQuiet(t, a)
	expectQuiet(t, b)
}

func TestActivateScene(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a, b := h.listen("A"), h.listen("B")

	if err := h.p.ActivateScene(h.ctx(), "s1"); err != nil {
		t.Fatalf("ActivateScene() error = %v", err)
	}
	expectMessages(t, a, "90 3C 64")
	expectMessages(t, b, "90 47 64")

	err := h.p.ActivateScene(h.ctx(), "missing")
	if !errors.Is(err, ErrNoSuchScene) {
		t.Errorf("ActivateScene(missing) error = %v, want ErrNoSuchScene", err)
	}
}

func TestCreateSceneFromCurrent(t *testing.T) {
	h := startPlexer(t, stageDocument())
	a, b := h.listen("A"), h.listen("B")

	h.press(1)
	expectMessages(t, a, "90 3C 64")
	expectMessages(t, b, "90 46 64")

	got, err := h.p.CreateSceneFromCurrent(h.ctx(), "now")
	if err != nil {
		t.Fatalf("CreateSceneFromCurrent() error = %v", err)
	}
	want := routing.TrackList{"A": {"a1"}, "B": {"b1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CreateSceneFromCurrent() = %v, want %v", got, want)
	}

	scenes, err := h.p.Scenes(h.ctx())
	if err != nil {
		t.Fatalf("Scenes() error = %v", err)
	}
	if !reflect.DeepEqual(scenes["now"], want) {
		t.Errorf("scene now = %v, want %v", scenes["now"], want)
	}
}

func TestAddDevices(t *testing.T) {
	h := startPlexer(t, nil)
	ctx := h.ctx()

	if err := h.p.AddClient(ctx, "synth", port.TypeVirtual, false); err != nil {
		t.Fatalf("AddClient() error = %v", err)
	}
	if err := h.p.AddController(ctx, "pads", port.TypeVirtual); err != nil {
		t.Fatalf("AddController() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"duplicate client", func() error { return h.p.AddClient(ctx, "synth", port.TypeVirtual, false) }, ErrDuplicateName},
		{"duplicate controller", func() error { return h.p.AddController(ctx, "pads", port.TypeVirtual) }, ErrDuplicateName},
		{"empty client name", func() error { return h.p.AddClient(ctx, "", port.TypeVirtual, false) }, ErrInvalidArgument},
		{"unknown client type", func() error { return h.p.AddClient(ctx, "x", "bogus", false) }, ErrUnknownType},
		{"unknown controller type", func() error { return h.p.AddController(ctx, "y", "bogus") }, ErrUnknownType},
		{"track on missing client", func() error { return h.p.ClientAddTrack(ctx, "nope", "t", noteTrack(1)) }, ErrNoSuchClient},
		{"invalid track", func() error {
			return h.p.ClientAddTrack(ctx, "synth", "t", track.Config{Type: "bogus"})
		}, track.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	clients, err := h.p.Clients(ctx)
	if err != nil {
		t.Fatalf("Clients() error = %v", err)
	}
	if len(clients) != 1 || clients[0].Name != "synth" || !clients[0].Online {
		t.Errorf("Clients() = %+v, want one online synth", clients)
	}
}

func TestClientAddTrack_ListsInOrder(t *testing.T) {
	h := startPlexer(t, nil)
	ctx := h.ctx()

	if err := h.p.AddClient(ctx, "synth", port.TypeVirtual, false); err != nil {
		t.Fatal(err)
	}
	for i, label := range []string{"lead", "bass", "drums"} {
		if err := h.p.ClientAddTrack(ctx, "synth", label, noteTrack(40+i)); err != nil {
			t.Fatalf("ClientAddTrack(%q) error = %v", label, err)
		}
	}

	tracks, err := h.p.ClientListTracks(ctx, "synth")
	if err != nil {
		t.Fatalf("ClientListTracks() error = %v", err)
	}
	var labels []string
	for _, tr := range tracks {
		labels = append(labels, tr.Label)
	}
	if want := []string{"lead", "bass", "drums"}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestAssignments_ValidateSignals(t *testing.T) {
	h := startPlexer(t, stageDocument())
	ctx := h.ctx()

	if err := h.p.AssignTrack(ctx, "pads", "s2", "B", "b2"); err != nil {
		t.Fatalf("AssignTrack() error = %v", err)
	}
	// Assigning twice does not duplicate the target.
	if err := h.p.AssignTrack(ctx, "pads", "s2", "B", "b2"); err != nil {
		t.Fatalf("AssignTrack() again error = %v", err)
	}
	triggers, err := h.p.TriggerMap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := triggers["pads"]["s2"], (routing.TrackList{"B": {"b2"}}); !reflect.DeepEqual(got, want) {
		t.Errorf("trigger map s2 = %v, want %v", got, want)
	}

	if err := h.p.AssignScene(ctx, "pads", "mode", "s1"); err != nil {
		t.Fatalf("AssignScene() error = %v", err)
	}
	if err := h.p.AssignModeSwitch(ctx, "pads", "s2"); err != nil {
		t.Fatalf("AssignModeSwitch() error = %v", err)
	}
	switches, err := h.p.ModeSwitch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"mode", "s2"}; !reflect.DeepEqual(switches["pads"], want) {
		t.Errorf("mode switch = %v, want %v", switches["pads"], want)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"unknown signal", func() error { return h.p.AssignTrack(ctx, "pads", "nope", "A", "a1") }, controller.ErrNoSuchSignal},
		{"unknown controller", func() error { return h.p.AssignScene(ctx, "ghost", "s1", "s1") }, ErrNoSuchController},
		{"mode switch unknown signal", func() error { return h.p.AssignModeSwitch(ctx, "pads", "nope") }, controller.ErrNoSuchSignal},
		{"empty scene", func() error { return h.p.AssignScene(ctx, "pads", "s1", "") }, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterSignal_LearnsNextMessage(t *testing.T) {
	h := startPlexer(t, stageDocument())
	ctx := h.ctx()

	learned, err := h.p.RegisterSignal(ctx, "pads", "s9")
	if err != nil {
		t.Fatalf("RegisterSignal() error = %v", err)
	}

	// The learner may not hold the port yet; keep pressing until it does.
	var got controller.Learned
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		h.press(9)
		select {
		case got = <-learned:
			break wait
		case <-tick.C:
		case <-ctx.Done():
			t.Fatal("signal was not learned")
		}
	}
	if got.Err != nil || got.Label != "s9" || got.Signature != "90 09 7F" {
		t.Fatalf("learned = %+v, want s9 / 90 09 7F", got)
	}

	if err := h.p.AssignTrack(ctx, "pads", "s9", "A", "a2"); err != nil {
		t.Errorf("AssignTrack(s9) error = %v", err)
	}
	if _, err := h.p.RegisterSignal(ctx, "ghost", "x"); !errors.Is(err, ErrNoSuchController) {
		t.Errorf("RegisterSignal(ghost) error = %v, want ErrNoSuchController", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	h := startPlexer(t, stageDocument())
	ctx := h.ctx()

	if err := h.p.AddClient(ctx, "C", port.TypeVirtual, true); err != nil {
		t.Fatal(err)
	}
	if err := h.p.ClientAddTrack(ctx, "C", "c1", noteTrack(80)); err != nil {
		t.Fatal(err)
	}
	if err := h.p.AddTrackToScene(ctx, "s2", "C", "c1"); err != nil {
		t.Fatal(err)
	}
	if s, _ := h.p.CurrentStatus(ctx); !s.Dirty {
		t.Error("status not dirty after edits")
	}

	other := filepath.Join(t.TempDir(), "saved.json")
	path, err := h.p.Save(ctx, other)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != other {
		t.Errorf("Save() path = %q, want %q", path, other)
	}
	s, _ := h.p.CurrentStatus(ctx)
	if s.Dirty || s.ConfigPath != other {
		t.Errorf("status after save = %+v", s)
	}

	doc, err := routing.Load(other)
	if err != nil {
		t.Fatalf("routing.Load() error = %v", err)
	}
	if len(doc.Clients) != 3 || doc.Clients[2].Name != "C" || !doc.Clients[2].ToggleRecord {
		t.Fatalf("saved clients = %+v", doc.Clients)
	}
	if _, ok := doc.Clients[2].Tracks["c1"]; !ok {
		t.Error("saved client C lacks track c1")
	}
	if got := doc.Scenes["s2"]["C"]; !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("saved scene s2/C = %v", got)
	}

	// Loading the original file drops C again.
	if _, err := h.p.Load(ctx, h.path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	clients, err := h.p.Clients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 2 {
		t.Errorf("clients after load = %+v, want A and B", clients)
	}

	// And loading the saved one brings it back.
	if _, err := h.p.Load(ctx, other); err != nil {
		t.Fatalf("Load(saved) error = %v", err)
	}
	clients, _ = h.p.Clients(ctx)
	if len(clients) != 3 {
		t.Errorf("clients after reload = %+v, want A, B and C", clients)
	}
}

func TestLoad_BadFileKeepsRunningSetup(t *testing.T) {
	h := startPlexer(t, stageDocument())
	ctx := h.ctx()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("[1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.p.Load(ctx, bad); !errors.Is(err, routing.ErrMalformed) {
		t.Errorf("Load(bad) error = %v, want ErrMalformed", err)
	}
	if _, err := h.p.Load(ctx, filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want not exist", err)
	}

	clients, err := h.p.Clients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 2 {
		t.Errorf("clients = %+v, want A and B untouched", clients)
	}

	// The controllers still route.
	a := h.listen("A")
	h.press(1)
	expectMessages(t, a, "90 3C 64")
}

func TestOfflineDevicesAreKept(t *testing.T) {
	doc := stageDocument()
	doc.Clients = append(doc.Clients, client.Config{
		Name:   "D",
		Type:   "bogus",
		Tracks: map[string]track.Config{"d1": noteTrack(90)},
	})
	doc.Scenes["s1"]["D"] = []string{"d1"}
	h := startPlexer(t, doc)
	ctx := h.ctx()

	clients, err := h.p.Clients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 3 || clients[2].Name != "D" || clients[2].Online {
		t.Fatalf("clients = %+v, want offline D last", clients)
	}

	if err := h.p.ClientAddTrack(ctx, "D", "d2", noteTrack(91)); err != nil {
		t.Errorf("ClientAddTrack(offline) error = %v", err)
	}
	if err := h.p.ToggleRecord(ctx, "D", "d1"); !errors.Is(err, ErrOffline) {
		t.Errorf("ToggleRecord(offline) error = %v, want ErrOffline", err)
	}

	// Scenes naming the offline client still activate the rest.
	a := h.listen("A")
	if err := h.p.ActivateScene(ctx, "s1"); err != nil {
		t.Fatalf("ActivateScene() error = %v", err)
	}
	expectMessages(t, a, "90 3C 64")

	if _, err := h.p.Save(ctx, ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	saved, err := routing.Load(h.path)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Clients) != 3 || len(saved.Clients[2].Tracks) != 2 {
		t.Errorf("saved clients = %+v, want D with two tracks", saved.Clients)
	}
}

func TestStatus_LatestWins(t *testing.T) {
	h := startPlexer(t, nil)

	if err := h.p.AddTrackToScene(h.ctx(), "s", "c", "t"); err != nil {
		t.Fatal(err)
	}
	h.waitFor(func() bool {
		select {
		case s := <-h.p.Status():
			return s.Dirty && s.Mode == Trigger && s.ConfigPath == h.path
		default:
			return false
		}
	})

	// Only one snapshot is ever buffered.
	time.Sleep(20 * time.Millisecond)
	if n := len(h.p.Status()); n > 1 {
		t.Errorf("status buffer holds %d snapshots", n)
	}
}

func TestStopped(t *testing.T) {
	reg := port.NewRegistry()
	p, err := New(Options{Opener: reg})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(context.Background(), nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Submit(nil) error = %v, want ErrUnknownCommand", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx) //nolint:errcheck // always nil
		close(done)
	}()
	cancel()
	<-done

	if err := p.AddClient(context.Background(), "x", port.TypeVirtual, false); !errors.Is(err, ErrStopped) {
		t.Errorf("AddClient() after stop error = %v, want ErrStopped", err)
	}
}

func TestAutosaveOnExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.json")
	bus := port.NewVirtual()
	reg := port.NewRegistry()
	reg.Register(port.TypeVirtual, bus)

	p, err := New(Options{Opener: reg, RoutingFile: path, AutosaveOnExit: true, IdleInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx) //nolint:errcheck // always nil
		close(done)
	}()

	qctx, qcancel := context.WithTimeout(context.Background(), testTimeout)
	defer qcancel()
	if err := p.AddClient(qctx, "synth", port.TypeVirtual, false); err != nil {
		t.Fatal(err)
	}
	cancel()
	<-done

	doc, err := routing.Load(path)
	if err != nil {
		t.Fatalf("routing.Load() error = %v", err)
	}
	if len(doc.Clients) != 1 || doc.Clients[0].Name != "synth" {
		t.Errorf("autosaved clients = %+v", doc.Clients)
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Trigger, Scene} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Mode
		if err := got.UnmarshalText(text); err != nil || got != m {
			t.Errorf("round trip %v = %v, %v", m, got, err)
		}
	}
	if Trigger.Toggle() != Scene || Scene.Toggle() != Trigger {
		t.Error("Toggle() does not flip")
	}
	var m Mode
	if err := m.UnmarshalText([]byte("party")); err == nil {
		t.Error("UnmarshalText(party) succeeded")
	}
}
