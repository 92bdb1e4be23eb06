package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/midi"
)

// scriptedInput is an Input fed by the test. It records whether Poll and
// Receive ever overlapped.
type scriptedInput struct {
	msgs      chan midi.Message
	receiving chan struct{}
	readErr   atomic.Pointer[error]

	active  atomic.Int32
	overlap atomic.Bool
	closed  atomic.Bool
}

func newScriptedInput() *scriptedInput {
	return &scriptedInput{
		msgs:      make(chan midi.Message, 16),
		receiving: make(chan struct{}, 1),
	}
}

func (s *scriptedInput) Name() string { return "scripted" }

func (s *scriptedInput) enter() {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
}

func (s *scriptedInput) leave() { s.active.Add(-1) }

func (s *scriptedInput) Poll(ctx context.Context, wait time.Duration) (midi.Message, bool, error) {
	s.enter()
	defer s.leave()
	if errp := s.readErr.Load(); errp != nil {
		return midi.Message{}, false, *errp
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case msg := <-s.msgs:
		return msg, true, nil
	case <-t.C:
		return midi.Message{}, false, nil
	case <-ctx.Done():
		return midi.Message{}, false, nil
	}
}

func (s *scriptedInput) Receive(ctx context.Context) (midi.Message, error) {
	s.enter()
	defer s.leave()
	select {
	case s.receiving <- struct{}{}:
	default:
	}
	select {
	case msg := <-s.msgs:
		return msg, nil
	case <-ctx.Done():
		return midi.Message{}, ctx.Err()
	}
}

func (s *scriptedInput) Close() error {
	s.closed.Store(true)
	return nil
}

func cc(control, value int) midi.Message {
	return midi.Message{Kind: midi.ControlChange, Control: control, Value: value}
}

type harness struct {
	w      *Worker
	in     *scriptedInput
	out    chan Signal
	cancel context.CancelFunc

	mu     sync.Mutex
	events []activity.Event
}

func startWorker(t *testing.T, signals SignalMap) *harness {
	t.Helper()
	h := &harness{in: newScriptedInput(), out: make(chan Signal, 16)}
	h.w = NewWorker(Config{Name: "pads", Type: "virtual", SignalMap: signals}, h.in, h.out, Options{
		PollInterval: time.Millisecond,
		Observer: activity.ObserverFunc(func(e activity.Event) {
			h.mu.Lock()
			h.events = append(h.events, e)
			h.mu.Unlock()
		}),
	})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.w.Done()
	})
	return h
}

func (h *harness) eventCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func expectSignal(t *testing.T, out <-chan Signal) Signal {
	t.Helper()
	select {
	case s := <-out:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no signal emitted")
		return Signal{}
	}
}

func TestWorker_EmitsMappedSignal(t *testing.T) {
	h := startWorker(t, SignalMap{"B0 14 7F": "s1"})

	h.in.msgs <- cc(0x14, 0x7F)

	s := expectSignal(t, h.out)
	if s.Controller != "pads" || s.Label != "s1" || s.Signature != "B0 14 7F" {
		t.Errorf("signal = %+v", s)
	}
}

func TestWorker_UnmappedSignalIsObserved(t *testing.T) {
	h := startWorker(t, SignalMap{"B0 14 7F": "s1"})

	h.in.msgs <- cc(0x15, 0x7F)
	h.in.msgs <- cc(0x14, 0x7F)

	// The mapped one still arrives; the unmapped one was reported, not sent.
	if s := expectSignal(t, h.out); s.Label != "s1" {
		t.Errorf("signal = %+v", s)
	}
	if h.eventCount() != 1 {
		t.Errorf("observed %d events, want 1", h.eventCount())
	}
}

func TestWorker_RegisterExcludesPoll(t *testing.T) {
	h := startWorker(t, SignalMap{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	learned, err := h.w.Register(ctx, "kick")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	select {
	case <-h.in.receiving:
	case <-ctx.Done():
		t.Fatal("registration never started receiving")
	}
	// Give the poll loop a chance to race for the port.
	time.Sleep(10 * time.Millisecond)
	h.in.msgs <- cc(0x40, 0x7F)

	var got Learned
	select {
	case got = <-learned:
	case <-ctx.Done():
		t.Fatal("no registration result")
	}
	if got.Err != nil || got.Label != "kick" || got.Signature != "B0 40 7F" {
		t.Fatalf("learned = %+v", got)
	}
	if h.in.overlap.Load() {
		t.Error("Poll and Receive read the port at the same time")
	}

	select {
	case s := <-h.out:
		t.Errorf("learned message was also routed: %+v", s)
	default:
	}

	// Afterwards the same message routes as the new signal.
	h.in.msgs <- cc(0x40, 0x7F)
	if s := expectSignal(t, h.out); s.Label != "kick" {
		t.Errorf("signal = %+v", s)
	}
}

func TestWorker_RegisterAutoLabel(t *testing.T) {
	h := startWorker(t, SignalMap{"90 01 7F": "signal1"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	learned, err := h.w.Register(ctx, "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	<-h.in.receiving
	h.in.msgs <- cc(1, 2)

	got := <-learned
	// Map size is 1 and signal1 is taken, so the label is bumped.
	if got.Label != "signal2" {
		t.Errorf("auto label = %q, want signal2", got.Label)
	}

	signals, err := h.w.Signals(ctx)
	if err != nil {
		t.Fatalf("Signals() error = %v", err)
	}
	if len(signals) != 2 || signals["B0 01 02"] != "signal2" {
		t.Errorf("signals = %v", signals)
	}
}

func TestWorker_ConfigAndShutdown(t *testing.T) {
	h := startWorker(t, SignalMap{"B0 14 7F": "s1"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg, err := h.w.Config(ctx)
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	if cfg.Name != "pads" || cfg.Type != "virtual" || cfg.SignalMap["B0 14 7F"] != "s1" {
		t.Errorf("Config() = %+v", cfg)
	}

	h.cancel()
	<-h.w.Done()

	if !h.in.closed.Load() {
		t.Error("input port not closed on exit")
	}
	if _, err := h.w.Config(ctx); !errors.Is(err, ErrStopped) {
		t.Errorf("Config() after stop error = %v, want ErrStopped", err)
	}
	if err := h.w.Send(ctx, nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Send(nil) error = %v", err)
	}
}

func TestWorker_ShutdownDuringRegister(t *testing.T) {
	h := startWorker(t, SignalMap{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	learned, err := h.w.Register(ctx, "x")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	<-h.in.receiving

	h.cancel()
	<-h.w.Done()

	got := <-learned
	if got.Err == nil {
		t.Error("interrupted registration should report an error")
	}
}

func TestWorker_ReadErrorKeepsPolling(t *testing.T) {
	h := startWorker(t, SignalMap{"B0 14 7F": "s1"})

	readErr := errors.New("device unplugged")
	h.in.readErr.Store(&readErr)
	time.Sleep(10 * time.Millisecond)
	h.in.readErr.Store(nil)

	h.in.msgs <- cc(0x14, 0x7F)
	if s := expectSignal(t, h.out); s.Label != "s1" {
		t.Errorf("signal = %+v", s)
	}
}

func TestSignalMap(t *testing.T) {
	m := SignalMap{"A": "signal0", "B": "x", "C": "x"}

	if !m.HasLabel("x") || m.HasLabel("y") {
		t.Error("HasLabel mismatch")
	}
	if got := m.Labels(); len(got) != 2 || got[0] != "signal0" || got[1] != "x" {
		t.Errorf("Labels() = %v", got)
	}
	if got := m.NextLabel(); got != "signal3" {
		t.Errorf("NextLabel() = %q, want signal3", got)
	}
	if got := (SignalMap{"A": "signal1"}).NextLabel(); got != "signal2" {
		t.Errorf("NextLabel() bump = %q, want signal2", got)
	}
	if got := SignalMap(nil).NextLabel(); got != "signal0" {
		t.Errorf("NextLabel() on nil = %q", got)
	}

	c := m.Clone()
	c["D"] = "z"
	if _, ok := m["D"]; ok {
		t.Error("Clone shares storage")
	}
}
