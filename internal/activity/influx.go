package activity

import (
	"sync"
	"time"
)

// PointWriter is the subset of the InfluxDB client used here.
type PointWriter interface {
	WriteSignal(controller, signal, mode string, mapped bool, ts time.Time)
	WriteTrackState(client, track string, playing bool, ts time.Time)
	WriteModeChange(mode string, ts time.Time)
}

// InfluxRecorder writes signals, track transitions and mode changes as
// time-series points. The writer batches internally, so Observe does not
// block on the network.
type InfluxRecorder struct {
	w PointWriter

	mu   sync.Mutex
	mode string
}

// NewInfluxRecorder creates an InfluxRecorder. Signals are tagged with the
// current mode, which starts as trigger.
func NewInfluxRecorder(w PointWriter) *InfluxRecorder {
	return &InfluxRecorder{w: w, mode: "trigger"}
}

// Observe implements Observer.
func (r *InfluxRecorder) Observe(e Event) {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	switch e.Kind {
	case KindSignal, KindUnmappedSignal:
		r.w.WriteSignal(e.Controller, e.Signal, r.currentMode(), e.Kind == KindSignal, ts)
	case KindTrackChanged:
		r.w.WriteTrackState(e.Client, e.Track, e.Playing, ts)
	case KindModeChanged:
		r.mu.Lock()
		r.mode = e.Mode
		r.mu.Unlock()
		r.w.WriteModeChange(e.Mode, ts)
	case KindSceneActivated, KindDispatchError:
	}
}

func (r *InfluxRecorder) currentMode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}
