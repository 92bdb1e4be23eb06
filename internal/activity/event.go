package activity

import "time"

// Kind classifies an activity event.
type Kind string

const (
	// KindSignal is a controller signal that matched the active map.
	KindSignal Kind = "signal"
	// KindUnmappedSignal is a controller signal that matched nothing.
	KindUnmappedSignal Kind = "unmapped_signal"
	// KindModeChanged is a mode switch; Mode holds the new mode.
	KindModeChanged Kind = "mode_changed"
	// KindSceneActivated is a scene activation; Scene holds its label.
	KindSceneActivated Kind = "scene_activated"
	// KindTrackChanged is a message sent by a track; Playing is the new state.
	KindTrackChanged Kind = "track_changed"
	// KindDispatchError is a failed dispatch; Message holds the error text.
	KindDispatchError Kind = "dispatch_error"
)

// Kinds lists every event kind.
func Kinds() []Kind {
	return []Kind{
		KindSignal, KindUnmappedSignal, KindModeChanged,
		KindSceneActivated, KindTrackChanged, KindDispatchError,
	}
}

// Event is one thing the router did. Only the fields relevant to Kind are set.
type Event struct {
	Kind       Kind      `json:"kind"`
	Time       time.Time `json:"time"`
	Controller string    `json:"controller,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	Client     string    `json:"client,omitempty"`
	Track      string    `json:"track,omitempty"`
	Scene      string    `json:"scene,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Playing    bool      `json:"playing"`
	Message    string    `json:"message,omitempty"`
}

// Observer receives activity events. Observe is called from worker
// goroutines and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Multi fans an event out to every non-nil observer in order.
type Multi []Observer

// Observe implements Observer.
func (m Multi) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

// Nop discards events.
var Nop Observer = ObserverFunc(func(Event) {})

// Emit stamps e with the current time when unset and hands it to o.
// A nil observer is allowed.
func Emit(o Observer, e Event) {
	if o == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	o.Observe(e)
}
