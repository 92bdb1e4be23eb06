// Package activity describes what the router does as a stream of events and
// fans that stream out to observers.
//
// The plexer emits signal, unmapped_signal, mode_changed, scene_activated and
// dispatch_error events; client workers emit track_changed for every message
// a track sends. Observers must not block the emitting worker: sinks that
// talk to the network or disk (Recorder, MQTTPublisher) buffer through a
// bounded queue and count what they drop; Metrics and InfluxRecorder are
// non-blocking by construction.
//
//	obs := activity.Multi{metrics, recorder, publisher, hub}
//	activity.Emit(obs, activity.Event{Kind: activity.KindModeChanged, Mode: "scene"})
package activity
