package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "midiplexer"

// Topics builds midiplexer MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("studio")
//	topics.TrackState("synth", "pad")
//	// Returns: "studio/track/synth/pad"
type Topics struct {
	Prefix string
}

// NewTopics returns a builder for prefix, falling back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) join(parts ...string) string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + strings.Join(parts, "/")
}

// Status is the retained online/offline topic, also used for the LWT.
func (t Topics) Status() string {
	return t.join("status")
}

// Router is the retained router status snapshot (mode, routing file, dirty).
func (t Topics) Router() string {
	return t.join("router")
}

// Mode is the retained current routing mode ("trigger" or "scene").
func (t Topics) Mode() string {
	return t.join("mode")
}

// TrackState is the retained playing state of one client track.
func (t Topics) TrackState(client, track string) string {
	return t.join("track", client, track)
}

// Event carries one activity event of the given kind.
func (t Topics) Event(kind string) string {
	return t.join("event", kind)
}

// PortIn is where a remote controller publishes raw messages for port name.
func (t Topics) PortIn(name string) string {
	return t.join("port", name, "in")
}

// PortOut is where messages for remote client port name are published.
func (t Topics) PortOut(name string) string {
	return t.join("port", name, "out")
}

// AllEvents matches every activity event topic.
func (t Topics) AllEvents() string {
	return t.join("event", "#")
}

// AllTrackStates matches every track state topic.
func (t Topics) AllTrackStates() string {
	return t.join("track", "+", "+")
}
