package client

import (
	"github.com/nerrad567/midiplexer/internal/midi"
	"github.com/nerrad567/midiplexer/internal/track"
)

// Event asks the worker to drive tracks toward State. All selects every
// track the client owns and Tracks is ignored.
type Event struct {
	Tracks []string
	All    bool
	State  track.State
}

// TrackInfo is the listing view of a track.
type TrackInfo struct {
	Label   string    `json:"label"`
	Kind    midi.Kind `json:"type"`
	Playing bool      `json:"playing"`
	Armed   bool      `json:"armed,omitempty"`
}

// Command is a control-plane request handled by the worker goroutine.
// Replies travel on the channel carried by the command.
type Command interface {
	isCommand()
}

// CreateTrack adds or replaces a track.
type CreateTrack struct {
	Label  string
	Config track.Config
	Reply  chan error
}

// ListTracks asks for every track in insertion order.
type ListTracks struct {
	Reply chan []TrackInfo
}

// ConfigRequest asks for the persisted view of the client.
type ConfigRequest struct {
	Reply chan Config
}

// PlayingRequest asks for the labels of playing tracks in insertion order.
type PlayingRequest struct {
	Reply chan []string
}

// ToggleRecord arms a track: it is marked stopped and its next Play or Stop
// always sends.
type ToggleRecord struct {
	Label string
	Reply chan error
}

func (CreateTrack) isCommand()    {}
func (ListTracks) isCommand()     {}
func (ConfigRequest) isCommand()  {}
func (PlayingRequest) isCommand() {}
func (ToggleRecord) isCommand()   {}
