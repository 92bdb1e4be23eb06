package controller

// Config is the persisted definition of a controller.
type Config struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SignalMap SignalMap `json:"signal_map"`
}

// Signal is emitted on the shared signal channel when a received message
// matches the signal map.
type Signal struct {
	Controller string
	Label      string
	Signature  string
}

// Learned is the outcome of a Register command.
type Learned struct {
	Label     string `json:"label"`
	Signature string `json:"signature"`
	Err       error  `json:"-"`
}

// Command is a control-plane request handled by the worker goroutine.
type Command interface {
	isCommand()
}

// Register learns the next message received as label. An empty label gets
// an automatic one. The reply arrives once a message has been received.
type Register struct {
	Label string
	Reply chan Learned
}

// ConfigRequest asks for the persisted view of the controller.
type ConfigRequest struct {
	Reply chan Config
}

// SignalsRequest asks for a copy of the signal map.
type SignalsRequest struct {
	Reply chan SignalMap
}

func (Register) isCommand()       {}
func (ConfigRequest) isCommand()  {}
func (SignalsRequest) isCommand() {}
