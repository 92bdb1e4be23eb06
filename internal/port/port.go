package port

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/midiplexer/internal/midi"
)

// Input is a source of MIDI messages.
type Input interface {
	// Name returns the name the port was opened with.
	Name() string

	// Poll waits up to wait for one message. ok is false when nothing
	// arrived in time.
	Poll(ctx context.Context, wait time.Duration) (msg midi.Message, ok bool, err error)

	// Receive blocks until one message arrives or ctx is done.
	Receive(ctx context.Context) (midi.Message, error)

	Close() error
}

// Output is a sink for MIDI messages.
type Output interface {
	Name() string
	Send(msg midi.Message) error
	Close() error
}

// Driver opens ports of one type.
type Driver interface {
	OpenInput(name string) (Input, error)
	OpenOutput(name string) (Output, error)
}

// Opener opens ports by type and name.
type Opener interface {
	OpenInput(portType, name string) (Input, error)
	OpenOutput(portType, name string) (Output, error)
}

// Registry is an Opener backed by one Driver per port type.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register installs d for portType, replacing any previous driver.
func (r *Registry) Register(portType string, d Driver) {
	r.mu.Lock()
	r.drivers[portType] = d
	r.mu.Unlock()
}

// Types lists the registered port types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.drivers))
	for t := range r.drivers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) driver(portType string) (Driver, error) {
	r.mu.RLock()
	d, ok := r.drivers[portType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, portType)
	}
	return d, nil
}

// OpenInput opens an input of the given type.
func (r *Registry) OpenInput(portType, name string) (Input, error) {
	d, err := r.driver(portType)
	if err != nil {
		return nil, err
	}
	return d.OpenInput(name)
}

// OpenOutput opens an output of the given type.
func (r *Registry) OpenOutput(portType, name string) (Output, error) {
	d, err := r.driver(portType)
	if err != nil {
		return nil, err
	}
	return d.OpenOutput(name)
}
