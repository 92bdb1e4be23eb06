package port

import (
	"sync"

	"github.com/nerrad567/midiplexer/internal/midi"
)

// TypeVirtual is the port type for in-process buses.
const TypeVirtual = "virtual"

// Virtual is a set of named in-process buses. Messages sent to an Output
// named X are delivered to every open Input named X. Delivery never blocks;
// a full input buffer drops the message.
type Virtual struct {
	mu     sync.Mutex
	inputs map[string]map[*queue]struct{}
}

// NewVirtual creates an empty set of buses.
func NewVirtual() *Virtual {
	return &Virtual{inputs: make(map[string]map[*queue]struct{})}
}

// OpenInput attaches a new listener to bus name.
func (v *Virtual) OpenInput(name string) (Input, error) {
	var q *queue
	q = newQueue(name, defaultInputBuffer, func() error {
		v.detach(name, q)
		return nil
	})

	v.mu.Lock()
	if v.inputs[name] == nil {
		v.inputs[name] = make(map[*queue]struct{})
	}
	v.inputs[name][q] = struct{}{}
	v.mu.Unlock()

	return q, nil
}

func (v *Virtual) detach(name string, q *queue) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inputs[name], q)
	if len(v.inputs[name]) == 0 {
		delete(v.inputs, name)
	}
}

// OpenOutput returns a sender onto bus name.
func (v *Virtual) OpenOutput(name string) (Output, error) {
	return &virtualOutput{bus: v, name: name}, nil
}

// Inject delivers msg to every input on bus name, as if a device had sent it.
// It returns the number of inputs that accepted the message.
func (v *Virtual) Inject(name string, msg midi.Message) int {
	v.mu.Lock()
	targets := make([]*queue, 0, len(v.inputs[name]))
	for q := range v.inputs[name] {
		targets = append(targets, q)
	}
	v.mu.Unlock()

	n := 0
	for _, q := range targets {
		if q.offer(msg) {
			n++
		}
	}
	return n
}

type virtualOutput struct {
	bus    *Virtual
	name   string
	mu     sync.Mutex
	closed bool
}

func (o *virtualOutput) Name() string { return o.name }

func (o *virtualOutput) Send(msg midi.Message) error {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return ErrClosed
	}
	o.bus.Inject(o.name, msg)
	return nil
}

func (o *virtualOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}
