package port

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/nerrad567/midiplexer/internal/midi"
)

// TypeMIDI is the port type for raw MIDI character devices.
const TypeMIDI = "midi"

const readChunk = 256

// RawMIDI opens ALSA raw MIDI devices (or any file speaking the MIDI byte
// protocol). A name is resolved through Ports first, then used as a path if
// absolute, otherwise joined to DeviceDir.
type RawMIDI struct {
	DeviceDir string
	Ports     map[string]string
}

// Path resolves a port name to a device path.
func (d *RawMIDI) Path(name string) string {
	if p, ok := d.Ports[name]; ok {
		return p
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.DeviceDir, name)
}

// OpenInput opens the device for reading and starts its reader goroutine.
func (d *RawMIDI) OpenInput(name string) (Input, error) {
	path := d.Path(name)
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}

	q := newQueue(name, defaultInputBuffer, f.Close)
	go readLoop(f, q)
	return q, nil
}

func readLoop(r io.Reader, q *queue) {
	var parser midi.Parser
	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		for _, msg := range parser.Parse(buf[:n]) {
			if !q.push(msg) {
				return
			}
		}
		if err != nil {
			if q.closed() {
				return
			}
			if errors.Is(err, io.EOF) {
				q.fail(fmt.Errorf("%w: %s: device closed", ErrReadFailed, q.name))
				return
			}
			q.fail(fmt.Errorf("%w: %s: %w", ErrReadFailed, q.name, err))
			return
		}
	}
}

// OpenOutput opens the device for writing.
func (d *RawMIDI) OpenOutput(name string) (Output, error) {
	path := d.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	return &fileOutput{name: name, w: f}, nil
}

type fileOutput struct {
	name   string
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

func (o *fileOutput) Name() string { return o.name }

func (o *fileOutput) Send(msg midi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if _, err := o.w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, o.name, err)
	}
	return nil
}

func (o *fileOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.w.Close()
}
