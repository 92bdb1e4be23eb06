package plexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/port"
	"github.com/nerrad567/midiplexer/internal/routing"
)

const (
	defaultIdleInterval  = 8 * time.Millisecond
	defaultQueryTimeout  = 2 * time.Second
	defaultSignalBuffer  = 64
	defaultCommandBuffer = 64
	saveOnExitTimeout    = 5 * time.Second
)

// Options configures a Plexer. Opener is required.
type Options struct {
	Opener         port.Opener
	Logger         *logging.Logger
	Observer       activity.Observer
	RoutingFile    string
	PollInterval   time.Duration
	IdleInterval   time.Duration
	QueryTimeout   time.Duration
	SignalBuffer   int
	AutosaveOnExit bool
}

type clientHandle struct {
	cfg    client.Config
	worker *client.Worker // nil when offline
}

type controllerHandle struct {
	cfg    controller.Config
	worker *controller.Worker // nil when offline
}

// Plexer routes controller signals to client tracks. It owns the mode, the
// routing tables and the set of running workers; all of them are touched
// only by the goroutine running Run.
type Plexer struct {
	opts   Options
	logger *logging.Logger

	mode        Mode
	tables      routing.Tables
	routingFile string
	dirty       bool
	initial     *routing.Document

	clients         map[string]*clientHandle
	clientOrder     []string
	controllers     map[string]*controllerHandle
	controllerOrder []string

	commands chan Command
	signals  chan controller.Signal
	status   chan Status
	done     chan struct{}

	workerCtx    context.Context
	workerCancel context.CancelFunc
	workers      sync.WaitGroup
}

// New creates a plexer and reads the routing file. A missing file starts
// empty; a malformed one is logged and also starts empty. Devices are
// opened when Run starts.
func New(opts Options) (*Plexer, error) {
	if opts.Opener == nil {
		return nil, errors.New("plexer: opener is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = controller.DefaultPollInterval
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = defaultIdleInterval
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.SignalBuffer <= 0 {
		opts.SignalBuffer = defaultSignalBuffer
	}

	p := &Plexer{
		opts:        opts,
		logger:      opts.Logger.With("component", "plexer"),
		mode:        Trigger,
		tables:      routing.NewTables(),
		routingFile: opts.RoutingFile,
		commands:    make(chan Command, defaultCommandBuffer),
		signals:     make(chan controller.Signal, opts.SignalBuffer),
		status:      make(chan Status, 1),
		done:        make(chan struct{}),
	}

	doc := routing.NewDocument()
	if opts.RoutingFile != "" {
		loaded, err := routing.Load(opts.RoutingFile)
		if err != nil {
			p.logger.Error("failed to load routing file, starting empty",
				"path", opts.RoutingFile, "error", err)
		}
		doc = loaded
	}
	p.initial = doc
	return p, nil
}

// Status returns the single-slot status channel. Only the latest snapshot
// is kept.
func (p *Plexer) Status() <-chan Status { return p.status }

// Done is closed once Run has returned.
func (p *Plexer) Done() <-chan struct{} { return p.done }

// Run opens the devices from the routing file and routes until ctx is
// cancelled. It returns after every worker has exited.
func (p *Plexer) Run(ctx context.Context) error {
	defer close(p.done)

	p.startWorkers()
	p.build(p.initial)
	p.initial = nil
	p.logger.Info("plexer started",
		"clients", len(p.clientOrder),
		"controllers", len(p.controllerOrder),
		"routing_file", p.routingFile)

	for ctx.Err() == nil {
		worked := p.drainCommands()
		if p.drainSignals() {
			worked = true
		}
		if !worked {
			p.publishStatus()
			sleep(ctx, p.opts.IdleInterval)
		}
	}

	if p.opts.AutosaveOnExit && p.dirty && p.routingFile != "" {
		if _, err := p.save(""); err != nil {
			p.logger.Error("autosave on exit failed", "error", err)
		}
	}
	p.stopWorkers()
	p.logger.Info("plexer stopped")
	return nil
}

func (p *Plexer) startWorkers() {
	p.workerCtx, p.workerCancel = context.WithCancel(context.Background())
}

// stopWorkers cancels every worker and waits for them to close their ports.
func (p *Plexer) stopWorkers() {
	p.workerCancel()
	p.workers.Wait()
	p.clients = make(map[string]*clientHandle)
	p.clientOrder = nil
	p.controllers = make(map[string]*controllerHandle)
	p.controllerOrder = nil
}

// build starts a worker for every device in doc and adopts its tables.
// Devices that fail to open stay registered offline so they are saved.
func (p *Plexer) build(doc *routing.Document) {
	p.tables = doc.Tables.Clone()
	if p.clients == nil {
		p.clients = make(map[string]*clientHandle)
	}
	if p.controllers == nil {
		p.controllers = make(map[string]*controllerHandle)
	}

	for _, cfg := range doc.Clients {
		if _, exists := p.clients[cfg.Name]; exists {
			p.logger.Warn("skipping duplicate client", "client", cfg.Name)
			continue
		}
		if err := p.startClient(cfg); err != nil {
			p.logger.Error("client offline", "client", cfg.Name, "type", cfg.Type, "error", err)
			p.clients[cfg.Name] = &clientHandle{cfg: cfg.Clone()}
			p.clientOrder = append(p.clientOrder, cfg.Name)
		}
	}
	for _, cfg := range doc.Controllers {
		if _, exists := p.controllers[cfg.Name]; exists {
			p.logger.Warn("skipping duplicate controller", "controller", cfg.Name)
			continue
		}
		if err := p.startController(cfg); err != nil {
			p.logger.Error("controller offline", "controller", cfg.Name, "type", cfg.Type, "error", err)
			p.controllers[cfg.Name] = &controllerHandle{cfg: controller.Config{
				Name: cfg.Name, Type: cfg.Type, SignalMap: cfg.SignalMap.Clone(),
			}}
			p.controllerOrder = append(p.controllerOrder, cfg.Name)
		}
	}

	for _, w := range doc.Warnings() {
		p.logger.Warn("routing document", "warning", w)
	}
}

func (p *Plexer) startClient(cfg client.Config) error {
	out, err := p.opts.Opener.OpenOutput(cfg.Type, cfg.Name)
	if err != nil {
		return err
	}
	w, err := client.NewWorker(cfg, out, client.Options{
		Logger:   p.opts.Logger,
		Observer: p.opts.Observer,
	})
	if err != nil {
		out.Close() //nolint:errcheck // already failing
		return err
	}

	p.clients[cfg.Name] = &clientHandle{cfg: cfg.Clone(), worker: w}
	p.clientOrder = append(p.clientOrder, cfg.Name)
	p.workers.Add(1)
	go func() {
		defer p.workers.Done()
		w.Run(p.workerCtx)
	}()
	return nil
}

func (p *Plexer) startController(cfg controller.Config) error {
	in, err := p.opts.Opener.OpenInput(cfg.Type, cfg.Name)
	if err != nil {
		return err
	}
	w := controller.NewWorker(cfg, in, p.signals, controller.Options{
		Logger:       p.opts.Logger,
		Observer:     p.opts.Observer,
		PollInterval: p.opts.PollInterval,
	})

	p.controllers[cfg.Name] = &controllerHandle{cfg: cfg, worker: w}
	p.controllerOrder = append(p.controllerOrder, cfg.Name)
	p.workers.Add(1)
	go func() {
		defer p.workers.Done()
		w.Run(p.workerCtx)
	}()
	return nil
}

// drainCommands applies every queued command and reports whether there
// were any.
func (p *Plexer) drainCommands() bool {
	worked := false
	for {
		select {
		case cmd := <-p.commands:
			p.handleCommand(cmd)
			worked = true
		default:
			return worked
		}
	}
}

// drainSignals routes queued signals. A mode switch ends the drain so the
// remaining signals are looked up after any commands queued meanwhile.
func (p *Plexer) drainSignals() bool {
	worked := false
	for {
		select {
		case sig := <-p.signals:
			worked = true
			if p.handleSignal(sig) {
				return true
			}
		default:
			return worked
		}
	}
}

func (p *Plexer) currentStatus() Status {
	return Status{Mode: p.mode, ConfigPath: p.routingFile, Dirty: p.dirty}
}

// publishStatus replaces whatever snapshot is waiting in the status slot.
func (p *Plexer) publishStatus() {
	s := p.currentStatus()
	select {
	case <-p.status:
	default:
	}
	select {
	case p.status <- s:
	default:
	}
}

// queryCtx bounds a request to a worker.
func (p *Plexer) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(p.workerCtx, p.opts.QueryTimeout)
}

func queryErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrQueryTimeout, err)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
