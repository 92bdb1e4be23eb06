package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of a managed process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

const (
	defaultRestartDelay    = 2 * time.Second
	defaultMaxRestartDelay = time.Minute
	defaultStableThreshold = time.Minute
	defaultGracefulTimeout = 5 * time.Second
	readyPollInterval      = 50 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start on a running manager.
var ErrAlreadyRunning = errors.New("process: already running")

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name identifies the process in logs.
	Name string

	Binary string
	Args   []string

	// Env is appended to the parent environment.
	Env []string

	RestartOnFailure bool

	// RestartDelay is the first backoff step; it doubles per consecutive
	// failure up to MaxRestartDelay.
	RestartDelay    time.Duration
	MaxRestartDelay time.Duration

	// MaxRestartAttempts limits consecutive restarts. 0 means unlimited.
	MaxRestartAttempts int

	// A process that stays up for StableThreshold resets the backoff.
	StableThreshold time.Duration

	// GracefulTimeout is how long Stop waits after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// Ready reports whether the process has finished starting. Start polls
	// it for up to ReadyTimeout. Nil means ready as soon as it is spawned.
	Ready        func() error
	ReadyTimeout time.Duration
}

// Logger is the logging interface the manager needs. *logging.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// namedLogger tags every entry with the process name.
type namedLogger struct {
	Logger
	name string
}

func (l namedLogger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, append(args, "process", l.name)...)
}
func (l namedLogger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append(args, "process", l.name)...)
}
func (l namedLogger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append(args, "process", l.name)...)
}
func (l namedLogger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append(args, "process", l.name)...)
}

// Manager runs one subprocess and restarts it when it exits unexpectedly.
type Manager struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	cmd           *exec.Cmd
	status        Status
	restartCount  int
	failures      int
	lastError     error
	startTime     time.Time
	stopRequested bool
	stop          chan struct{}
	done          chan struct{}
}

// NewManager creates a manager. Zero durations take defaults.
func NewManager(cfg Config) *Manager {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if cfg.MaxRestartDelay <= 0 {
		cfg.MaxRestartDelay = defaultMaxRestartDelay
	}
	if cfg.StableThreshold <= 0 {
		cfg.StableThreshold = defaultStableThreshold
	}
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = defaultGracefulTimeout
	}
	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger. Call it before Start.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = namedLogger{Logger: logger, name: m.config.Name}
}

// Start spawns the process, waits for it to become ready and supervises it
// until ctx is cancelled or Stop is called. A readiness timeout is logged
// but does not fail Start; ports that cannot open yet come up offline.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusRunning || m.status == StatusStarting {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.config.Name)
	}
	m.status = StatusStarting
	m.stopRequested = false
	m.restartCount = 0
	m.failures = 0
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	if err := m.spawn(ctx); err != nil {
		m.mu.Lock()
		m.status = StatusFailed
		m.lastError = err
		close(m.done)
		m.mu.Unlock()
		return err
	}

	if err := m.waitReady(ctx); err != nil {
		m.logger.Warn("process not ready", "error", err)
	}

	go m.monitor(ctx)
	return nil
}

func (m *Manager) spawn(ctx context.Context) error {
	m.logger.Info("starting process", "binary", m.config.Binary, "args", m.config.Args)

	cmd := exec.CommandContext(ctx, m.config.Binary, m.config.Args...) //nolint:gosec // operator-configured binary
	// Own process group so Stop reaches any children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	m.mu.Lock()
	m.cmd = cmd
	m.status = StatusRunning
	m.startTime = time.Now()
	m.mu.Unlock()

	go m.captureOutput("stdout", stdout)
	go m.captureOutput("stderr", stderr)

	m.logger.Info("process started", "pid", cmd.Process.Pid)
	return nil
}

// waitReady polls the Ready hook until it succeeds or ReadyTimeout passes.
func (m *Manager) waitReady(ctx context.Context) error {
	if m.config.Ready == nil {
		return nil
	}
	deadline := time.Now().Add(m.config.ReadyTimeout)
	for {
		err := m.config.Ready()
		if err == nil {
			return nil
		}
		if !time.Now().Before(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

// captureOutput logs the process output line by line.
func (m *Manager) captureOutput(stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.logger.Debug("process output", "stream", stream, "line", scanner.Text())
	}
}

// monitor waits for the process to exit and restarts it with backoff.
func (m *Manager) monitor(ctx context.Context) {
	m.mu.RLock()
	done, stop := m.done, m.stop
	m.mu.RUnlock()
	defer close(done)

	for {
		m.mu.RLock()
		cmd := m.cmd
		m.mu.RUnlock()

		err := cmd.Wait()

		m.mu.Lock()
		stopRequested := m.stopRequested
		uptime := time.Since(m.startTime)
		if stopRequested || ctx.Err() != nil {
			m.status = StatusStopped
			m.mu.Unlock()
			m.logger.Info("process stopped")
			return
		}
		m.status = StatusFailed
		m.lastError = err
		if uptime >= m.config.StableThreshold {
			m.failures = 0
		}
		m.failures++
		attempt := m.failures
		m.mu.Unlock()

		m.logger.Warn("process exited unexpectedly", "error", err, "uptime", uptime)

		if !m.config.RestartOnFailure {
			return
		}
		if m.config.MaxRestartAttempts > 0 && attempt > m.config.MaxRestartAttempts {
			m.logger.Error("max restart attempts reached", "attempts", attempt-1)
			return
		}

		delay := m.backoff(attempt)
		m.logger.Info("restarting process", "attempt", attempt, "delay", delay)
		if !m.pause(ctx, stop, delay) {
			return
		}

		for {
			m.mu.Lock()
			if m.stopRequested {
				m.status = StatusStopped
				m.mu.Unlock()
				return
			}
			m.restartCount++
			m.mu.Unlock()

			err := m.spawn(ctx)
			if err == nil {
				break
			}
			m.logger.Error("failed to restart process", "error", err)
			m.mu.Lock()
			m.lastError = err
			m.failures++
			attempt = m.failures
			m.mu.Unlock()
			if m.config.MaxRestartAttempts > 0 && attempt > m.config.MaxRestartAttempts {
				m.logger.Error("max restart attempts reached", "attempts", attempt-1)
				return
			}
			if !m.pause(ctx, stop, m.backoff(attempt)) {
				return
			}
		}
	}
}

// backoff returns RestartDelay doubled per prior consecutive failure,
// capped at MaxRestartDelay.
func (m *Manager) backoff(attempt int) time.Duration {
	delay := m.config.RestartDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.config.MaxRestartDelay {
			return m.config.MaxRestartDelay
		}
	}
	return delay
}

// pause waits out a restart delay. It reports false when the manager was
// stopped meanwhile.
func (m *Manager) pause(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
	case <-stop:
	}
	m.mu.Lock()
	m.status = StatusStopped
	m.mu.Unlock()
	return false
}

// Stop sends SIGTERM to the process group, then SIGKILL after
// GracefulTimeout, and waits for the monitor to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.stop != nil && !m.stopRequested {
		close(m.stop)
	}
	m.stopRequested = true
	cmd := m.cmd
	done := m.done
	running := m.status == StatusRunning
	m.mu.Unlock()

	if done == nil {
		return nil
	}
	if !running || cmd == nil || cmd.Process == nil {
		<-done
		return nil
	}

	pid := cmd.Process.Pid
	m.logger.Info("stopping process", "pid", pid)
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Warn("failed to send SIGTERM", "error", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(m.config.GracefulTimeout):
		m.logger.Warn("graceful shutdown timed out, sending SIGKILL", "timeout", m.config.GracefulTimeout)
	}
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("killing %s: %w", m.config.Name, err)
	}
	<-done
	return nil
}

// Done is closed once the manager stops supervising. It is nil before Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Stats is a snapshot for the control plane.
type Stats struct {
	Name         string `json:"name"`
	Status       Status `json:"status"`
	PID          int    `json:"pid,omitempty"`
	UptimeSec    int64  `json:"uptime_seconds,omitempty"`
	RestartCount int    `json:"restart_count"`
	LastError    string `json:"last_error,omitempty"`
}

// Stats returns current statistics for the process.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Name:         m.config.Name,
		Status:       m.status,
		RestartCount: m.restartCount,
	}
	if m.status == StatusRunning && m.cmd != nil && m.cmd.Process != nil {
		stats.PID = m.cmd.Process.Pid
		stats.UptimeSec = int64(time.Since(m.startTime).Seconds())
	}
	if m.lastError != nil {
		stats.LastError = m.lastError.Error()
	}
	return stats
}
