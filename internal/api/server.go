package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/infrastructure/config"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/plexer"
	"github.com/nerrad567/midiplexer/internal/process"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultRegisterWait bounds how long a registration request waits for the
// controller to learn a message when the caller asks to wait.
const defaultRegisterWait = 30 * time.Second

// Control is the plexer surface the API drives. *plexer.Plexer implements it.
type Control interface {
	AddController(ctx context.Context, name, portType string) error
	AddClient(ctx context.Context, name, portType string, toggleRecord bool) error
	ClientAddTrack(ctx context.Context, clientName, label string, cfg track.Config) error
	ClientListTracks(ctx context.Context, clientName string) ([]client.TrackInfo, error)
	RegisterSignal(ctx context.Context, controllerName, label string) (<-chan controller.Learned, error)
	RegisterModeSwitch(ctx context.Context, controllerName, label string) (<-chan controller.Learned, error)
	AssignModeSwitch(ctx context.Context, controllerName, signal string) error
	AddTrackToScene(ctx context.Context, scene, clientName, label string) error
	AssignTrack(ctx context.Context, controllerName, signal, clientName, label string) error
	AssignScene(ctx context.Context, controllerName, signal, scene string) error
	CreateSceneFromCurrent(ctx context.Context, scene string) (routing.TrackList, error)
	ToggleRecord(ctx context.Context, clientName, label string) error
	ActivateScene(ctx context.Context, scene string) error
	Save(ctx context.Context, path string) (string, error)
	Load(ctx context.Context, path string) (string, error)
	Scenes(ctx context.Context) (map[string]routing.TrackList, error)
	TriggerMap(ctx context.Context) (map[string]map[string]routing.TrackList, error)
	SceneMap(ctx context.Context) (map[string]map[string]string, error)
	ModeSwitch(ctx context.Context) (map[string][]string, error)
	Controllers(ctx context.Context) ([]plexer.ControllerInfo, error)
	Clients(ctx context.Context) ([]plexer.ClientInfo, error)
	CurrentStatus(ctx context.Context) (plexer.Status, error)
}

// BridgeStats reports the supervised bridge daemon. *process.Manager
// implements it.
type BridgeStats interface {
	Stats() process.Stats
}

// ConnectionChecker reports whether an optional backend is connected.
type ConnectionChecker interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Plexer  Control
	Version string

	// RoutingDir confines save and load paths given over HTTP. Empty means
	// only the current routing file can be saved or loaded.
	RoutingDir string

	// Optional.
	Activity     activity.Repository
	Gatherer     prometheus.Gatherer
	Bridge       BridgeStats
	MQTT         ConnectionChecker
	ExternalHub  *Hub // If set, the server uses this hub instead of creating its own
	RegisterWait time.Duration
}

// Server is the control-plane HTTP server.
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	logger       *logging.Logger
	plexer       Control
	activity     activity.Repository
	gatherer     prometheus.Gatherer
	bridge       BridgeStats
	mqtt         ConnectionChecker
	routingDir   string
	registerWait time.Duration
	version      string
	startTime    time.Time
	server       *http.Server
	hub          *Hub
	externalHub  bool

	// ctx bounds background goroutines; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Plexer == nil {
		return nil, fmt.Errorf("plexer is required")
	}
	if deps.RegisterWait <= 0 {
		deps.RegisterWait = defaultRegisterWait
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		logger:       deps.Logger.With("component", "api"),
		plexer:       deps.Plexer,
		activity:     deps.Activity,
		gatherer:     deps.Gatherer,
		bridge:       deps.Bridge,
		mqtt:         deps.MQTT,
		routingDir:   deps.RoutingDir,
		registerWait: deps.RegisterWait,
		version:      deps.Version,
		startTime:    time.Now(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	} else {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s, nil
}

// Hub returns the WebSocket hub so callers can feed it status and activity.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler { return s.buildRouter() }

// Start begins listening for HTTP connections in the background.
func (s *Server) Start(ctx context.Context) error {
	if !s.externalHub {
		go s.hub.Run(s.ctx)
	}
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close stops background goroutines and shuts the listener down, waiting
// up to gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	s.cancel()
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
