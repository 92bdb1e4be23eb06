package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/api"
	"github.com/nerrad567/midiplexer/internal/infrastructure/config"
	"github.com/nerrad567/midiplexer/internal/infrastructure/database"
	"github.com/nerrad567/midiplexer/internal/infrastructure/influxdb"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/infrastructure/mqtt"
	"github.com/nerrad567/midiplexer/internal/plexer"
	"github.com/nerrad567/midiplexer/internal/port"
	"github.com/nerrad567/midiplexer/internal/process"
	"github.com/nerrad567/midiplexer/migrations"
)

// statusPublisher receives plexer status snapshots.
type statusPublisher interface {
	PublishStatus(v any)
}

// serve runs the router until ctx is cancelled. Deferred cleanups run in
// reverse order of setup: API, plexer, observers, backends.
func serve(ctx context.Context, cf *configFlag) error {
	log := logging.Default()
	log.Info("starting midiplexer", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(cf.path, !cf.explicit)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", cf.path, "routing_file", cfg.Plexer.RoutingFile)

	var bridge *process.Manager
	if cfg.MIDI.Bridge.Managed {
		var bridgeErr error
		bridge, bridgeErr = startBridge(ctx, cfg, log)
		if bridgeErr != nil {
			return fmt.Errorf("starting MIDI bridge: %w", bridgeErr)
		}
		defer func() {
			log.Info("stopping MIDI bridge")
			if stopErr := bridge.Stop(); stopErr != nil {
				log.Error("error stopping MIDI bridge", "error", stopErr)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := activity.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	observers := activity.Multi{metrics}
	var publishers []statusPublisher

	var activityRepo activity.Repository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("activity database ready", "path", db.Path())

		repo := activity.NewSQLiteRepository(db.DB)
		recorder := activity.NewRecorder(repo, 0, log)
		go recorder.Run(ctx)
		observers = append(observers, recorder)
		activityRepo = repo
	}

	opener := port.NewRegistry()
	opener.Register(port.TypeMIDI, &port.RawMIDI{DeviceDir: cfg.MIDI.DeviceDir, Ports: cfg.MIDI.Ports})
	opener.Register(port.TypeVirtual, port.NewVirtual())

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		opener.Register(port.TypeMQTT, &port.Remote{Broker: mqttClient, QoS: byte(cfg.MQTT.QoS)})
		publisher := activity.NewMQTTPublisher(mqttClient, 0, log)
		go publisher.Run(ctx)
		observers = append(observers, publisher)
		publishers = append(publishers, publisher)
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, activity.NewInfluxRecorder(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
		go hub.Run(ctx)
		observers = append(observers, hub)
		publishers = append(publishers, hub)
	}

	px, err := plexer.New(plexer.Options{
		Opener:         opener,
		Logger:         log,
		Observer:       observers,
		RoutingFile:    cfg.Plexer.RoutingFile,
		PollInterval:   cfg.Plexer.PollInterval,
		IdleInterval:   cfg.Plexer.IdleInterval,
		QueryTimeout:   cfg.Plexer.QueryTimeout,
		SignalBuffer:   cfg.Plexer.SignalBuffer,
		AutosaveOnExit: cfg.Plexer.AutosaveOnExit,
	})
	if err != nil {
		return fmt.Errorf("creating plexer: %w", err)
	}
	go px.Run(ctx) //nolint:errcheck // Run only returns when ctx is done
	defer func() {
		<-px.Done()
		log.Info("plexer stopped")
	}()
	go relayStatus(ctx, px.Status(), publishers)

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log,
			Plexer:      px,
			Version:     version,
			RoutingDir:  filepath.Dir(cfg.Plexer.RoutingFile),
			Activity:    activityRepo,
			Gatherer:    registry,
			ExternalHub: hub,
		}
		if bridge != nil {
			deps.Bridge = bridge
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		srv, srvErr := api.New(deps)
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// startBridge launches the MIDI bridge daemon and waits for the raw devices
// named in midi.ports to appear.
func startBridge(ctx context.Context, cfg *config.Config, log *logging.Logger) (*process.Manager, error) {
	manager := process.NewManager(process.FromBridge(cfg.MIDI.Bridge, bridgeDevices(cfg.MIDI)))
	manager.SetLogger(log)

	log.Info("starting MIDI bridge", "binary", cfg.MIDI.Bridge.Binary)
	if err := manager.Start(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}

// bridgeDevices lists the device paths the bridge is expected to create.
func bridgeDevices(cfg config.MIDIConfig) []string {
	driver := &port.RawMIDI{DeviceDir: cfg.DeviceDir, Ports: cfg.Ports}
	paths := make([]string, 0, len(cfg.Ports))
	for name := range cfg.Ports {
		paths = append(paths, driver.Path(name))
	}
	sort.Strings(paths)
	return paths
}

// relayStatus forwards plexer status snapshots until ctx is done.
func relayStatus(ctx context.Context, status <-chan plexer.Status, publishers []statusPublisher) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-status:
			for _, p := range publishers {
				p.PublishStatus(s)
			}
		}
	}
}
