package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for midiplexer.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Plexer    PlexerConfig    `yaml:"plexer"`
	MIDI      MIDIConfig      `yaml:"midi"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PlexerConfig contains the routing engine settings.
type PlexerConfig struct {
	// RoutingFile is the JSON document holding devices, tracks, scenes and maps.
	RoutingFile string `yaml:"routing_file"`

	// PollInterval bounds how long a controller waits for one input message.
	PollInterval time.Duration `yaml:"poll_interval"`

	// IdleInterval is the orchestrator sleep when a tick found no work.
	IdleInterval time.Duration `yaml:"idle_interval"`

	// QueryTimeout bounds synchronous requests to device workers.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// SignalBuffer is the capacity of the shared controller signal channel.
	SignalBuffer int `yaml:"signal_buffer"`

	// AutosaveOnExit writes the routing file on shutdown when it has unsaved changes.
	AutosaveOnExit bool `yaml:"autosave_on_exit"`
}

// MIDIConfig contains MIDI device settings.
type MIDIConfig struct {
	// DeviceDir is where raw MIDI character devices live.
	DeviceDir string `yaml:"device_dir"`

	// Ports maps a port name used in the routing file to a device path.
	Ports map[string]string `yaml:"ports"`

	// Bridge configures an optional supervised MIDI bridge daemon.
	Bridge BridgeConfig `yaml:"bridge"`
}

// BridgeConfig contains settings for a companion MIDI bridge process
// (for example a2jmidid exposing ALSA sequencer ports as raw devices).
type BridgeConfig struct {
	// Managed indicates whether midiplexer should start and supervise the bridge.
	Managed bool `yaml:"managed"`

	// Binary is the path to the bridge executable.
	Binary string `yaml:"binary"`

	// Args are passed to the bridge unchanged.
	Args []string `yaml:"args"`

	// RestartOnFailure enables automatic restart if the bridge exits.
	RestartOnFailure bool `yaml:"restart_on_failure"`

	// RestartDelay is the time to wait before restarting.
	RestartDelay time.Duration `yaml:"restart_delay"`

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int `yaml:"max_restart_attempts"`

	// StartupDelay gives the bridge time to create its devices before ports open.
	StartupDelay time.Duration `yaml:"startup_delay"`
}

// DatabaseConfig contains SQLite database settings for the activity log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains the control-plane HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MIDIPLEXER_SECTION_KEY
// For example: MIDIPLEXER_ROUTING_FILE, MIDIPLEXER_API_PORT
//
// When optional is true a missing file is not an error and defaults are used.
func Load(path string, optional bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Plexer: PlexerConfig{
			RoutingFile:    "./midiplexer.json",
			PollInterval:   8 * time.Millisecond,
			IdleInterval:   8 * time.Millisecond,
			QueryTimeout:   2 * time.Second,
			SignalBuffer:   64,
			AutosaveOnExit: false,
		},
		MIDI: MIDIConfig{
			DeviceDir: "/dev/snd",
			Ports:     map[string]string{},
			Bridge: BridgeConfig{
				Binary:             "/usr/bin/a2jmidid",
				Args:               []string{"-e"},
				RestartOnFailure:   true,
				RestartDelay:       2 * time.Second,
				MaxRestartAttempts: 10,
				StartupDelay:       500 * time.Millisecond,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/midiplexer.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "midiplexer",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "midiplexer",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "midiplexer",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIDIPLEXER_ROUTING_FILE"); v != "" {
		cfg.Plexer.RoutingFile = v
	}

	if v := os.Getenv("MIDIPLEXER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("MIDIPLEXER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MIDIPLEXER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MIDIPLEXER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("MIDIPLEXER_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("MIDIPLEXER_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	if v := os.Getenv("MIDIPLEXER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("MIDIPLEXER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Plexer.RoutingFile == "" {
		errs = append(errs, "plexer.routing_file is required")
	}
	if c.Plexer.PollInterval <= 0 {
		errs = append(errs, "plexer.poll_interval must be positive")
	}
	if c.Plexer.IdleInterval <= 0 {
		errs = append(errs, "plexer.idle_interval must be positive")
	}
	if c.Plexer.QueryTimeout <= 0 {
		errs = append(errs, "plexer.query_timeout must be positive")
	}
	if c.Plexer.SignalBuffer < 1 {
		errs = append(errs, "plexer.signal_buffer must be at least 1")
	}

	if c.MIDI.Bridge.Managed && c.MIDI.Bridge.Binary == "" {
		errs = append(errs, "midi.bridge.binary is required when the bridge is managed")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
