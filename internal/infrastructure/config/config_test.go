package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
plexer:
  routing_file: "/var/lib/midiplexer/rig.json"
  poll_interval: 4ms
  idle_interval: 10ms
  query_timeout: 1s
midi:
  ports:
    pads: /dev/snd/midiC1D0
database:
  enabled: true
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 9090
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plexer.RoutingFile != "/var/lib/midiplexer/rig.json" {
		t.Errorf("Plexer.RoutingFile = %q, want %q", cfg.Plexer.RoutingFile, "/var/lib/midiplexer/rig.json")
	}
	if cfg.Plexer.PollInterval != 4*time.Millisecond {
		t.Errorf("Plexer.PollInterval = %v, want 4ms", cfg.Plexer.PollInterval)
	}
	if cfg.Plexer.IdleInterval != 10*time.Millisecond {
		t.Errorf("Plexer.IdleInterval = %v, want 10ms", cfg.Plexer.IdleInterval)
	}
	if got := cfg.MIDI.Ports["pads"]; got != "/dev/snd/midiC1D0" {
		t.Errorf("MIDI.Ports[pads] = %q, want %q", got, "/dev/snd/midiC1D0")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	// Untouched values keep their defaults.
	if cfg.Plexer.SignalBuffer != 64 {
		t.Errorf("Plexer.SignalBuffer = %d, want 64", cfg.Plexer.SignalBuffer)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml", false)
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Plexer.PollInterval != 8*time.Millisecond {
		t.Errorf("Plexer.PollInterval = %v, want 8ms", cfg.Plexer.PollInterval)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath, true)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
plexer:
  routing_file: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath, false)
	if err == nil {
		t.Error("Load() expected validation error for empty routing_file, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "missing routing file", mutate: func(c *Config) { c.Plexer.RoutingFile = "" }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.Plexer.PollInterval = 0 }, wantErr: true},
		{name: "negative idle interval", mutate: func(c *Config) { c.Plexer.IdleInterval = -time.Millisecond }, wantErr: true},
		{name: "zero query timeout", mutate: func(c *Config) { c.Plexer.QueryTimeout = 0 }, wantErr: true},
		{name: "zero signal buffer", mutate: func(c *Config) { c.Plexer.SignalBuffer = 0 }, wantErr: true},
		{name: "managed bridge without binary", mutate: func(c *Config) {
			c.MIDI.Bridge.Managed = true
			c.MIDI.Bridge.Binary = ""
		}, wantErr: true},
		{name: "enabled database without path", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Path = ""
		}, wantErr: true},
		{name: "disabled database without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: false},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "api disabled ignores port", mutate: func(c *Config) {
			c.API.Enabled = false
			c.API.Port = 0
		}, wantErr: false},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("MIDIPLEXER_ROUTING_FILE", "/srv/rig.json")
	t.Setenv("MIDIPLEXER_DATABASE_PATH", "/custom/path.db")
	t.Setenv("MIDIPLEXER_MQTT_HOST", "mqtt.example.com")
	t.Setenv("MIDIPLEXER_MQTT_USERNAME", "testuser")
	t.Setenv("MIDIPLEXER_MQTT_PASSWORD", "testpass")
	t.Setenv("MIDIPLEXER_API_HOST", "192.168.1.1")
	t.Setenv("MIDIPLEXER_API_PORT", "9999")
	t.Setenv("MIDIPLEXER_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("MIDIPLEXER_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"Plexer.RoutingFile", cfg.Plexer.RoutingFile, "/srv/rig.json"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want 9999", cfg.API.Port)
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("MIDIPLEXER_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Plexer.RoutingFile == "" {
		t.Error("Default should have non-empty Plexer.RoutingFile")
	}
	if cfg.Plexer.PollInterval != 8*time.Millisecond {
		t.Errorf("Default Plexer.PollInterval = %v, want 8ms", cfg.Plexer.PollInterval)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Default API.Port = %d, want 8080", cfg.API.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}
