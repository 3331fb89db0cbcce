package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urmzd/nxbridge/pkg/nx587e"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete nxbridge configuration.
type Config struct {
	Panel    PanelConfig    `yaml:"panel"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Trace    TraceConfig    `yaml:"trace"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PanelConfig describes the serial link and the tracked devices.
type PanelConfig struct {
	Port         string        `yaml:"port"`
	Baud         int           `yaml:"baud"`
	MaxZone      int           `yaml:"max_zone"`
	MaxPartition int           `yaml:"max_partition"`
	Keymap       string        `yaml:"keymap"`
	Setup        string        `yaml:"setup"`
	QueueSize    int           `yaml:"queue_size"`
	StopTimeout  time.Duration `yaml:"stop_timeout"`
}

// Limits returns the configured device limits.
func (p PanelConfig) Limits() nx587e.Limits {
	return nx587e.Limits{MaxZone: p.MaxZone, MaxPartition: p.MaxPartition}
}

// Options builds controller options; the caller adds a tracer if wanted.
func (p PanelConfig) Options() nx587e.Options {
	return nx587e.Options{
		Limits:      p.Limits(),
		Keymap:      nx587e.Keymap(p.Keymap),
		Setup:       p.Setup,
		QueueSize:   p.QueueSize,
		StopTimeout: p.StopTimeout,
	}
}

type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns host:port for the HTTP listener.
func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type DatabaseConfig struct {
	// Path of the SQLite file; empty selects the per-user default
	Path string `yaml:"path"`
	// Retention prunes event history older than this; zero keeps everything
	Retention time.Duration `yaml:"retention"`
}

type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig holds delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

type InfluxDBConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	Org       string `yaml:"org"`
	Bucket    string `yaml:"bucket"`
	BatchSize int    `yaml:"batch_size"`
	// FlushInterval in milliseconds
	FlushInterval int `yaml:"flush_interval"`
}

type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Panel: PanelConfig{
			Port:         "/dev/ttyUSB0",
			Baud:         nx587e.DefaultBaudRate,
			MaxZone:      8,
			MaxPartition: 1,
			Keymap:       string(nx587e.KeymapUSA),
			Setup:        nx587e.DefaultSetup,
			QueueSize:    nx587e.DefaultQueueSize,
			StopTimeout:  nx587e.DefaultStopTimeout,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nxbridge",
			},
			QoS:         1,
			TopicPrefix: "nxbridge",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "nxbridge",
			BatchSize:     100,
			FlushInterval: 1000,
		},
		Trace: TraceConfig{
			Path: "nxbridge.trace",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration at path. An empty path yields the defaults
// with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"NXBRIDGE_PANEL_PORT":     &cfg.Panel.Port,
		"NXBRIDGE_PANEL_KEYMAP":   &cfg.Panel.Keymap,
		"NXBRIDGE_PANEL_SETUP":    &cfg.Panel.Setup,
		"NXBRIDGE_API_HOST":       &cfg.API.Host,
		"NXBRIDGE_DATABASE_PATH":  &cfg.Database.Path,
		"NXBRIDGE_MQTT_HOST":      &cfg.MQTT.Broker.Host,
		"NXBRIDGE_MQTT_USERNAME":  &cfg.MQTT.Auth.Username,
		"NXBRIDGE_MQTT_PASSWORD":  &cfg.MQTT.Auth.Password,
		"NXBRIDGE_INFLUXDB_URL":   &cfg.InfluxDB.URL,
		"NXBRIDGE_INFLUXDB_TOKEN": &cfg.InfluxDB.Token,
		"NXBRIDGE_LOGGING_LEVEL":  &cfg.Logging.Level,
		"NXBRIDGE_LOGGING_FORMAT": &cfg.Logging.Format,
		"NXBRIDGE_TRACE_PATH":     &cfg.Trace.Path,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"NXBRIDGE_PANEL_BAUD":          &cfg.Panel.Baud,
		"NXBRIDGE_PANEL_MAX_ZONE":      &cfg.Panel.MaxZone,
		"NXBRIDGE_PANEL_MAX_PARTITION": &cfg.Panel.MaxPartition,
		"NXBRIDGE_API_PORT":            &cfg.API.Port,
		"NXBRIDGE_MQTT_PORT":           &cfg.MQTT.Broker.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"NXBRIDGE_MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"NXBRIDGE_INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
		"NXBRIDGE_TRACE_ENABLED":    &cfg.Trace.Enabled,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v)
		}
		*dst = b
	}

	return nil
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Panel.Port == "" {
		errs = append(errs, "panel.port is required")
	}
	if c.Panel.Baud <= 0 {
		errs = append(errs, "panel.baud must be positive")
	}
	if err := c.Panel.Limits().Validate(); err != nil {
		errs = append(errs, "panel: "+err.Error())
	}
	if _, err := nx587e.ParseKeymap(c.Panel.Keymap); err != nil {
		errs = append(errs, "panel.keymap must be USA or AUNZ")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if strings.Trim(c.MQTT.TopicPrefix, "/") == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.Trace.Enabled && c.Trace.Path == "" {
		errs = append(errs, "trace.path is required when trace is enabled")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, "logging.format must be console or json")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}
