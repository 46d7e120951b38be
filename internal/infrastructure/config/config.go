package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/logging"
)

// FileEnv names the environment variable holding an optional YAML file path.
const FileEnv = "AURORA_CONFIG"

// Config holds all application configuration.
//
// Fields carry no envconfig defaults: values start from Default(), may be
// replaced by a YAML file, and are then overridden only by environment
// variables that are actually set.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Events    EventsConfig    `yaml:"events"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string `envconfig:"PORT" yaml:"port"`
	Host           string `envconfig:"HOST" yaml:"host"`
	MaxConnections int    `envconfig:"HTTP_MAX_CONNS" yaml:"max_connections"`
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" yaml:"cors_origins"`
}

// GRPCConfig holds the gRPC listener configuration.
type GRPCConfig struct {
	Address string `envconfig:"GRPC_ADDR" yaml:"address"`
	Enabled bool   `envconfig:"GRPC_ENABLED" yaml:"enabled"`
}

// KernelConfig holds kernel manager configuration.
type KernelConfig struct {
	// AutoInit initializes the kernel at startup, as the UI shell did.
	AutoInit       bool          `envconfig:"KERNEL_AUTO_INIT" yaml:"auto_init"`
	SampleInterval time.Duration `envconfig:"KERNEL_SAMPLE_INTERVAL" yaml:"sample_interval"`
	StreamInterval time.Duration `envconfig:"KERNEL_STREAM_INTERVAL" yaml:"stream_interval"`
}

// EventsConfig holds kernel event publishing configuration.
type EventsConfig struct {
	Enabled bool   `envconfig:"EVENTS_ENABLED" yaml:"enabled"`
	NATSURL string `envconfig:"NATS_URL" yaml:"nats_url"`
	Subject string `envconfig:"EVENTS_SUBJECT" yaml:"subject"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled"`
	// Global uses one limiter for every client instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" yaml:"global"`
}

// Load builds configuration from defaults, the file named by AURORA_CONFIG
// (if any) and the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(FileEnv))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			MaxConnections: 256,
		},
		GRPC: GRPCConfig{
			Address: "localhost:50051",
			Enabled: true,
		},
		Kernel: KernelConfig{
			AutoInit:       true,
			SampleInterval: 5 * time.Second,
			StreamInterval: time.Second,
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "aurora.kernel",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("server port %q is not a valid TCP port", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max connections must not be negative, got %d", c.Server.MaxConnections))
	}
	if c.GRPC.Enabled && c.GRPC.Address == "" {
		errs = append(errs, errors.New("grpc is enabled but has no address"))
	}
	if c.Kernel.SampleInterval <= 0 {
		errs = append(errs, fmt.Errorf("kernel sample interval must be positive, got %s", c.Kernel.SampleInterval))
	}
	if c.Kernel.StreamInterval <= 0 {
		errs = append(errs, fmt.Errorf("kernel stream interval must be positive, got %s", c.Kernel.StreamInterval))
	}
	if c.Events.Enabled && (c.Events.NATSURL == "" || c.Events.Subject == "") {
		errs = append(errs, errors.New("events are enabled but nats url or subject is empty"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, fmt.Errorf("rate limit needs positive rps and burst, got %d/%d",
			c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
