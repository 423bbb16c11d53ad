package service

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultHost is the only bind host; it is not configurable.
	DefaultHost = "0.0.0.0"
	DefaultPort = 8080

	// EnvPort overrides the listen port.
	EnvPort = "SANDBOX_SERVER_PORT"
	// legacyEnvPort is the misspelled variable older deployments still set.
	legacyEnvPort = "SANBOX_SERVER_PORT"
	EnvLogLevel   = "SANDBOX_LOG_LEVEL"
	EnvLogFormat  = "SANDBOX_LOG_FORMAT"

	// EnvMetricsPort enables the Prometheus listener on that port.
	EnvMetricsPort = "SANDBOX_METRICS_PORT"
)

// Config configures the sandbox HTTP service.
type Config struct {
	// Host is always DefaultHost after LoadConfig.
	Host string `mapstructure:"host" validate:"required"`

	// Port is the TCP port to listen on.
	// Default: 8080
	Port int `mapstructure:"port" validate:"min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0"`

	// IdleTimeout is how long keep-alive connections may sit idle.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout bounds graceful shutdown once the serve context is cancelled.
	// Default: 5s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat is json or console.
	// Default: json
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	// MetricsPort serves Prometheus metrics at /metrics on a separate listener.
	// Default: 0 (disabled)
	MetricsPort int `mapstructure:"metrics_port" validate:"min=0,max=65535,nefield=Port"`
}

var validate = validator.New()

// applyDefaults fills in zero values.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// Validate checks the configuration after defaults have been applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	return nil
}

// Addr is the host:port the server binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MetricsAddr is the host:port of the metrics listener, or "" when it is disabled.
func (c Config) MetricsAddr() string {
	if c.MetricsPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.MetricsPort))
}

// LoadConfig builds a Config from v, which may already have command-line flags bound to
// it. The port and logging settings can come from the environment; the host cannot.
func LoadConfig(v *viper.Viper) (Config, error) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	if err := v.BindEnv("port", EnvPort, legacyEnvPort); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("log_level", EnvLogLevel); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("log_format", EnvLogFormat); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("metrics_port", EnvMetricsPort); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding service configuration: %w", err)
	}
	cfg.Host = DefaultHost
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
