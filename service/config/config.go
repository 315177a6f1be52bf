package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration.
// Values come from defaults, then an optional YAML file, then environment
// variables; command-line flags are applied on top by the caller.
type Config struct {
	// rippled JSON-RPC endpoint
	RippledHost   string        `yaml:"rippled_host"`
	RippledPort   int           `yaml:"rippled_port"`
	RippledScheme string        `yaml:"rippled_scheme"`
	RPCTimeout    time.Duration `yaml:"rpc_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Optional outputs
	NATSURL     string `yaml:"nats_url"`
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		RippledHost:   "s2.ripple.com",
		RippledPort:   51234,
		RippledScheme: "http",
		RPCTimeout:    30 * time.Second,
		LogLevel:      "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and environment variables, then validates it.
// Returns an error listing every invalid setting.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	var errs []error

	// rippled configuration
	cfg.RippledHost = getEnvOrDefault("RIPPLED_HOST", cfg.RippledHost)
	cfg.RippledScheme = getEnvOrDefault("RIPPLED_SCHEME", cfg.RippledScheme)

	port, err := parseInt("RIPPLED_PORT", cfg.RippledPort)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RippledPort = port
	}

	timeout, err := parseDuration("RPC_TIMEOUT", cfg.RPCTimeout)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RPCTimeout = timeout
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.NATSURL = getEnvOrDefault("NATS_URL", cfg.NATSURL)
	cfg.MetricsFile = getEnvOrDefault("METRICS_FILE", cfg.MetricsFile)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays the values present in a YAML file onto c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Callers that override fields after Load should validate again.
func (c *Config) Validate() error {
	var errs []error

	if c.RippledHost == "" {
		errs = append(errs, fmt.Errorf("RippledHost is required"))
	}

	if c.RippledPort < 1 || c.RippledPort > 65535 {
		errs = append(errs, fmt.Errorf("RippledPort must be between 1 and 65535, got %d", c.RippledPort))
	}

	if c.RippledScheme != "http" && c.RippledScheme != "https" {
		errs = append(errs, fmt.Errorf("RippledScheme must be http or https, got %q", c.RippledScheme))
	}

	if c.RPCTimeout < 0 {
		errs = append(errs, fmt.Errorf("RPCTimeout cannot be negative"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel must be one of debug, info, warn, error, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// Address returns host:port of the rippled endpoint.
func (c *Config) Address() string {
	return net.JoinHostPort(c.RippledHost, strconv.Itoa(c.RippledPort))
}

// Endpoint returns the URL JSON-RPC requests are posted to.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("%s://%s/", c.RippledScheme, c.Address())
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
