// Package config loads the transmitter's startup configuration: credentials and
// connection settings from the environment, tunables from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the optional settings are absent.
const (
	DefaultRedisURL   = "redis://redis:6379"
	DefaultKeyPrefix  = "lorabridge"
	DefaultStatusKey  = "txstatus"
	DefaultHealthAddr = ":8080"
)

// Tunables are the optional timing and framing knobs read from the YAML file.
type Tunables struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval,omitempty"` // Tick cadence while the link is down (default 60s)
	DrainInterval     time.Duration `yaml:"drain_interval,omitempty"`     // Tick cadence while the link is up (default 5s)
	Port              int           `yaml:"port,omitempty"`               // LoRaWAN FPort, 1..223 (default 1)
	MaxPayload        int           `yaml:"max_payload,omitempty"`        // Payload cap in bytes (default: radio frame size)
	RedisTimeout      time.Duration `yaml:"redis_timeout,omitempty"`      // Dial and per-tick query timeout (default 1.5s)
}

// Config holds the transmitter's runtime configuration.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// DevEUI is the hexadecimal device identity (from DEV_EUI, 16 characters)
	DevEUI string

	// DevKey is the hexadecimal device secret (from DEV_KEY, 32 characters)
	DevKey string

	// UseLoRaBridgeGateway selects the LoRaBridge join-channel plan (from USE_LB_GW, "0" or "1")
	UseLoRaBridgeGateway bool

	// RedisURL is the queue store connection string (from REDIS_URL)
	RedisURL string

	// KeyPrefix namespaces the queue keys (from LORATX_KEY_PREFIX)
	KeyPrefix string

	// StatusKey is where status tokens are written (from LORATX_STATUS_KEY)
	StatusKey string

	// HealthAddr is the listen address of the health endpoint (from LORATX_HEALTH_ADDR)
	HealthAddr string

	Tunables Tunables
}

// LoadEnvFile loads KEY=value pairs from path into the environment.
// Variables already set are not overridden.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadTunables reads and validates the YAML tunables file.
func LoadTunables(path string) (*Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &t, nil
}

// Validate rejects out-of-range tunables. Zero values mean "use the default".
func (t *Tunables) Validate() error {
	if t.HeartbeatInterval < 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %s", t.HeartbeatInterval)
	}
	if t.DrainInterval < 0 {
		return fmt.Errorf("drain_interval must be positive, got %s", t.DrainInterval)
	}
	if t.RedisTimeout < 0 {
		return fmt.Errorf("redis_timeout must be positive, got %s", t.RedisTimeout)
	}
	if t.Port != 0 && (t.Port < 1 || t.Port > 223) {
		return fmt.Errorf("port must be between 1 and 223, got %d", t.Port)
	}
	if t.MaxPayload < 0 {
		return fmt.Errorf("max_payload must be >= 0, got %d", t.MaxPayload)
	}
	return nil
}

// Load reads configuration from environment variables and, if tunablesPath is
// not empty, the YAML tunables file. Returns an error if any required variable
// is missing or invalid.
func Load(tunablesPath string) (*Config, error) {
	cfg := LoadStore()
	cfg.DevEUI = os.Getenv("DEV_EUI")
	cfg.DevKey = os.Getenv("DEV_KEY")
	cfg.HealthAddr = envOr("LORATX_HEALTH_ADDR", DefaultHealthAddr)

	gw, ok := os.LookupEnv("USE_LB_GW")
	if !ok || gw == "" {
		return nil, fmt.Errorf("USE_LB_GW environment variable is required")
	}
	switch gw {
	case "0":
		cfg.UseLoRaBridgeGateway = false
	case "1":
		cfg.UseLoRaBridgeGateway = true
	default:
		return nil, fmt.Errorf("illegal USE_LB_GW value: expected 1/0, got %q", gw)
	}

	if tunablesPath != "" {
		t, err := LoadTunables(tunablesPath)
		if err != nil {
			return nil, err
		}
		cfg.Tunables = *t
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStore reads only the queue store settings. Used by the operator
// subcommands that never touch the radio.
func LoadStore() *Config {
	return &Config{
		RedisURL:  envOr("REDIS_URL", DefaultRedisURL),
		KeyPrefix: envOr("LORATX_KEY_PREFIX", DefaultKeyPrefix),
		StatusKey: envOr("LORATX_STATUS_KEY", DefaultStatusKey),
	}
}

// Validate checks that all required configuration fields are present.
// Returns the first validation error encountered. Credential length and
// digits are checked by credentials.Load.
func (c *Config) Validate() error {
	if c.DevEUI == "" {
		return fmt.Errorf("DEV_EUI environment variable is required")
	}

	if c.DevKey == "" {
		return fmt.Errorf("DEV_KEY environment variable is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL cannot be empty")
	}

	return c.Tunables.Validate()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
