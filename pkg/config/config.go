// Package config defines the configuration records exchanged with the
// library: per-server connection settings, the retry policy, and
// multi-server group wiring. Load reads them from a YAML file plus
// NNTP_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default ports per the NNTP registrations: 119 plain, 563 implicit
// TLS.
const (
	DefaultPort    = 119
	DefaultTLSPort = 563
)

// ServerConfig describes one news server endpoint.
type ServerConfig struct {
	// Host is the server name or address.
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// Port is the TCP port; zero selects the default for the chosen
	// transport (119 plain, 563 TLS).
	Port int `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`

	// TLS enables implicit TLS on connect.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// AllowInsecureTLS skips certificate verification. Test servers
	// only.
	AllowInsecureTLS bool `mapstructure:"allow_insecure_tls" yaml:"allow_insecure_tls"`

	// Username and Password authenticate after connect; both empty
	// leaves the connection unauthenticated.
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// EffectivePort returns Port, or the transport default when unset.
func (c ServerConfig) EffectivePort() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.TLS {
		return DefaultTLSPort
	}
	return DefaultPort
}

// Addr returns the host:port dial string.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.EffectivePort())
}

// RetryConfig is the exponential backoff policy used for connection
// establishment and replacement.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first failure.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0" yaml:"max_retries"`

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gte=0" yaml:"initial_backoff"`

	// MaxBackoff caps the growing delay.
	MaxBackoff time.Duration `mapstructure:"max_backoff" validate:"gte=0" yaml:"max_backoff"`

	// BackoffMultiplier is the growth factor between attempts.
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" validate:"gte=1" yaml:"backoff_multiplier"`

	// Jitter randomizes each delay within [0.5x, 1.5x] when true.
	Jitter bool `mapstructure:"jitter" yaml:"jitter"`
}

// DefaultRetryConfig returns the policy used when the caller specifies
// none.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// GroupConfig wires several endpoints into one failover group. Servers
// and Priorities are parallel lists; an empty Priorities list means all
// endpoints share priority 0.
type GroupConfig struct {
	Servers    []ServerConfig `mapstructure:"servers" validate:"required,min=1,dive" yaml:"servers"`
	Priorities []int          `mapstructure:"priorities" yaml:"priorities"`

	// Strategy selects the routing policy: "primary", "round-robin",
	// or "round-robin-healthy".
	Strategy string `mapstructure:"strategy" validate:"omitempty,oneof=primary round-robin round-robin-healthy" yaml:"strategy"`

	// PoolSize is the per-endpoint connection pool capacity.
	PoolSize int `mapstructure:"pool_size" validate:"gte=0" yaml:"pool_size"`

	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`
}

// Validate checks the struct tags plus the cross-field rules the tags
// cannot express.
func (c *GroupConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.Priorities) != 0 && len(c.Priorities) != len(c.Servers) {
		return fmt.Errorf("config: %d servers but %d priorities", len(c.Servers), len(c.Priorities))
	}
	return nil
}

// Config is the root of the loadable configuration file.
type Config struct {
	// Server is the single-endpoint configuration used by the simple
	// client paths.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Group is the optional multi-endpoint configuration.
	Group GroupConfig `mapstructure:"group" yaml:"group"`

	// Default newsgroups for the CLI.
	DefaultGroup       string `mapstructure:"default_group" yaml:"default_group"`
	DefaultBinaryGroup string `mapstructure:"default_binary_group" yaml:"default_binary_group"`
}

// Load reads configuration from an optional YAML file with NNTP_*
// environment overrides layered on top, then validates. An empty path
// uses environment variables and defaults only.
//
// Environment names map dotted keys with underscores, so server.host
// becomes NNTP_SERVER_HOST. The flat NNTP_HOST, NNTP_PORT, NNTP_USER,
// NNTP_PASS, NNTP_GROUP, and NNTP_BINARY_GROUP names used by the test
// tooling are honored as aliases.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NNTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyEnvAliases(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Host != "" {
		if err := validator.New().Struct(cfg.Server); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if len(cfg.Group.Servers) > 0 {
		if err := cfg.Group.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// applyEnvAliases honors the flat legacy environment names.
func applyEnvAliases(cfg *Config) {
	if h := os.Getenv("NNTP_HOST"); h != "" {
		cfg.Server.Host = h
	}
	if p := os.Getenv("NNTP_PORT"); p != "" {
		var port int
		if _, err := fmt.Sscanf(p, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if u := os.Getenv("NNTP_USER"); u != "" {
		cfg.Server.Username = u
	}
	if p := os.Getenv("NNTP_PASS"); p != "" {
		cfg.Server.Password = p
	}
	if g := os.Getenv("NNTP_GROUP"); g != "" {
		cfg.DefaultGroup = g
	}
	if g := os.Getenv("NNTP_BINARY_GROUP"); g != "" {
		cfg.DefaultBinaryGroup = g
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = "alt.test"
	}
	if cfg.DefaultBinaryGroup == "" {
		cfg.DefaultBinaryGroup = "alt.binaries.test"
	}
	if cfg.Group.Strategy == "" {
		cfg.Group.Strategy = "primary"
	}
	if cfg.Group.PoolSize == 0 {
		cfg.Group.PoolSize = 4
	}
	if cfg.Group.Retry == (RetryConfig{}) {
		cfg.Group.Retry = DefaultRetryConfig()
	}
}

// Save writes the configuration to path in YAML form, 0600 because it
// may hold credentials.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
