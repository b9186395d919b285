// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Startup configuration: how many buffers each class gets, the acquire
// policy, logging and metrics. Loaded with viper, checked with validator.

package control

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/internal/logger"
	"github.com/momentics/hcibuf/pool"
)

// EnvPrefix prefixes environment overrides, e.g. HCIBUF_POOL_INBOUND=6.
const EnvPrefix = "HCIBUF"

// Config is the full configuration surface.
type Config struct {
	Pool    PoolConfig    `mapstructure:"pool" yaml:"pool"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// PoolConfig sizes the pool. NumBuffers is fixed for the pool's lifetime.
type PoolConfig struct {
	NumBuffers     int           `mapstructure:"num_buffers" validate:"min=2" yaml:"num_buffers"`
	Inbound        int           `mapstructure:"inbound" validate:"gte=0" yaml:"inbound"`
	Outbound       int           `mapstructure:"outbound" validate:"gte=0" yaml:"outbound"`
	Policy         string        `mapstructure:"policy" validate:"oneof=immediate blocking" yaml:"policy"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" validate:"gte=0" yaml:"acquire_timeout"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" validate:"required_if=Enabled true" yaml:"listen"`
}

// DefaultConfig matches the classic layout: 20 buffers, 5 per ACL direction.
func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			NumBuffers:     pool.NumBuffers,
			Inbound:        5,
			Outbound:       5,
			Policy:         api.PolicyImmediate.String(),
			AcquireTimeout: api.DefaultAcquireTimeout,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Listen: ":9464",
		},
	}
}

// LoggerConfig converts the logging section.
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Format: c.Logging.Format, Output: c.Logging.Output}
}

// LoadConfig reads path (if non-empty) over the defaults, applies HCIBUF_*
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("pool.num_buffers", d.Pool.NumBuffers)
	v.SetDefault("pool.inbound", d.Pool.Inbound)
	v.SetDefault("pool.outbound", d.Pool.Outbound)
	v.SetDefault("pool.policy", d.Pool.Policy)
	v.SetDefault("pool.acquire_timeout", d.Pool.AcquireTimeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the control-traffic floor.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", api.ErrInvalidArgument, strings.Join(msgs, "; "))
		}
		return err
	}
	p := cfg.Pool
	if p.Inbound+p.Outbound > p.NumBuffers-pool.MinControlBuffers {
		return api.ErrTooManyDataBuffers.
			WithContext("inbound", p.Inbound).
			WithContext("outbound", p.Outbound).
			WithContext("num_buffers", p.NumBuffers)
	}
	return nil
}

// NewPool builds and initializes a pool from cfg.
func NewPool(cfg Config, opts ...pool.Option) (*pool.Pool, error) {
	policy, err := api.ParseAcquirePolicy(cfg.Pool.Policy)
	if err != nil {
		return nil, err
	}
	all := append([]pool.Option{
		pool.WithNumBuffers(cfg.Pool.NumBuffers),
		pool.WithAcquirePolicy(policy),
		pool.WithAcquireTimeout(cfg.Pool.AcquireTimeout),
	}, opts...)
	p := pool.New(all...)
	if err := p.Initialize(cfg.Pool.Inbound, cfg.Pool.Outbound); err != nil {
		return nil, err
	}
	return p, nil
}
