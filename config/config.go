package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// envPrefix scopes environment variable overrides, so
// COGNITIVE_SERVER_ADDRESS overrides server.address.
const envPrefix = "COGNITIVE"

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	AddSource bool   `mapstructure:"add_source"`
}

type HealthConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type RoutingConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
}

type MemoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ProcessingConfig struct {
	MaxTextLength int `mapstructure:"max_text_length"`
	MaxAudioBytes int `mapstructure:"max_audio_bytes"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Health     HealthConfig     `mapstructure:"health"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Processing ProcessingConfig `mapstructure:"processing"`
}

// Load reads configuration from the file at path, or from an optional
// config.yaml in ./config or the working directory when path is empty.
// Environment variables prefixed with COGNITIVE_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("health.interval", "60s")
	v.SetDefault("health.retry_delay", "5s")
	v.SetDefault("routing.failure_threshold", 5)
	v.SetDefault("memory.enabled", true)
	v.SetDefault("memory.path", "data/memory.json")
	v.SetDefault("processing.max_text_length", 10000)
	v.SetDefault("processing.max_audio_bytes", 5<<20)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server, validation.By(validateServerSection)),
		validation.Field(&c.Logging, validation.By(validateLoggingSection)),
		validation.Field(&c.Health, validation.By(validateHealthSection)),
		validation.Field(&c.Routing, validation.By(validateRoutingSection)),
		validation.Field(&c.Processing, validation.By(validateProcessingSection)),
	)
}

func validateServerSection(value interface{}) error {
	sc, ok := value.(ServerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServerConfig")
	}
	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Address,
			validation.Required,
			validation.By(validateHostPort),
		),
		validation.Field(&sc.Environment,
			validation.Required,
			validation.In(EnvDevelopment, EnvStaging, EnvProduction),
		),
		validation.Field(&sc.ReadTimeout, validation.By(validatePositiveDuration)),
		validation.Field(&sc.WriteTimeout, validation.By(validatePositiveDuration)),
		validation.Field(&sc.IdleTimeout, validation.By(validatePositiveDuration)),
		validation.Field(&sc.ShutdownTimeout, validation.By(validatePositiveDuration)),
	)
}

func validateLoggingSection(value interface{}) error {
	lc, ok := value.(LoggingConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
	}
	return validation.ValidateStruct(&lc,
		validation.Field(&lc.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func validateHealthSection(value interface{}) error {
	hc, ok := value.(HealthConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HealthConfig")
	}
	return validation.ValidateStruct(&hc,
		validation.Field(&hc.Interval, validation.By(validatePositiveDuration)),
		validation.Field(&hc.RetryDelay, validation.By(validatePositiveDuration)),
	)
}

func validateRoutingSection(value interface{}) error {
	rc, ok := value.(RoutingConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a RoutingConfig")
	}
	return validation.ValidateStruct(&rc,
		validation.Field(&rc.FailureThreshold, validation.Required, validation.Min(1)),
	)
}

func validateProcessingSection(value interface{}) error {
	pc, ok := value.(ProcessingConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ProcessingConfig")
	}
	return validation.ValidateStruct(&pc,
		validation.Field(&pc.MaxTextLength, validation.Required, validation.Min(1)),
		validation.Field(&pc.MaxAudioBytes, validation.Required, validation.Min(1)),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	d, ok := value.(time.Duration)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a duration")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be a positive duration")
	}

	return nil
}
