// Package config loads the server configuration from an optional YAML file
// and DEBT_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins feeds the CORS headers. "*" allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// DSN is the SQLite file path or the PostgreSQL URL.
	DSN             string        `mapstructure:"dsn"`
	ConnectAttempts uint64        `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	// URL enables the dashboard cache when set, e.g. redis://localhost:6379/0.
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type NotifyConfig struct {
	// CredentialsFile is a Firebase service account JSON. Without it
	// notifications are only logged.
	CredentialsFile string        `mapstructure:"credentials_file"`
	ProjectID       string        `mapstructure:"project_id"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Spec is a standard five-field cron expression.
	Spec     string `mapstructure:"spec"`
	Timezone string `mapstructure:"timezone"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/debt-control.db")
	v.SetDefault("database.connect_attempts", 30)
	v.SetDefault("database.connect_backoff", 2*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", 30*time.Minute)

	v.SetDefault("log.level", "info")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("notify.credentials_file", "")
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.retry_backoff", 500*time.Millisecond)
	v.SetDefault("notify.max_retries", 2)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "0 20 * * *")
	v.SetDefault("scheduler.timezone", "Local")
}

// Load reads configuration from path (e.g. "config.yaml"). When path is
// empty, config.yaml is looked up in the working directory. A missing file
// is not an error: defaults and environment variables still apply.
//
// Environment overrides use the DEBT_ prefix with dots replaced by
// underscores, e.g. DEBT_SERVER_PORT=9000 or DEBT_DATABASE_DRIVER=postgres.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DEBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.JWT.Expire <= 0 {
		return errors.New("config: jwt.expire must be positive")
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return errors.New("config: scheduler.spec is required when the scheduler is enabled")
	}
	return nil
}
