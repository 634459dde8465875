package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PaymentConfig holds the payment orchestration configuration.
type PaymentConfig struct {
	// DefaultCurrency is used when a checkout request does not carry one.
	DefaultCurrency string `mapstructure:"default_currency"`
	Country         string `mapstructure:"country"`

	// PollInterval/PollCeiling drive the status poller for payments stuck
	// in a processing state.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollCeiling  time.Duration `mapstructure:"poll_ceiling"`

	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig holds per-provider static configuration. Loaded once at
// process start and read-only afterwards.
type ProviderConfig struct {
	PublicKey     string           `mapstructure:"public_key"`
	SecretKey     string           `mapstructure:"secret_key"`
	WebhookSecret string           `mapstructure:"webhook_secret"`
	Environment   string           `mapstructure:"environment"` // sandbox, production
	BaseURL       string           `mapstructure:"base_url"`
	Features      ProviderFeatures `mapstructure:"features"`
}

// ProviderFeatures holds the per-provider feature flags.
type ProviderFeatures struct {
	SaveCards     bool `mapstructure:"save_cards"`
	Subscriptions bool `mapstructure:"subscriptions"`
	Refunds       bool `mapstructure:"refunds"`
	Webhooks      bool `mapstructure:"webhooks"`
}

// placeholder values that must never reach production key material.
var placeholderKeys = []string{"", "changeme", "your_key_here", "xxx", "test", "placeholder"}

// Validate checks provider key material. Missing or placeholder keys are
// reported so operators see them at startup instead of at first charge.
func (c *PaymentConfig) Validate() error {
	var problems []string
	for name, p := range c.Providers {
		if name == "mock" || name == "offline" {
			continue // local adapters carry no key material
		}
		if p.Environment != "sandbox" && p.Environment != "production" {
			problems = append(problems, fmt.Sprintf("%s: environment must be sandbox or production, got %q", name, p.Environment))
		}
		if isPlaceholder(p.SecretKey) {
			problems = append(problems, fmt.Sprintf("%s: secret key is missing or a placeholder", name))
		}
		if p.Features.Webhooks && isPlaceholder(p.WebhookSecret) {
			problems = append(problems, fmt.Sprintf("%s: webhooks enabled but webhook secret is missing", name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("payment config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isPlaceholder(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, p := range placeholderKeys {
		if k == p {
			return true
		}
	}
	return false
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/gharseva")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	v.SetEnvPrefix("GHARSEVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if password := os.Getenv("GHARSEVA_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("GHARSEVA_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	for name, p := range cfg.Payment.Providers {
		envKey := "GHARSEVA_PAYMENT_" + strings.ToUpper(name) + "_SECRET_KEY"
		if key := os.Getenv(envKey); key != "" {
			p.SecretKey = key
			cfg.Payment.Providers[name] = p
		}
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "gharseva")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Payment defaults
	v.SetDefault("payment.default_currency", "INR")
	v.SetDefault("payment.country", "IN")
	v.SetDefault("payment.poll_interval", 2*time.Second)
	v.SetDefault("payment.poll_ceiling", 5*time.Minute)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
