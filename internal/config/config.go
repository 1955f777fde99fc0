package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "SMARTBIZ_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		AllowlistPath   string        `koanf:"allowlist_path"`
	} `koanf:"http"`

	Postgres struct {
		DSN      string `koanf:"dsn"`
		MaxConns int32  `koanf:"max_conns"`
	} `koanf:"postgres"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Kafka struct {
		Brokers          []string `koanf:"brokers"`
		TopicOrderEvents string   `koanf:"topic_order_events"`
	} `koanf:"kafka"`

	Outbox struct {
		PollInterval time.Duration `koanf:"poll_interval"`
		BatchSize    int           `koanf:"batch_size"`
	} `koanf:"outbox"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Authz struct {
		Mode          string `koanf:"mode"`
		AllowDisabled bool   `koanf:"allow_disabled"`
		ModelPath     string `koanf:"model_path"`
		PolicyPath    string `koanf:"policy_path"`
	} `koanf:"authz"`

	Assistant struct {
		Locale          string `koanf:"locale"`
		Currency        string `koanf:"currency"`
		LowStockDefault int    `koanf:"low_stock_default"`
		ListLimit       int    `koanf:"list_limit"`
		OrdersListLimit int    `koanf:"orders_list_limit"`
		LexiconPath     string `koanf:"lexicon_path"`
	} `koanf:"assistant"`
}

// Load layers dir/base.yaml, the optional dir/<envName>.yaml and SMARTBIZ_*
// environment variables (nested keys separated by "__").
func Load(dir string, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(filepath.Join(dir, "base.yaml")), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	envName = strings.TrimSpace(envName)
	if envName != "" {
		overlay := filepath.Join(dir, envName+".yaml")
		if _, err := os.Stat(overlay); err == nil {
			if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envName, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if envName != "" {
		cfg.App.Env = envName
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault walks up from the working directory to find config/base.yaml.
func LoadDefault() (Config, error) {
	dir := "config"
	for range 8 {
		if _, err := os.Stat(filepath.Join(dir, "base.yaml")); err == nil {
			return Load(dir, os.Getenv(EnvPrefix+"ENV"))
		}
		dir = filepath.Join("..", dir)
	}
	return Config{}, errors.New("config: base.yaml not found")
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "smartbiz"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Idempotency.TTL <= 0 {
		c.Idempotency.TTL = 24 * time.Hour
	}
	if c.Outbox.PollInterval <= 0 {
		c.Outbox.PollInterval = time.Second
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Security.TTL <= 0 {
		c.Security.TTL = 12 * time.Hour
	}
	if c.Assistant.Locale == "" {
		c.Assistant.Locale = "pt-BR"
	}
	if c.Assistant.Currency == "" {
		c.Assistant.Currency = "BRL"
	}
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return errors.New("security.jwt_secret must be at least 32 bytes")
	}
	if c.Security.Issuer == "" || c.Security.Audience == "" {
		return errors.New("security.issuer and security.audience required")
	}
	if c.Assistant.LowStockDefault <= 0 || c.Assistant.ListLimit <= 0 || c.Assistant.OrdersListLimit <= 0 {
		return errors.New("assistant limits must be positive")
	}
	return nil
}

// KafkaEnabled reports whether order events should be relayed.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.TopicOrderEvents != ""
}

// RedisEnabled reports whether idempotency keys are backed by redis.
func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
