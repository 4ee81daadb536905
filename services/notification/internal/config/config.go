package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/shivam7053/raga-vachika/pkg/config"
	"github.com/shivam7053/raga-vachika/pkg/logger"
	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
)

type Config struct {
	Service ServiceConfig         `mapstructure:"service"`
	HTTP    HTTPConfig            `mapstructure:"http"`
	Log     logger.Config         `mapstructure:"log"`
	Redis   messaging.RedisConfig `mapstructure:"redis"`
	Email   mail.SMTPConfig       `mapstructure:"email"`
	Worker  WorkerConfig          `mapstructure:"worker"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type WorkerConfig struct {
	// Channel must match the payment service's notification.channel
	Channel string `mapstructure:"channel"`
	// Pacing is the minimum interval between two SMTP sends
	Pacing      time.Duration `mapstructure:"pacing"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// LoadConfig loads configs/{APP_ENV}/notification.yaml with NOTIFICATION_ env overrides
func LoadConfig() (*Config, error) {
	src, err := pkgconfig.Load("notification")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return fromSource(src)
}

// LoadConfigFrom is LoadConfig with an explicit config root
func LoadConfigFrom(root string) (*Config, error) {
	src, err := pkgconfig.LoadFrom("notification", root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return fromSource(src)
}

func fromSource(src pkgconfig.Config) (*Config, error) {
	cfg := Default()
	if err := src.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", src.ConfigFile(), err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "notification", Environment: "dev"},
		HTTP:    HTTPConfig{Port: 8081},
		Log:     logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Redis:   messaging.RedisConfig{Addr: "localhost:6379"},
		Email:   mail.SMTPConfig{Port: 587},
		Worker: WorkerConfig{
			Channel:     "mail.outbound",
			Pacing:      700 * time.Millisecond,
			SendTimeout: 30 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if c.Worker.Channel == "" {
		return fmt.Errorf("worker.channel is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Email.Host == "" || c.Email.From == "" {
		return fmt.Errorf("email.host and email.from are required")
	}
	if c.Worker.Pacing < 0 {
		return fmt.Errorf("worker.pacing must not be negative")
	}
	return nil
}
