package config

import (
	"fmt"

	pkgconfig "github.com/shivam7053/raga-vachika/pkg/config"
	"github.com/shivam7053/raga-vachika/pkg/logger"
	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
)

type Config struct {
	Service      ServiceConfig         `mapstructure:"service"`
	Database     DatabaseConfig        `mapstructure:"database"`
	Server       ServerConfig          `mapstructure:"server"`
	Log          logger.Config         `mapstructure:"log"`
	JWT          JWTConfig             `mapstructure:"jwt"`
	Razorpay     RazorpayConfig        `mapstructure:"razorpay"`
	Ledger       LedgerConfig          `mapstructure:"ledger"`
	Notification NotificationConfig    `mapstructure:"notification"`
	Email        mail.SMTPConfig       `mapstructure:"email"`
	Redis        messaging.RedisConfig `mapstructure:"redis"`
}

// LoadConfig reads configs/{APP_ENV}/payment.yaml (or $CONFIG_PATH) with PAYMENT_* env overrides
func LoadConfig() (*Config, error) {
	src, err := pkgconfig.Load("payment")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return fromSource(src)
}

// LoadConfigFrom is LoadConfig with an explicit config root
func LoadConfigFrom(root string) (*Config, error) {
	src, err := pkgconfig.LoadFrom("payment", root)
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

// Default returns the values used for keys missing from the config file
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "payment",
			Environment: "dev",
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: defaultConnMaxLifetime,
			BoltPath:        "data/payment.db",
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{Port: 8080},
			GRPC: GRPCConfig{Port: 9090},
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Razorpay: RazorpayConfig{
			BaseURL:  "https://api.razorpay.com",
			Currency: "INR",
			Timeout:  defaultGatewayTimeout,
		},
		Ledger: LedgerConfig{
			MaxAttempts: 3,
			BaseBackoff: defaultBaseBackoff,
			MaxBackoff:  defaultMaxBackoff,
		},
		Notification: NotificationConfig{
			Transport:      TransportDisabled,
			Channel:        "mail.outbound",
			SendTimeout:    defaultSendTimeout,
			ReminderWindow: defaultReminderWindow,
			ReminderPacing: defaultReminderPacing,
		},
		Email: mail.SMTPConfig{
			Port: 587,
		},
	}
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverBolt:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Notification.Transport {
	case TransportSMTP, TransportRedis, TransportDisabled:
	default:
		return fmt.Errorf("unknown notification transport %q", c.Notification.Transport)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Razorpay.KeySecret == "" {
		return fmt.Errorf("razorpay.key_secret is required")
	}
	if c.Ledger.MaxAttempts < 1 {
		return fmt.Errorf("ledger.max_attempts must be at least 1")
	}
	return nil
}
