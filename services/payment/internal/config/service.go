package config

import "time"

const (
	defaultGatewayTimeout = 15 * time.Second
	defaultBaseBackoff    = time.Second
	defaultMaxBackoff     = 5 * time.Second
	defaultSendTimeout    = 30 * time.Second
	defaultReminderWindow = 12 * time.Hour
	defaultReminderPacing = 700 * time.Millisecond
)

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	// SiteURL is the public web app base used in email links
	SiteURL string `mapstructure:"site_url"`
	// CronSecret authorizes the internal reminder endpoint
	CronSecret string `mapstructure:"cron_secret"`
}

type RazorpayConfig struct {
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LedgerConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

// Notification transports
const (
	TransportSMTP     = "smtp"
	TransportRedis    = "redis"
	TransportDisabled = "disabled"
)

type NotificationConfig struct {
	Transport string `mapstructure:"transport"`
	// Channel is the Redis channel the notification service subscribes to
	Channel        string        `mapstructure:"channel"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	ReminderWindow time.Duration `mapstructure:"reminder_window"`
	ReminderPacing time.Duration `mapstructure:"reminder_pacing"`
}
