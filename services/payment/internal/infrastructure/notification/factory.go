package notification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

// NewMailer builds the configured email transport. The disabled transport returns a nil
// mailer, which turns email dispatch and reminders into no-ops. The returned close func
// is never nil.
func NewMailer(cfg *config.Config, logger *zap.Logger) (usecase.Mailer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Notification.Transport {
	case config.TransportSMTP:
		if cfg.Email.Host == "" || cfg.Email.From == "" {
			return nil, noop, fmt.Errorf("smtp transport requires email.host and email.from")
		}
		logger.Info("Email transport: SMTP", zap.String("host", cfg.Email.Host))
		return mail.NewSMTPClient(cfg.Email, logger), noop, nil

	case config.TransportRedis:
		client, err := messaging.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect mail queue: %w", err)
		}
		logger.Info("Email transport: Redis queue",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Notification.Channel))
		queue := NewRedisMailQueue(client, cfg.Notification.Channel, logger)
		return queue, queue.Close, nil

	case config.TransportDisabled, "":
		logger.Warn("Email transport disabled, confirmations and reminders will not be sent")
		return nil, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown notification transport %q", cfg.Notification.Transport)
}
