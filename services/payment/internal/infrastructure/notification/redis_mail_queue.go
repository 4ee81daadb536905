package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
)

// RedisMailQueue hands outgoing email to the notification service over Redis pub/sub.
// Delivery is at most once: a message published while no worker is subscribed is lost.
type RedisMailQueue struct {
	client  messaging.RedisClient
	channel string
	logger  *zap.Logger
}

// NewRedisMailQueue creates a queue publishing to channel
func NewRedisMailQueue(client messaging.RedisClient, channel string, logger *zap.Logger) *RedisMailQueue {
	return &RedisMailQueue{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Send publishes msg as JSON
func (q *RedisMailQueue) Send(ctx context.Context, msg mail.Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail message has no recipient")
	}

	if err := q.client.Publish(ctx, q.channel, msg); err != nil {
		return fmt.Errorf("failed to publish mail message: %w", err)
	}

	q.logger.Debug("Mail message queued",
		zap.String("channel", q.channel),
		zap.String("tag", msg.Tag))
	return nil
}

// Close releases the Redis connection
func (q *RedisMailQueue) Close() error {
	return q.client.Close()
}
