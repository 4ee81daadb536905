// Package worker는 Redis 메일 큐를 구독하여 SMTP로 이메일을 발송합니다.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
)

// Subscriber 메일 큐 구독 인터페이스
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan messaging.Message, error)
}

// Sender 이메일 발송 인터페이스
type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Config 워커 설정
type Config struct {
	Channel     string
	Pacing      time.Duration
	SendTimeout time.Duration
}

// Stats 워커 처리 통계
type Stats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// MailWorker 큐에서 받은 메시지를 순서대로 한 통씩 발송합니다.
// 발송 실패는 기록만 하고 재시도하지 않습니다.
type MailWorker struct {
	subscriber Subscriber
	sender     Sender
	config     Config
	logger     *zap.Logger

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	running   atomic.Bool
}

// NewMailWorker 메일 워커 생성
func NewMailWorker(subscriber Subscriber, sender Sender, config Config, logger *zap.Logger) *MailWorker {
	if config.SendTimeout <= 0 {
		config.SendTimeout = 30 * time.Second
	}
	return &MailWorker{
		subscriber: subscriber,
		sender:     sender,
		config:     config,
		logger:     logger,
	}
}

// Run 구독을 시작하고 ctx가 취소되거나 구독 채널이 닫힐 때까지 메시지를 처리합니다.
func (w *MailWorker) Run(ctx context.Context) error {
	messages, err := w.subscriber.Subscribe(ctx, w.config.Channel)
	if err != nil {
		return fmt.Errorf("메일 큐 구독 실패: %w", err)
	}

	w.running.Store(true)
	defer w.running.Store(false)

	w.logger.Info("메일 큐 구독 시작", zap.String("channel", w.config.Channel))

	var lastSend time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				w.logger.Info("메일 큐 구독 종료", zap.String("channel", w.config.Channel))
				return nil
			}

			// 발송 간 최소 간격 유지
			if wait := w.config.Pacing - time.Since(lastSend); !lastSend.IsZero() && wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil
				}
			}

			if w.handle(ctx, msg) {
				lastSend = time.Now()
			}
		}
	}
}

// handle 메시지 한 건을 발송하고, SMTP 발송을 시도했는지 반환합니다.
func (w *MailWorker) handle(ctx context.Context, raw messaging.Message) bool {
	var msg mail.Message
	if err := raw.Decode(&msg); err != nil {
		w.dropped.Add(1)
		w.logger.Warn("잘못된 메일 메시지 폐기", zap.Error(err))
		return false
	}
	if msg.To == "" {
		w.dropped.Add(1)
		w.logger.Warn("수신자 없는 메일 메시지 폐기", zap.String("tag", msg.Tag))
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, msg); err != nil {
		w.failed.Add(1)
		return true
	}
	w.delivered.Add(1)
	return true
}

// Stats 현재까지의 처리 통계
func (w *MailWorker) Stats() Stats {
	return Stats{
		Delivered: w.delivered.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}

// Running 구독 중인지 여부
func (w *MailWorker) Running() bool {
	return w.running.Load()
}
