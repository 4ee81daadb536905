package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
)

// Mailer delivers one email. Implementations: SMTP, Redis mail queue.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// EmailDispatcher runs notification work after a ledger commit without letting its
// failures reach the caller. Tasks run on a background context bounded by timeout.
type EmailDispatcher struct {
	mailer  Mailer
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewEmailDispatcher creates a dispatcher. A nil mailer disables delivery.
func NewEmailDispatcher(mailer Mailer, logger *zap.Logger, timeout time.Duration) *EmailDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmailDispatcher{
		mailer:  mailer,
		logger:  logger,
		timeout: timeout,
	}
}

// Enabled reports whether a mailer is configured
func (d *EmailDispatcher) Enabled() bool {
	return d != nil && d.mailer != nil
}

// Dispatch sends msg in the background
func (d *EmailDispatcher) Dispatch(msg mail.Message) {
	if !d.Enabled() {
		return
	}
	if msg.To == "" {
		d.logger.Warn("Skipping email without recipient", zap.String("tag", msg.Tag))
		return
	}

	d.Go(msg.Tag, func(ctx context.Context) error {
		return d.mailer.Send(ctx, msg)
	})
}

// Go runs fn in the background; its error is logged and dropped
func (d *EmailDispatcher) Go(task string, fn func(ctx context.Context) error) {
	if !d.Enabled() {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Notification task panicked",
					zap.String("task", task),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Error("Notification task failed",
				zap.String("task", task),
				zap.Error(err))
			return
		}
		d.logger.Debug("Notification task completed", zap.String("task", task))
	}()
}

// Wait blocks until in-flight tasks finish or ctx expires
func (d *EmailDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification tasks still running: %w", ctx.Err())
	}
}
