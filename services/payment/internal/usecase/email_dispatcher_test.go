package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

func TestEmailDispatcher(t *testing.T) {
	t.Run("delivers in the background", func(t *testing.T) {
		mailer := &recordingMailer{}
		d := usecase.NewEmailDispatcher(mailer, zap.NewNop(), time.Second)

		d.Dispatch(mail.Message{To: "a@example.test", Subject: "hi", Tag: "test"})
		d.Dispatch(mail.Message{Subject: "no recipient"})

		require.NoError(t, d.Wait(context.Background()))
		assert.Len(t, mailer.messages(), 1)
	})

	t.Run("swallows task errors and panics", func(t *testing.T) {
		d := usecase.NewEmailDispatcher(&recordingMailer{}, zap.NewNop(), time.Second)

		d.Go("failing", func(ctx context.Context) error { return errors.New("boom") })
		d.Go("panicking", func(ctx context.Context) error { panic("boom") })

		assert.NoError(t, d.Wait(context.Background()))
	})

	t.Run("wait honours its context", func(t *testing.T) {
		d := usecase.NewEmailDispatcher(&recordingMailer{}, zap.NewNop(), time.Minute)
		release := make(chan struct{})
		d.Go("blocked", func(ctx context.Context) error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.Error(t, d.Wait(ctx))
		close(release)
		assert.NoError(t, d.Wait(context.Background()))
	})

	t.Run("nil mailer disables delivery", func(t *testing.T) {
		d := usecase.NewEmailDispatcher(nil, zap.NewNop(), time.Second)

		assert.False(t, d.Enabled())
		d.Dispatch(mail.Message{To: "a@example.test"})
		assert.NoError(t, d.Wait(context.Background()))
	})
}
