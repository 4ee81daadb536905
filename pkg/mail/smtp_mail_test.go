package mail_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
)

func TestMessage_Render(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	msg := mail.Message{
		To:      "student@example.com",
		Subject: "Purchase confirmed",
		HTML:    "<p>Welcome</p>",
	}

	raw, err := msg.Render("Raga Vachika <no-reply@example.com>", now)
	require.NoError(t, err)

	headers, body, found := strings.Cut(string(raw), "\r\n\r\n")
	assert.True(t, found)
	assert.Contains(t, headers, "From: Raga Vachika <no-reply@example.com>")
	assert.Contains(t, headers, "To: student@example.com")
	assert.Contains(t, headers, "Subject: Purchase confirmed")
	assert.Contains(t, headers, "Date: Sat, 01 Mar 2025 10:30:00 +0000")
	assert.Contains(t, headers, "Content-Type: text/html")
	assert.Contains(t, body, "<p>Welcome</p>")
}

func TestMessage_RenderEncodesNonASCIISubject(t *testing.T) {
	msg := mail.Message{To: "a@example.com", Subject: "राग वाचिका"}

	raw, err := msg.Render("no-reply@example.com", time.Now())
	require.NoError(t, err)

	assert.Contains(t, string(raw), "Subject: =?UTF-8?")
	assert.NotContains(t, string(raw), "Subject: राग")
}

func TestSMTPClient_SendRequiresRecipient(t *testing.T) {
	client := mail.NewSMTPClient(mail.SMTPConfig{Host: "localhost", Port: 25}, zap.NewNop())

	err := client.Send(context.Background(), mail.Message{Subject: "x"})

	assert.Error(t, err)
}

func TestSMTPClient_SendHonorsCanceledContext(t *testing.T) {
	client := mail.NewSMTPClient(mail.SMTPConfig{Host: "localhost", Port: 25}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Send(ctx, mail.Message{To: "a@example.com", Subject: "x"})

	assert.ErrorIs(t, err, context.Canceled)
}
