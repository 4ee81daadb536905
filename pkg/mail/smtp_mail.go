// Package mail은 HTML 이메일 메시지와 SMTP 발송 클라이언트를 제공합니다.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message 발송할 이메일 한 통
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	// Tag는 로그와 큐에서 메시지 종류를 구분합니다 (예: purchase_confirmation)
	Tag string `json:"tag,omitempty"`
}

func (m Message) build(from string, now time.Time) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", m.To)
	gm.SetHeader("Subject", m.Subject)
	gm.SetDateHeader("Date", now)
	gm.SetBody("text/html", m.HTML)
	return gm
}

// Render는 RFC 5322 형식의 메시지 바이트를 생성합니다.
func (m Message) Render(from string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.build(from, now).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SMTPConfig SMTP 설정 구조체
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SMTPClient SMTP를 통한 이메일 발송 클라이언트
type SMTPClient struct {
	config SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPClient SMTP 클라이언트 생성
func NewSMTPClient(cfg SMTPConfig, logger *zap.Logger) *SMTPClient {
	return &SMTPClient{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// Send 이메일 발송. ctx가 먼저 끝나면 응답을 기다리지 않고 ctx 에러를 반환합니다.
func (m *SMTPClient) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("수신자 주소가 없습니다")
	}

	if err := m.send(ctx, msg); err != nil {
		m.logger.Error("이메일 발송 실패",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("tag", msg.Tag),
			zap.Error(err),
		)
		return fmt.Errorf("이메일 발송 실패: %w", err)
	}

	m.logger.Info("이메일 발송 성공",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag),
	)
	return nil
}

func (m *SMTPClient) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// gomail 다이얼러는 context를 받지 않으므로 별도 고루틴에서 발송합니다.
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg.build(m.config.From, time.Now()))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
