// Package email delivers messages via SMTP with STARTTLS.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/icnsas/payslip-vault/internal/notifications"
)

// ErrSenderDisabled is returned when sending is attempted while the
// transport is disabled by configuration.
var ErrSenderDisabled = errors.New("email sender is disabled")

// Config holds email sender configuration.
type Config struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SendRate     float64 // messages per second
}

// Sender implements notifications.Sender via SMTP.
type Sender struct {
	config  Config
	auth    smtp.Auth
	limiter *rate.Limiter
}

// NewSender creates a new email sender.
// Returns error if enabled but required config is missing.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled && config.SMTPHost == "" {
		return nil, errors.New("email sender: SMTP host is required when enabled")
	}

	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}
	if config.SendRate <= 0 {
		config.SendRate = 5
	}

	var auth smtp.Auth
	if config.SMTPUser != "" && config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	}

	slog.Info("email sender configured",
		"enabled", config.Enabled,
		"smtp_host", config.SMTPHost,
		"smtp_port", config.SMTPPort,
		"send_rate", config.SendRate,
	)

	return &Sender{
		config:  config,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(config.SendRate), 1),
	}, nil
}

// Send delivers a single message. Sends are throttled so batch-driven
// delivery does not trip SMTP server limits.
func (s *Sender) Send(ctx context.Context, msg notifications.Message) error {
	if !s.config.Enabled {
		return ErrSenderDisabled
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	raw, err := buildMessage(msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	return s.sendWithSTARTTLS(ctx, addr, tlsConfig, msg, raw)
}

// buildMessage constructs a MIME multipart/mixed message with the body
// as text/plain and each attachment base64-encoded.
func buildMessage(msg notifications.Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", `text/plain; charset="utf-8"`)
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := part.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	for _, att := range msg.Attachments {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", att.ContentType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := mw.CreatePart(attHeader)
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		if err := writeBase64(part, att.Content); err != nil {
			return nil, fmt.Errorf("write attachment: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	// Headers in deterministic order
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary()))
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())

	return buf.Bytes(), nil
}

// writeBase64 writes base64 content wrapped at 76 columns per RFC 2045.
func writeBase64(w io.Writer, content []byte) error {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := min(76, len(encoded))
		if _, err := w.Write([]byte(encoded[:n])); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

// sendWithSTARTTLS sends the message using STARTTLS (port 587).
func (s *Sender) sendWithSTARTTLS(ctx context.Context, addr string, tlsConfig *tls.Config, msg notifications.Message, raw []byte) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	// STARTTLS if available
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(extractEmail(msg.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

// extractEmail extracts the email address from formats like "Name <email@example.com>".
func extractEmail(address string) string {
	if idx := strings.Index(address, "<"); idx != -1 {
		end := strings.Index(address, ">")
		if end > idx {
			return address[idx+1 : end]
		}
	}
	return address
}
