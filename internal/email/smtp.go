package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	TLSEnabled  bool
	Timeout     time.Duration
}

// SMTPService implements the email service using SMTP
type SMTPService struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPService creates a new SMTP email service
func NewSMTPService(config SMTPConfig, logger *slog.Logger) *SMTPService {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SMTPService{
		config: config,
		logger: logger,
	}
}

// Send sends an email via SMTP. A message without From uses the configured sender.
func (s *SMTPService) Send(ctx context.Context, email Email) error {
	if email.From == "" {
		email.From = FormatAddress(s.config.FromAddress, s.config.FromName)
	}
	if err := email.Validate(); err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.config.Timeout)
	}

	conn, err := s.dial(ctx, deadline)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if s.config.TLSEnabled && !s.implicitTLS() {
		if err := client.StartTLS(s.tlsConfig()); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.config.Username != "" && s.config.Password != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(AddressOnly(email.From)); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(AddressOnly(email.To)); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	message := NewMessageBuilder().
		FromEmail(email).
		Header("Auto-Submitted", "auto-generated").
		Build()
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.logger.Warn("SMTP quit failed", "error", err)
	}

	s.logger.Info("email sent successfully",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// implicitTLS reports whether the server expects TLS from the first byte (SMTPS)
func (s *SMTPService) implicitTLS() bool {
	return s.config.TLSEnabled && s.config.Port == 465
}

func (s *SMTPService) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: s.config.Host,
		MinVersion: tls.VersionTLS12,
	}
}

func (s *SMTPService) dial(ctx context.Context, deadline time.Time) (net.Conn, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := &net.Dialer{Deadline: deadline}

	if s.implicitTLS() {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

// ValidateSMTPConfig validates SMTP configuration
func ValidateSMTPConfig(config SMTPConfig) error {
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", config.Port)
	}

	if config.FromAddress == "" {
		return fmt.Errorf("from address is required")
	}

	if _, err := mailAddress(config.FromAddress); err != nil {
		return fmt.Errorf("invalid from address format: %w", err)
	}

	if (config.Port == 465 || config.Port == 587) && !config.TLSEnabled {
		slog.Warn("TLS is disabled for secure SMTP port", "port", config.Port)
	}

	return nil
}
