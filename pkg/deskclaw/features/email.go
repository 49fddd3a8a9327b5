// Package features – email.go sends mail through an SMTP relay with
// STARTTLS auth, Gmail by default.
package features

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrEmailNotConfigured is returned when no sender credentials are set.
var ErrEmailNotConfigured = errors.New("email sender not configured")

// EmailConfig configures the mailer.
type EmailConfig struct {
	// Host is the SMTP server host.
	Host string `yaml:"host,omitempty"`

	// Port is the SMTP server port.
	Port int `yaml:"port,omitempty"`

	// Address is the sender address, also used as the auth username.
	Address string `yaml:"address,omitempty"`

	// Password is the SMTP password or app password.
	Password string `yaml:"password,omitempty"`
}

// Mailer sends plain-text mail.
type Mailer struct {
	cfg EmailConfig
}

// NewMailer creates a mailer. Host and port default to Gmail.
func NewMailer(cfg EmailConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.Address == "" || m.cfg.Password == "" {
		return ErrEmailNotConfigured
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.Address,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Address, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.Address, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
