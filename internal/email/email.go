// Package email sends operational notifications: new leads and urgent
// work orders. Delivery is best effort and runs off the request path;
// a down SMTP relay never fails the originating request.
package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// Sender delivers one message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implements Sender over SMTP with STARTTLS negotiation.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

// FromConfig returns an SMTP sender, or a logging no-op when SMTP is
// disabled so callers never branch on configuration.
func FromConfig(cfg *config.Config) Sender {
	if !cfg.SMTP.Enabled {
		return noop{}
	}
	return &SMTPSender{
		Host: cfg.SMTP.Host,
		Port: cfg.SMTP.Port,
		From: cfg.SMTP.From,
		User: cfg.SMTP.User,
		Pass: cfg.SMTP.Pass,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("SMTPSender"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
	)
	log.Debug("sending email", logger.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative when both bodies are present
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type noop struct{}

func (noop) Send(to, subject, _, _ string) error {
	logger.L().Debug("email disabled, dropping message",
		logger.String("subject", subject))
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = noop{}
)
