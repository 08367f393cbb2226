// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"

	"go.uber.org/zap"
)

// Sender delivers an email. Handlers take a Sender so tests can capture
// messages instead of dialing SMTP.
type Sender interface {
	Send(email Email) error
}

// Config is the SMTP relay and sender identity. An empty Host puts the
// mailer in log-only mode.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends account emails (password reset, password changed) over SMTP.
type Mailer struct {
	cfg  Config
	from mail.Address
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		cfg:  cfg,
		from: mail.Address{Name: cfg.FromName, Address: cfg.From},
		log:  log,
	}
}

// FromName is the sender display name, also used as the product name in
// email bodies.
func (m *Mailer) FromName() string {
	return m.cfg.FromName
}

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m *Mailer) Send(email Email) error {
	if m.cfg.Host == "" {
		m.log.Info("mail disabled, not sending",
			zap.String("to", email.To),
			zap.String("subject", email.Subject))
		return nil
	}

	msg, err := m.build(email)
	if err != nil {
		return fmt.Errorf("build email: %w", err)
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email.To}, msg); err != nil {
		m.log.Error("email send failed",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info("email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}

// build renders the RFC 5322 message. With an HTML body it is
// multipart/alternative, text part first.
func (m *Mailer) build(email Email) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", m.from.String())
	header("To", email.To)
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		buf.WriteString("\r\n")
		buf.WriteString(email.TextBody)
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", email.TextBody},
		{"text/html; charset=UTF-8", email.HTMLBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}
