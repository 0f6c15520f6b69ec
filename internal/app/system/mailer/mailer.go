// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when Email.To is empty.
var ErrNoRecipient = errors.New("email has no recipient")

// Email is one message with a plain-text and an HTML body.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. An empty Host disables sending.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends Email over SMTP.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send func(msg *mail.Msg) error
}

// New builds a Mailer. PLAIN auth is used only when a user is configured.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{cfg: cfg, log: logger}
	m.send = m.dialAndSend
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != ""
}

// Send delivers e. When the mailer is disabled the message is logged and
// dropped.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	if !m.Enabled() {
		m.log.Info("mail disabled; not sending", zap.String("to", e.To), zap.String("subject", e.Subject))
		return nil
	}

	msg, err := m.build(e)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", e.To, err)
	}
	return nil
}

func (m *Mailer) build(e Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.cfg.From, err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", e.To, err)
	}
	msg.Subject(e.Subject)
	msg.SetDate()

	switch {
	case e.TextBody != "" && e.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	case e.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, e.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	}
	return msg, nil
}

func (m *Mailer) dialAndSend(msg *mail.Msg) error {
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if m.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(m.cfg.Port))
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSend(msg)
}
