// Package notify delivers patient and staff notifications by email and
// WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/wneessen/go-mail"
)

// Message is one outgoing email. HTML takes precedence over Text when both
// are set; Text is then attached as the alternative part.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("email has no recipient")

// SMTPMailer delivers through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, ErrNoRecipient
	}

	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)

	switch {
	case msg.HTML != "":
		out.SetBodyString(mail.TypeTextHTML, msg.HTML)
		if msg.Text != "" {
			out.AddAlternativeString(mail.TypeTextPlain, msg.Text)
		}
	default:
		out.SetBodyString(mail.TypeTextPlain, msg.Text)
	}

	for _, path := range msg.Attachments {
		out.AttachFile(path)
	}
	return out, nil
}

// Send dials the relay and delivers msg.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer writes emails to the application log instead of sending them.
// It is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	util.Logger().Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email not sent, smtp disabled")
	return nil
}

// NewMailer picks the SMTP mailer when SMTP_HOST is set.
func NewMailer(cfg *config.Config) Mailer {
	if cfg == nil || cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}
