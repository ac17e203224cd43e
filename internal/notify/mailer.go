package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/apperr"
)

// Attachment is a file carried by a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one email sent to every address in To.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers messages. Failures wrap apperr.ErrDelivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP relay with STARTTLS.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
	logger *zap.Logger
}

// NewMailer returns an SMTPMailer, or a LogMailer when no SMTP host is configured.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, invitations will only be logged")
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.FromAddress,
		name:   cfg.FromName,
		logger: logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDelivery, err)
	}
	if err := m.dialer.DialAndSend(buildMessage(m.from, m.name, msg)); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDelivery, err)
	}
	m.logger.Info("email sent", zap.String("subject", msg.Subject), zap.Int("recipients", len(msg.To)))
	return nil
}

func buildMessage(from, name string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	if name != "" {
		gm.SetAddressHeader("From", from, name)
	} else {
		gm.SetHeader("From", from)
	}
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	for _, a := range msg.Attachments {
		data := a.Data
		gm.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return gm
}

// LogMailer records messages in the log instead of sending them. Used when SMTP is not configured.
type LogMailer struct {
	logger *zap.Logger
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	l.logger.Info("email not sent (no SMTP relay)",
		zap.String("to", strings.Join(msg.To, ",")),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
