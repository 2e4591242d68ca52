package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"portalwatch/services/monitor"

	"github.com/jordan-wright/email"
)

type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email delivers alerts over SMTP as plain-text mail. Slower and
// noisier than Telegram, intended as a backup channel.
type Email struct {
	opts EmailOptions
}

func NewEmail(opts EmailOptions) *Email {
	return &Email{opts: opts}
}

func (e *Email) SendAlert(ctx context.Context, kind monitor.AlertKind, message string) error {
	mail := email.NewEmail()
	mail.From = e.opts.From
	mail.To = e.opts.To
	mail.Subject = fmt.Sprintf("[portalwatch] %s", alertTitle(kind))
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", e.opts.Host, e.opts.Port)
	auth := smtp.PlainAuth("", e.opts.Username, e.opts.Password, e.opts.Host)
	return mail.Send(addr, auth)
}
