package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"portalwatch/services/monitor"
)

func alertTitle(kind monitor.AlertKind) string {
	switch kind {
	case monitor.AlertAttendance:
		return "Attendance Alert"
	case monitor.AlertMarks:
		return "Marks Changed"
	case monitor.AlertNotices:
		return "New Notices"
	case monitor.AlertDegraded:
		return "Monitoring Degraded"
	case monitor.AlertStartup:
		return "Monitor Started"
	case monitor.AlertDigest:
		return "Daily Digest"
	}
	return "Portal Alert"
}

// Telegram delivers alerts to a single configured chat. Messages are
// sent as HTML with the body in a <pre> block so the table layouts
// survive Telegram's proportional font.
type Telegram struct {
	client *TelegramClient
	chatId int64
}

func NewTelegram(client *TelegramClient, chatId int64) *Telegram {
	return &Telegram{client: client, chatId: chatId}
}

func (t *Telegram) SendAlert(ctx context.Context, kind monitor.AlertKind, message string) error {
	text := fmt.Sprintf(
		"<b>%s</b>\n\n<pre>%s</pre>",
		html.EscapeString(alertTitle(kind)),
		html.EscapeString(message),
	)
	return t.client.SendMessage(ctx, t.chatId, text, true)
}

// Multi fans an alert out to every channel, delivering to the rest
// even when one fails.
type Multi []monitor.Notifier

func (m Multi) SendAlert(ctx context.Context, kind monitor.AlertKind, message string) error {
	var errs []error
	for _, n := range m {
		err := n.SendAlert(ctx, kind, message)
		if err != nil {
			slog.ErrorContext(ctx, "alert channel failed", "kind", kind, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
