package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"portalwatch/services/monitor"
)

// MonitorAPI is the slice of the monitor service the bot commands
// consume.
type MonitorAPI interface {
	AttendanceSummary(ctx context.Context) (string, error)
	MarksSummary(ctx context.Context) (string, error)
	NoticesSummary(ctx context.Context) (string, error)
	Status() monitor.Status
	SetInterval(minutes int) error
}

type Sender interface {
	SendMessage(ctx context.Context, chatId int64, text string, html bool) error
}

// Bot routes incoming Telegram commands to the monitor. Only the
// configured chat is served, commands from anywhere else are dropped.
type Bot struct {
	sender Sender
	api    MonitorAPI
	chatId int64
}

func NewBot(sender Sender, api MonitorAPI, chatId int64) *Bot {
	return &Bot{sender: sender, api: api, chatId: chatId}
}

const helpText = `Commands:
/attendance - current attendance summary
/marks - current marks summary
/notices - recent notices
/status - monitor status
/interval <minutes> - change the check interval (5 to 1440)
/help - this message`

func (b *Bot) HandleUpdate(ctx context.Context, update Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatId := update.Message.Chat.Id
	if chatId != b.chatId {
		slog.WarnContext(ctx, "dropping command from unknown chat", "chat_id", chatId)
		return
	}

	command, args := splitCommand(update.Message.Text)
	slog.InfoContext(ctx, "handling bot command", "command", command)

	switch command {
	case "/start", "/help":
		b.replyPlain(ctx, helpText)
	case "/attendance":
		b.replySummary(ctx, b.api.AttendanceSummary)
	case "/marks":
		b.replySummary(ctx, b.api.MarksSummary)
	case "/notices":
		b.replySummary(ctx, b.api.NoticesSummary)
	case "/status":
		b.replyMono(ctx, b.api.Status().Format())
	case "/interval":
		b.handleInterval(ctx, args)
	default:
		b.replyPlain(ctx, "Unknown command. Send /help for the list.")
	}
}

func (b *Bot) handleInterval(ctx context.Context, args string) {
	minutes, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		b.replyPlain(ctx, "Usage: /interval <minutes>")
		return
	}
	err = b.api.SetInterval(minutes)
	if err != nil {
		b.replyPlain(ctx, err.Error())
		return
	}
	b.replyPlain(ctx, fmt.Sprintf("Check interval set to %d minutes.", minutes))
}

func (b *Bot) replySummary(ctx context.Context, fetch func(context.Context) (string, error)) {
	summary, err := fetch(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "on-demand fetch failed", "err", err)
		b.replyPlain(ctx, "The portal is not responding right now, try again in a few minutes.")
		return
	}
	b.replyMono(ctx, summary)
}

func (b *Bot) replyPlain(ctx context.Context, text string) {
	err := b.sender.SendMessage(ctx, b.chatId, text, false)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send reply", "err", err)
	}
}

func (b *Bot) replyMono(ctx context.Context, text string) {
	wrapped := "<pre>" + html.EscapeString(text) + "</pre>"
	err := b.sender.SendMessage(ctx, b.chatId, wrapped, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send reply", "err", err)
	}
}

// splitCommand strips the @botname suffix Telegram appends in group
// chats and separates the argument tail.
func splitCommand(text string) (command, args string) {
	command, args, _ = strings.Cut(strings.TrimSpace(text), " ")
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(args)
}
