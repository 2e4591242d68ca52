package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// WebhookHandler decodes Telegram webhook posts and feeds them to the
// bot. Handling is synchronous, Telegram retries on non-200 so a slow
// portal fetch is better than a dropped command.
func WebhookHandler(bot *Bot) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "webhook:Update")
		defer span.End()

		var update Update
		err := json.NewDecoder(r.Body).Decode(&update)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode update")
			http.Error(w, "bad update payload", http.StatusBadRequest)
			return
		}

		bot.HandleUpdate(ctx, update)
		w.WriteHeader(http.StatusOK)
	})
}

// Poll long-polls getUpdates and feeds the bot, for deployments
// without a public HTTPS endpoint for webhooks. Blocks until ctx is
// cancelled.
func Poll(ctx context.Context, client *TelegramClient, bot *Bot) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := client.GetUpdates(ctx, offset, time.Second*30)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "getUpdates failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second * 5):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateId + 1
			bot.HandleUpdate(ctx, update)
		}
	}
}
