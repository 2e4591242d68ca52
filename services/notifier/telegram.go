package notifier

import (
	"context"
	"fmt"
	"time"

	"portalwatch/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/notifier")

type Update struct {
	UpdateId int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageId int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	Id       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username"`
}

// TelegramClient is a thin wrapper over the Bot API methods the
// monitor needs, sendMessage plus getUpdates for chat discovery.
type TelegramClient struct {
	http *resty.Client
}

type TelegramOptions struct {
	Token string
	// defaults to the public Bot API
	BaseUrl string
}

func NewTelegramClient(opts TelegramOptions) *TelegramClient {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://api.telegram.org"
	}

	client := resty.New()
	client.SetBaseURL(fmt.Sprintf("%s/bot%s", baseUrl, opts.Token))
	// must outlive a full getUpdates long-poll window
	client.SetTimeout(time.Second * 60)

	restyutil.InstrumentClient(client, "services/notifier/telegram")

	return &TelegramClient{http: client}
}

type apiResult[T any] struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

// SendMessage delivers text to a chat. When html is set the text is
// rendered with Telegram's HTML parse mode, the caller is responsible
// for escaping.
func (c *TelegramClient) SendMessage(ctx context.Context, chatId int64, text string, html bool) error {
	ctx, span := tracer.Start(ctx, "telegram:SendMessage")
	defer span.End()

	body := map[string]any{
		"chat_id": chatId,
		"text":    text,
	}
	if html {
		body["parse_mode"] = "HTML"
	}

	var result apiResult[Message]
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/sendMessage")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sendMessage request failed")
		return err
	}
	if !result.Ok {
		span.SetStatus(codes.Error, "sendMessage rejected")
		return fmt.Errorf("telegram sendMessage failed (status %d): %s", res.StatusCode(), result.Description)
	}
	return nil
}

// GetUpdates long-polls for incoming updates past offset.
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, span := tracer.Start(ctx, "telegram:GetUpdates")
	defer span.End()

	var result apiResult[[]Update]
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"offset":  offset,
			"timeout": int(timeout / time.Second),
		}).
		SetResult(&result).
		SetError(&result).
		Post("/getUpdates")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getUpdates request failed")
		return nil, err
	}
	if !result.Ok {
		span.SetStatus(codes.Error, "getUpdates rejected")
		return nil, fmt.Errorf("telegram getUpdates failed (status %d): %s", res.StatusCode(), result.Description)
	}
	return result.Result, nil
}
