package webportal

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"portalwatch/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

type Notice struct {
	Id       string
	Title    string
	Link     string
	PostedAt time.Time
}

// the notice board renders dates as 02/01/2006
const noticeDateLayout = "02/01/2006"

// Notices scrapes the student notice board. Unlike the rest of the
// portal this endpoint serves rendered HTML rather than JSON.
func (c *Client) Notices(ctx context.Context, s Session) ([]Notice, error) {
	ctx, span := tracer.Start(ctx, "client:Notices")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(s.headers()).
		Get("studentnoticeboard")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch notice board")
		return nil, err
	}
	if res.StatusCode() == 401 {
		span.SetStatus(codes.Error, "session expired")
		return nil, ErrSessionExpired
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse notice board html")
		return nil, err
	}

	var notices []Notice
	doc.Find("div.notice-item").Each(func(_ int, item *goquery.Selection) {
		id := item.AttrOr("data-id", "")
		title := strings.TrimSpace(item.Find(".notice-title").Text())
		if id == "" || title == "" {
			return
		}

		notice := Notice{
			Id:    id,
			Title: title,
			Link:  item.Find("a").AttrOr("href", ""),
		}

		dateText := strings.TrimSpace(item.Find(".notice-date").Text())
		if dateText != "" {
			postedAt, err := time.ParseInLocation(noticeDateLayout, dateText, timezone.Location)
			if err != nil {
				slog.WarnContext(ctx, "unparseable notice date", "id", id, "date", dateText)
			} else {
				notice.PostedAt = postedAt
			}
		}

		notices = append(notices, notice)
	})

	return notices, nil
}
