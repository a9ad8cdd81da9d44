package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/minerlab/miner-syncd/pkg/logger"
)

// Pushcut posts notifications to a Pushcut (or compatible) webhook URL.
type Pushcut struct {
	url  string
	http *resty.Client
	log  *slog.Logger
}

type pushcutPayload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// NewPushcut creates a webhook sink; each request is bounded by timeout
func NewPushcut(url string, timeout time.Duration, log *slog.Logger) *Pushcut {
	return &Pushcut{
		url:  url,
		http: resty.New().SetTimeout(timeout),
		log:  log.With(logger.Scope("notify.pushcut")),
	}
}

// Notify posts {"title", "text"}; only HTTP 200 counts as delivered
func (p *Pushcut) Notify(ctx context.Context, title, body string) Result {
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(pushcutPayload{Title: title, Text: body}).
		Post(p.url)
	if err != nil {
		p.log.Debug("pushcut request failed", slog.String("title", title), logger.Error(err))
		return Failed(err.Error())
	}

	if resp.StatusCode() != http.StatusOK {
		text := resp.String()
		if len(text) > 100 {
			text = text[:100]
		}
		p.log.Debug("pushcut rejected notification",
			slog.String("title", title),
			slog.Int("status", resp.StatusCode()),
			slog.String("body", text))
		return Result{StatusCode: resp.StatusCode(), Error: fmt.Sprintf("pushcut returned %d", resp.StatusCode())}
	}

	p.log.Debug("notification sent", slog.String("title", title))
	return Result{Success: true, StatusCode: resp.StatusCode()}
}
