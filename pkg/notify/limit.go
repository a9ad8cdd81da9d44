package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited drops deliveries beyond the shared limiter's budget instead of queueing them.
type Limited struct {
	Sink    Sink
	Limiter *rate.Limiter
}

// Notify delivers if the limiter allows it right now
func (l Limited) Notify(ctx context.Context, title, body string) Result {
	if !l.Limiter.Allow() {
		return Failed("notification rate limit exceeded")
	}
	return l.Sink.Notify(ctx, title, body)
}
