// Package notify delivers alert and summary notifications.
//
// Sinks never return errors; delivery outcome is reported as a Result so callers
// decide whether to log, degrade or ignore. A failed delivery is never retried
// within the same call.
package notify

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink is an outbound notification destination
type Sink interface {
	Notify(ctx context.Context, title, body string) Result
}

// Result is the outcome of one delivery attempt
type Result struct {
	Success bool
	// StatusCode is the transport status when one was received
	StatusCode int
	Error      string
}

// Failed builds an unsuccessful Result
func Failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Unconfigured is a sink with no transport behind it; every delivery fails.
type Unconfigured struct {
	Channel string
}

// Notify always fails
func (u Unconfigured) Notify(ctx context.Context, title, body string) Result {
	return Failed("no sink configured for " + u.Channel + " notifications")
}

// Multi delivers to every sink and succeeds if at least one delivery did.
type Multi []Sink

// Notify fans out sequentially so a slow sink cannot hide a fast failure
func (m Multi) Notify(ctx context.Context, title, body string) Result {
	if len(m) == 0 {
		return Failed("no sinks")
	}
	var errs []string
	res := Result{}
	for _, s := range m {
		r := s.Notify(ctx, title, body)
		if r.Success {
			res.Success = true
			if res.StatusCode == 0 {
				res.StatusCode = r.StatusCode
			}
			continue
		}
		errs = append(errs, r.Error)
	}
	if !res.Success {
		res.Error = strings.Join(errs, "; ")
	}
	return res
}

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notifications_total",
	Help: "Notification deliveries by channel and outcome",
}, []string{"channel", "outcome"})

// Counted records the outcome of every delivery on a channel.
type Counted struct {
	Channel string
	Sink    Sink
}

// Notify delegates and counts the outcome
func (c Counted) Notify(ctx context.Context, title, body string) Result {
	r := c.Sink.Notify(ctx, title, body)
	outcome := "failure"
	if r.Success {
		outcome = "success"
	}
	deliveries.WithLabelValues(c.Channel, outcome).Inc()
	return r
}
