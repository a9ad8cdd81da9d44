package notify

import (
	"log/slog"
	"time"

	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/logger"
)

// Module provides the notification channels
var Module = fx.Module("notify",
	fx.Provide(NewChannels),
)

const (
	ChannelAlert   = "alert"
	ChannelSummary = "summary"
	ChannelSync    = "sync"
)

// Channels groups the sinks each periodic task notifies through
type Channels struct {
	// Alert carries watchdog and threshold alerts
	Alert Sink
	// Summary carries the daily digest
	Summary Sink
	// Sync carries the optional heartbeat push
	Sync Sink
}

// NewChannels resolves the configured transports into channels sharing one rate limiter
func NewChannels(cfg *config.Config, log *slog.Logger) *Channels {
	log = log.With(logger.Scope("notify"))

	perMinute := cfg.Notify.RatePerMinute
	if perMinute <= 0 {
		perMinute = 6
	}
	burst := cfg.Notify.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)

	mail := NewMailgun(cfg.Email, cfg.Pushcut.Timeout, log)

	build := func(channel, pushcutURL string, withEmail bool) Sink {
		var sinks Multi
		if pushcutURL != "" {
			sinks = append(sinks, NewPushcut(pushcutURL, cfg.Pushcut.Timeout, log))
		}
		if withEmail && mail != nil {
			sinks = append(sinks, mail)
		}

		var sink Sink = Unconfigured{Channel: channel}
		if len(sinks) > 0 {
			sink = Limited{Sink: sinks, Limiter: limiter}
		} else {
			log.Warn("notification channel has no sink configured", slog.String("channel", channel))
		}
		return Counted{Channel: channel, Sink: sink}
	}

	return &Channels{
		Alert:   build(ChannelAlert, cfg.Pushcut.AlertURL(), true),
		Summary: build(ChannelSummary, cfg.Pushcut.DigestURL(), true),
		Sync:    build(ChannelSync, cfg.Pushcut.KeyURL(), false),
	}
}
