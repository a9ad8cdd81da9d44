// Package heartbeat periodically pushes a "node is alive" notification.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

const (
	// TaskName is the scheduler name of the heartbeat task
	TaskName = "sync_heartbeat"
	// Title is the heartbeat notification title
	Title = "Miner Sync Update"
)

// Task sends one heartbeat per tick
type Task struct {
	sink notify.Sink
	host string
	now  func() time.Time
	log  *slog.Logger
}

// NewTask creates a heartbeat task for host
func NewTask(sink notify.Sink, host string, log *slog.Logger) *Task {
	return &Task{
		sink: sink,
		host: host,
		now:  time.Now,
		log:  log.With(logger.Scope("heartbeat")),
	}
}

// Body is the heartbeat text for host at t, in local time
func Body(host string, t time.Time) string {
	return fmt.Sprintf("Node: %s — %s", host, t.Local().Format(time.DateTime))
}

// Run pushes a heartbeat. Delivery failures are logged and never fail the tick.
func (t *Task) Run(ctx context.Context) error {
	res := t.sink.Notify(ctx, Title, Body(t.host, t.now()))
	if !res.Success {
		t.log.Warn("heartbeat not delivered", slog.String("error", res.Error))
		return nil
	}
	t.log.Info("heartbeat sent")
	return nil
}
