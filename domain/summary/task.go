// Package summary builds the periodic digest and sends it on a coarse interval.
//
// The task wakes on a short poll interval and sends only when more than the summary
// interval has elapsed since the last send, so clock adjustments delay or advance a
// single digest instead of skipping one.
package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

// TaskName is the scheduler name of the summary task
const TaskName = "daily_summary"

// Task sends the digest of the current snapshot
type Task struct {
	state      *state.State
	sink       notify.Sink
	host       string
	rig        string
	interval   time.Duration
	minersFile string
	log        *slog.Logger
}

// NewTask creates a summary task sending at most once per interval
func NewTask(st *state.State, sink notify.Sink, host, rig string, interval time.Duration, minersFile string, log *slog.Logger) *Task {
	return &Task{
		state:      st,
		sink:       sink,
		host:       host,
		rig:        rig,
		interval:   interval,
		minersFile: minersFile,
		log:        log.With(logger.Scope("summary")),
	}
}

// Run is one poll. The send slot is claimed before delivery, so a failed
// delivery waits for the next interval.
func (t *Task) Run(ctx context.Context) error {
	snap := t.state.Read()
	if !snap.Sampled() {
		t.log.Debug("no sample yet, deferring summary")
		return nil
	}

	if !t.state.TryClaimSummary(t.interval) {
		return nil
	}

	miners, err := LoadMiners(t.minersFile)
	if err != nil {
		t.log.Warn("miners list unavailable", logger.Error(err))
	}

	body, err := Render(BuildDigest(t.host, snap), miners)
	if err != nil {
		return err
	}

	res := t.sink.Notify(ctx, Title(t.rig), body)
	if !res.Success {
		t.log.Error("summary delivery failed", slog.String("error", res.Error))
		return nil
	}

	t.log.Info("summary sent", slog.Int("miners", len(miners)))
	return nil
}
