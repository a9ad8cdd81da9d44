// Package alerts samples host health on a fixed interval, publishes it, and notifies
// when the miner process disappears or stops hashing.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/notify"
	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

// TaskName is the scheduler name of the evaluation task
const TaskName = "alert_evaluator"

// AlertTitle is the notification title for threshold alerts
const AlertTitle = "Watchdog Alert"

var alertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "alerts_fired_total",
	Help: "Alerts that passed the cooldown gate, by kind",
}, []string{"kind"})

// Sampler takes a fresh health reading
type Sampler interface {
	Sample(ctx context.Context) syshealth.Snapshot
}

// LivenessChecker reports whether a process matching a name substring is running
type LivenessChecker interface {
	IsRunning(ctx context.Context, substr string) (bool, error)
}

// Evaluator is the periodic sample-publish-evaluate task.
type Evaluator struct {
	sampler     Sampler
	state       *state.State
	liveness    LivenessChecker
	sink        notify.Sink
	processName string
	host        string
	cooldown    time.Duration
	log         *slog.Logger
}

// New creates an evaluator. cooldown is the minimum gap between two alerts of one kind.
func New(sampler Sampler, st *state.State, liveness LivenessChecker, sink notify.Sink,
	processName, host string, cooldown time.Duration, log *slog.Logger) *Evaluator {
	return &Evaluator{
		sampler:     sampler,
		state:       st,
		liveness:    liveness,
		sink:        sink,
		processName: processName,
		host:        host,
		cooldown:    cooldown,
		log:         log.With(logger.Scope("alerts")),
	}
}

// Run performs one tick: sample, publish, then evaluate process-down followed by
// hashrate-zero. Both may fire in the same tick.
func (e *Evaluator) Run(ctx context.Context) error {
	snap := e.sampler.Sample(ctx)
	e.state.Publish(snap)

	running, err := e.liveness.IsRunning(ctx, e.processName)
	if err != nil {
		// without a liveness answer neither predicate can be evaluated
		return fmt.Errorf("liveness check: %w", err)
	}

	e.evaluate(ctx, state.AlertProcessDown, !running,
		fmt.Sprintf("%s process not found on %s", e.processName, e.host))

	e.evaluate(ctx, state.AlertHashrateZero, running && snap.Hashrate == 0,
		fmt.Sprintf("Hashrate is 0 on %s (miner status: %s)", e.host, snap.MinerStatus))

	return nil
}

// evaluate notifies once per occurrence of kind, subject to the cooldown gate.
// An occurrence held back by the cooldown is retried on later ticks while it lasts.
func (e *Evaluator) evaluate(ctx context.Context, kind state.AlertKind, holds bool, body string) {
	if !e.state.TrackCondition(kind, holds) {
		return
	}

	if !e.state.TryFireAlert(kind, e.cooldown) {
		e.log.Debug("alert held back by cooldown",
			slog.String("kind", kind.String()),
			slog.Duration("cooldown", e.cooldown))
		return
	}

	alertsFired.WithLabelValues(kind.String()).Inc()
	e.log.Warn("alert condition entered", slog.String("kind", kind.String()), slog.String("detail", body))

	res := e.sink.Notify(ctx, AlertTitle, body)
	if !res.Success {
		e.log.Error("alert delivery failed",
			slog.String("kind", kind.String()),
			slog.String("error", res.Error))
	}
}
