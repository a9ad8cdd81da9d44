// Package watchdog restarts the miner when it is no longer in the process table.
package watchdog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

// TaskName is the scheduler name of the supervision task
const TaskName = "process_supervisor"

const (
	alertTitle       = "Watchdog Alert"
	restartedMessage = "XMRig restarted by watchdog"
)

var restarts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "miner_restarts_total",
	Help: "Restart attempts by outcome",
}, []string{"outcome"})

// Launcher checks and starts the monitored process
type Launcher interface {
	IsRunning(ctx context.Context, substr string) (bool, error)
	Launch(ctx context.Context) error
}

// Supervisor is the periodic liveness check. A failed restart is not retried
// until the next tick.
type Supervisor struct {
	launcher    Launcher
	sink        notify.Sink
	processName string
	log         *slog.Logger
}

// New creates a supervisor for processName
func New(launcher Launcher, sink notify.Sink, processName string, log *slog.Logger) *Supervisor {
	return &Supervisor{
		launcher:    launcher,
		sink:        sink,
		processName: processName,
		log:         log.With(logger.Scope("watchdog")),
	}
}

// Run performs one tick
func (s *Supervisor) Run(ctx context.Context) error {
	running, err := s.launcher.IsRunning(ctx, s.processName)
	if err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}
	if running {
		return nil
	}

	s.log.Warn("miner process not found", slog.String("process", s.processName))

	// the process may have come up since the first check
	running, err = s.launcher.IsRunning(ctx, s.processName)
	if err != nil {
		return fmt.Errorf("liveness re-check: %w", err)
	}
	if running {
		s.log.Info("miner process appeared before restart, skipping", slog.String("process", s.processName))
		return nil
	}

	if err := s.launcher.Launch(ctx); err != nil {
		restarts.WithLabelValues("failure").Inc()
		s.notify(ctx, fmt.Sprintf("XMRig restart failed: %v", err))
		return fmt.Errorf("restart %s: %w", s.processName, err)
	}

	restarts.WithLabelValues("success").Inc()
	s.log.Info("miner restarted", slog.String("process", s.processName))
	s.notify(ctx, restartedMessage)
	return nil
}

func (s *Supervisor) notify(ctx context.Context, body string) {
	if res := s.sink.Notify(ctx, alertTitle, body); !res.Success {
		s.log.Error("watchdog notification failed",
			slog.String("body", body),
			slog.String("error", res.Error))
	}
}
