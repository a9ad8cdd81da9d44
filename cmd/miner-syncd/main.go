// Package main provides the entry point for the miner-syncd daemon.
//
// The daemon samples host and miner health, serves it over a small HTTP API,
// alerts when the miner stops, restarts it, and sends a daily digest.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/minerlab/miner-syncd/domain/alerts"
	"github.com/minerlab/miner-syncd/domain/health"
	"github.com/minerlab/miner-syncd/domain/heartbeat"
	"github.com/minerlab/miner-syncd/domain/scheduler"
	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/domain/summary"
	"github.com/minerlab/miner-syncd/domain/watchdog"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/internal/server"
	"github.com/minerlab/miner-syncd/internal/version"
	"github.com/minerlab/miner-syncd/pkg/launcher"
	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/notify"
	"github.com/minerlab/miner-syncd/pkg/syshealth"
	"github.com/minerlab/miner-syncd/pkg/xmrig"
)

// stopTimeout bounds the whole shutdown, including in-flight ticks
const stopTimeout = 3 * time.Minute

func main() {
	// Load() never overrides variables already set by systemd
	_ = godotenv.Load("/etc/miner-lab/.env")
	_ = godotenv.Load("/etc/miner-syncd.env")

	fx.New(options()...).Run()
}

// options is the full application graph
func options() []fx.Option {
	return []fx.Option{
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),
		fx.StopTimeout(stopTimeout),

		// Infrastructure modules
		logger.Module,
		config.Module,
		server.Module,

		// Probes and capabilities
		xmrig.Module,
		syshealth.Module,
		launcher.Module,
		notify.Module,

		// Shared health state
		state.Module,

		// Status API
		health.Module,

		// Periodic tasks
		scheduler.Module,
		alerts.Module,
		watchdog.Module,
		summary.Module,
		heartbeat.Module,

		// after the scheduler, so the listener closes before ticks drain
		fx.Invoke(server.StopServer),

		fx.Invoke(logReadiness),
	}
}

// logReadiness runs after every other start hook has succeeded
func logReadiness(lc fx.Lifecycle, cfg *config.Config, s *scheduler.Scheduler, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("miner-syncd ready",
				slog.Any("build", version.Info()),
				slog.String("host", cfg.Hostname),
				slog.String("address", cfg.Addr()),
				slog.Any("tasks", s.ListTasks()))
			for _, task := range s.GetTaskInfo() {
				log.Info("task scheduled",
					slog.String("name", task.Name),
					slog.Duration("interval", task.Interval),
					slog.Time("next_run", task.NextRun))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("miner-syncd stopping")
			return nil
		},
	})
}
