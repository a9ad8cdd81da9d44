package heartbeat

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/domain/scheduler"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

// Module provides the opt-in heartbeat task
var Module = fx.Module("heartbeat",
	fx.Provide(newTask),
	fx.Invoke(RegisterTask),
)

func newTask(cfg *config.Config, channels *notify.Channels, log *slog.Logger) *Task {
	return NewTask(channels.Sync, cfg.Hostname, log)
}

// RegisterTask schedules the heartbeat when SYNC_PUSH_ENABLED is set
func RegisterTask(s *scheduler.Scheduler, t *Task, cfg *config.Config, log *slog.Logger) error {
	if !cfg.Sync.Enabled {
		log.Info("sync heartbeat disabled, skipping task registration")
		return nil
	}
	return s.AddIntervalTask(TaskName, cfg.Sync.Interval, t.Run, scheduler.RunImmediately())
}
