package watchdog

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/domain/scheduler"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/launcher"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

// Module provides the process supervisor and schedules it
var Module = fx.Module("watchdog",
	fx.Provide(NewSupervisor),
	fx.Invoke(RegisterTask),
)

// NewSupervisor creates the supervisor from the application graph
func NewSupervisor(cfg *config.Config, l *launcher.Launcher, channels *notify.Channels, log *slog.Logger) *Supervisor {
	return New(l, channels.Alert, cfg.Miner.ProcessName, log)
}

// RegisterTask schedules the supervisor
func RegisterTask(s *scheduler.Scheduler, sup *Supervisor, cfg *config.Config) error {
	return s.AddIntervalTask(TaskName, cfg.Intervals.Watchdog, sup.Run)
}
