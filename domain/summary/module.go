package summary

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/domain/scheduler"
	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/notify"
)

// Module provides the summary task and schedules it
var Module = fx.Module("summary",
	fx.Provide(newTask),
	fx.Invoke(RegisterTask),
)

func newTask(cfg *config.Config, st *state.State, channels *notify.Channels, log *slog.Logger) *Task {
	return NewTask(st, channels.Summary, cfg.Hostname, cfg.RigName,
		cfg.Intervals.Summary, cfg.SummaryMinersFile, log)
}

// RegisterTask schedules the summary poll
func RegisterTask(s *scheduler.Scheduler, t *Task, cfg *config.Config) error {
	return s.AddIntervalTask(TaskName, cfg.Intervals.SummaryPoll, t.Run)
}
