package alerts

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/domain/scheduler"
	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/launcher"
	"github.com/minerlab/miner-syncd/pkg/notify"
	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

// Module provides the alert evaluator and schedules it
var Module = fx.Module("alerts",
	fx.Provide(NewEvaluator),
	fx.Invoke(RegisterTask),
)

// Params contains the evaluator's dependencies
type Params struct {
	fx.In
	Cfg      *config.Config
	Sampler  *syshealth.Sampler
	State    *state.State
	Launcher *launcher.Launcher
	Channels *notify.Channels
	Log      *slog.Logger
}

// NewEvaluator creates the evaluator from the application graph
func NewEvaluator(p Params) *Evaluator {
	return New(p.Sampler, p.State, p.Launcher, p.Channels.Alert,
		p.Cfg.Miner.ProcessName, p.Cfg.Hostname, p.Cfg.Intervals.Cooldown(), p.Log)
}

// RegisterTask schedules the evaluator; it also runs on start so the status
// endpoint serves a real sample as early as possible.
func RegisterTask(s *scheduler.Scheduler, e *Evaluator, cfg *config.Config) error {
	return s.AddIntervalTask(TaskName, cfg.Intervals.AlertCheck, e.Run, scheduler.RunImmediately())
}
