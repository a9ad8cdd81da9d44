// Package launcher checks whether the miner process is running and restarts it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/logger"
)

// Module provides the process launcher
var Module = fx.Module("launcher",
	fx.Provide(NewLauncher),
)

// ErrNoCommand is returned by Launch when no restart command is configured
var ErrNoCommand = errors.New("no restart command configured")

// Launcher inspects the process table and runs the configured restart command.
type Launcher struct {
	command []string
	timeout time.Duration
	log     *slog.Logger

	listNames func(ctx context.Context) ([]string, error)
	run       func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewLauncher creates a launcher from config
func NewLauncher(cfg *config.Config, log *slog.Logger) *Launcher {
	return New(cfg.Miner.RestartCommand, cfg.Miner.LaunchTimeout, log)
}

// New creates a launcher that restarts the monitored process with command
func New(command []string, timeout time.Duration, log *slog.Logger) *Launcher {
	return &Launcher{
		command:   command,
		timeout:   timeout,
		log:       log.With(logger.Scope("launcher")),
		listNames: processNames,
		run:       runCommand,
	}
}

// IsRunning reports whether any process name contains substr, case-insensitively.
// Multiple matches count as running.
func (l *Launcher) IsRunning(ctx context.Context, substr string) (bool, error) {
	names, err := l.listNames(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	needle := strings.ToLower(substr)
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			return true, nil
		}
	}
	return false, nil
}

// Launch runs the restart command and waits for it to exit.
func (l *Launcher) Launch(ctx context.Context) error {
	if len(l.command) == 0 {
		return ErrNoCommand
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	l.log.Info("running restart command", slog.String("command", strings.Join(l.command, " ")))
	output, err := l.run(ctx, l.command[0], l.command[1:]...)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		// processes can exit between listing and inspection
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
