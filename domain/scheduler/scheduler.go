package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/logger"
)

// ErrInvalidInterval is returned when a task is registered with a non-positive interval
var ErrInvalidInterval = errors.New("interval must be positive")

// TaskFunc is the function signature for scheduled tasks
type TaskFunc func(ctx context.Context) error

// TaskOption configures a registered task
type TaskOption func(*task)

// RunImmediately runs the task once as soon as the scheduler starts,
// in addition to its regular interval.
func RunImmediately() TaskOption {
	return func(t *task) { t.immediate = true }
}

type task struct {
	id        cron.EntryID
	interval  time.Duration
	job       cron.Job
	immediate bool
}

// Scheduler runs periodic tasks using robfig/cron.
// Ticks of the same task never overlap; a tick that is still running when the
// next one is due causes that next one to be skipped.
type Scheduler struct {
	cron        *cron.Cron
	log         *slog.Logger
	taskTimeout time.Duration

	mu      sync.RWMutex
	tasks   map[string]*task
	running bool

	// immediate runs live outside cron and are drained separately on Stop
	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler whose task contexts are bounded by the configured task timeout
func NewScheduler(cfg *config.Config, log *slog.Logger) *Scheduler {
	return New(cfg.Intervals.TaskTimeout, log)
}

// New creates a scheduler; taskTimeout <= 0 leaves task contexts unbounded
func New(taskTimeout time.Duration, log *slog.Logger) *Scheduler {
	log = log.With(logger.Scope("scheduler"))
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cronLogger{log: log})),
		log:         log,
		taskTimeout: taskTimeout,
		tasks:       make(map[string]*task),
	}
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.cron.Start()
	s.running = true

	for _, t := range s.tasks {
		if !t.immediate {
			continue
		}
		s.inflight.Add(1)
		go func(j cron.Job) {
			defer s.inflight.Done()
			j.Run()
		}(t.job)
	}

	s.log.Info("scheduler started", slog.Int("tasks", len(s.tasks)))
	return nil
}

// Stop prevents new ticks from starting and waits for running ones to finish,
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	stopCtx := s.cron.Stop()
	drained := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.log.Info("scheduler stopped gracefully")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timeout, ticks still in flight")
	}

	s.running = false
	return nil
}

// AddIntervalTask adds a task that runs at a fixed interval.
// Registering a name twice replaces the earlier task.
func (s *Scheduler) AddIntervalTask(name string, interval time.Duration, fn TaskFunc, opts ...TaskOption) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: %w", name, ErrInvalidInterval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[name]; ok {
		s.cron.Remove(existing.id)
		delete(s.tasks, name)
	}

	t := &task{interval: interval}
	for _, opt := range opts {
		opt(t)
	}

	t.job = cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: s.log})).
		Then(cron.FuncJob(func() { s.runTask(name, fn) }))
	t.id = s.cron.Schedule(cron.Every(interval), t.job)
	s.tasks[name] = t

	s.log.Info("added interval task",
		slog.String("name", name),
		slog.Duration("interval", interval),
		slog.Bool("run_immediately", t.immediate))

	return nil
}

// Trigger runs a registered task now, on the calling goroutine.
// The no-overlap guarantee still applies. Returns false for unknown names.
func (s *Scheduler) Trigger(name string) bool {
	s.mu.RLock()
	t, ok := s.tasks[name]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	t.job.Run()
	return true
}

// runTask executes one tick, isolating errors and panics so later ticks still run
func (s *Scheduler) runTask(name string, fn TaskFunc) {
	startTime := time.Now()
	outcome := "success"
	s.log.Debug("running scheduled task", slog.String("name", name))

	ctx := context.Background()
	if s.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			s.log.Error("scheduled task panicked",
				slog.String("name", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.Duration("duration", time.Since(startTime)))
		}
		taskRuns.WithLabelValues(name, outcome).Inc()
		taskDuration.WithLabelValues(name).Observe(time.Since(startTime).Seconds())
	}()

	if err := fn(ctx); err != nil {
		outcome = "error"
		s.log.Error("scheduled task failed",
			slog.String("name", name),
			logger.Error(err),
			slog.Duration("duration", time.Since(startTime)))
		return
	}

	s.log.Debug("scheduled task completed",
		slog.String("name", name),
		slog.Duration("duration", time.Since(startTime)))
}

// ListTasks returns the names of all scheduled tasks
func (s *Scheduler) ListTasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}

// TaskInfo represents information about a scheduled task
type TaskInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	NextRun  time.Time     `json:"next_run"`
	PrevRun  time.Time     `json:"prev_run,omitempty"`
}

// GetTaskInfo returns information about all scheduled tasks
func (s *Scheduler) GetTaskInfo() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := make([]TaskInfo, 0, len(s.tasks))
	for name, t := range s.tasks {
		entry := s.cron.Entry(t.id)
		info = append(info, TaskInfo{
			Name:     name,
			Interval: t.interval,
			NextRun:  entry.Next,
			PrevRun:  entry.Prev,
		})
	}
	return info
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// cronLogger routes robfig/cron's internal logging to slog
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{logger.Error(err)}, keysAndValues...)...)
}
