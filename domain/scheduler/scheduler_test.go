package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduler_IsRunning(t *testing.T) {
	s := newTestScheduler()
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestScheduler_AddIntervalTask(t *testing.T) {
	s := newTestScheduler()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddIntervalTask("a", time.Minute, noop))
	require.NoError(t, s.AddIntervalTask("b", time.Minute, noop))
	require.NoError(t, s.AddIntervalTask("a", 2*time.Minute, noop))

	assert.ElementsMatch(t, []string{"a", "b"}, s.ListTasks())

	info := s.GetTaskInfo()
	require.Len(t, info, 2)
	for _, ti := range info {
		if ti.Name == "a" {
			assert.Equal(t, 2*time.Minute, ti.Interval, "re-registration replaces the interval")
		}
	}
}

func TestScheduler_GetTaskInfo_NextRunOnceStarted(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddIntervalTask("a", time.Minute, func(ctx context.Context) error { return nil }))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		info := s.GetTaskInfo()
		return len(info) == 1 && !info[0].NextRun.IsZero()
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_AddIntervalTask_InvalidInterval(t *testing.T) {
	s := newTestScheduler()
	err := s.AddIntervalTask("bad", 0, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.Empty(t, s.ListTasks())
}

func TestScheduler_TriggerUnknown(t *testing.T) {
	assert.False(t, newTestScheduler().Trigger("missing"))
}

func TestScheduler_TaskContextHasDeadline(t *testing.T) {
	s := newTestScheduler()
	var hasDeadline bool
	require.NoError(t, s.AddIntervalTask("t", time.Hour, func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}))

	require.True(t, s.Trigger("t"))
	assert.True(t, hasDeadline)
}

func TestScheduler_FaultsDoNotStopLaterTicks(t *testing.T) {
	s := newTestScheduler()
	var calls atomic.Int32
	require.NoError(t, s.AddIntervalTask("flaky", time.Hour, func(ctx context.Context) error {
		switch calls.Add(1) {
		case 1:
			panic("probe exploded")
		case 2:
			return errors.New("sink unreachable")
		}
		return nil
	}))

	assert.NotPanics(t, func() {
		s.Trigger("flaky")
		s.Trigger("flaky")
		s.Trigger("flaky")
	})
	assert.Equal(t, int32(3), calls.Load())
}

func TestScheduler_TicksOfSameTaskDoNotOverlap(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	require.NoError(t, s.AddIntervalTask("slow", time.Hour, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}))

	done := make(chan struct{})
	go func() {
		s.Trigger("slow")
		close(done)
	}()
	<-started

	// second tick while the first is still running is skipped
	s.Trigger("slow")
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	<-done

	s.Trigger("slow")
	assert.Equal(t, int32(2), calls.Load())
}

func TestScheduler_RunImmediately(t *testing.T) {
	s := newTestScheduler()
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddIntervalTask("eager", time.Hour, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, RunImmediately()))
	require.NoError(t, s.AddIntervalTask("lazy", time.Hour, func(ctx context.Context) error {
		t.Error("lazy task should not run on start")
		return nil
	}))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task registered with RunImmediately did not run on start")
	}
}

func TestScheduler_StopDrainsInFlightTick(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	require.NoError(t, s.AddIntervalTask("tick", time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}, RunImmediately()))

	require.NoError(t, s.Start(context.Background()))
	<-started

	stopped := make(chan struct{})
	go func() {
		_ = s.Stop(context.Background())
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight tick finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.True(t, finished.Load())
}

func TestScheduler_StopHonoursContext(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, s.AddIntervalTask("stuck", time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, RunImmediately()))

	require.NoError(t, s.Start(context.Background()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
}
