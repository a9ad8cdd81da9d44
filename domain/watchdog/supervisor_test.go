package watchdog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerlab/miner-syncd/pkg/notify"
)

// scriptedLauncher answers IsRunning from a queue; the last answer repeats.
type scriptedLauncher struct {
	answers   []bool
	listErr   error
	launchErr error
	checks    int
	launches  int
	onLaunch  func()
}

func (l *scriptedLauncher) IsRunning(ctx context.Context, substr string) (bool, error) {
	if l.listErr != nil {
		return false, l.listErr
	}
	i := l.checks
	if i >= len(l.answers) {
		i = len(l.answers) - 1
	}
	l.checks++
	return l.answers[i], nil
}

func (l *scriptedLauncher) Launch(ctx context.Context) error {
	l.launches++
	if l.onLaunch != nil {
		l.onLaunch()
	}
	return l.launchErr
}

type recordingSink struct {
	bodies []string
}

func (r *recordingSink) Notify(ctx context.Context, title, body string) notify.Result {
	r.bodies = append(r.bodies, body)
	return notify.Result{Success: true}
}

func newSupervisor(l *scriptedLauncher) (*Supervisor, *recordingSink) {
	sink := &recordingSink{}
	return New(l, sink, "xmrig", slog.New(slog.NewTextHandler(io.Discard, nil))), sink
}

func TestSupervisor_RunningTakesNoAction(t *testing.T) {
	l := &scriptedLauncher{answers: []bool{true}}
	s, sink := newSupervisor(l)

	require.NoError(t, s.Run(context.Background()))
	assert.Zero(t, l.launches)
	assert.Empty(t, sink.bodies)
}

func TestSupervisor_RecheckPreventsLaunch(t *testing.T) {
	l := &scriptedLauncher{answers: []bool{false, true}}
	s, sink := newSupervisor(l)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 2, l.checks)
	assert.Zero(t, l.launches)
	assert.Empty(t, sink.bodies)
}

func TestSupervisor_AbsentThenPresent(t *testing.T) {
	l := &scriptedLauncher{answers: []bool{false}}
	l.onLaunch = func() { l.answers = []bool{true} }
	s, sink := newSupervisor(l)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 1, l.launches)
	assert.Equal(t, []string{"XMRig restarted by watchdog"}, sink.bodies)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 1, l.launches)
	assert.Len(t, sink.bodies, 1)
}

func TestSupervisor_LaunchFailure(t *testing.T) {
	l := &scriptedLauncher{answers: []bool{false}, launchErr: errors.New("exit status 5")}
	s, sink := newSupervisor(l)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, l.launches)
	assert.Equal(t, []string{"XMRig restart failed: exit status 5"}, sink.bodies)

	// condition persists and is retried on the next tick, not immediately
	_ = s.Run(context.Background())
	assert.Equal(t, 2, l.launches)
}

func TestSupervisor_ListErrorNeverLaunches(t *testing.T) {
	l := &scriptedLauncher{listErr: errors.New("permission denied")}
	s, sink := newSupervisor(l)

	assert.Error(t, s.Run(context.Background()))
	assert.Zero(t, l.launches)
	assert.Empty(t, sink.bodies)
}
