package launcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLauncher(names []string, listErr error) *Launcher {
	l := New([]string{"systemctl", "restart", "xmrig.service"}, time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.listNames = func(ctx context.Context) ([]string, error) { return names, listErr }
	return l
}

func TestIsRunning(t *testing.T) {
	tests := []struct {
		name  string
		procs []string
		want  bool
	}{
		{"exact", []string{"bash", "xmrig"}, true},
		{"case insensitive", []string{"XMRig"}, true},
		{"substring", []string{"xmrig-notls"}, true},
		{"multiple matches", []string{"xmrig", "xmrig-cuda"}, true},
		{"absent", []string{"bash", "sshd"}, false},
		{"empty table", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := newTestLauncher(tt.procs, nil).IsRunning(context.Background(), "xmrig")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIsRunning_ListError(t *testing.T) {
	ok, err := newTestLauncher(nil, errors.New("permission denied")).IsRunning(context.Background(), "xmrig")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLaunch(t *testing.T) {
	l := newTestLauncher(nil, nil)
	var gotName string
	var gotArgs []string
	l.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		gotName, gotArgs = name, args
		return nil, nil
	}

	require.NoError(t, l.Launch(context.Background()))
	assert.Equal(t, "systemctl", gotName)
	assert.Equal(t, []string{"restart", "xmrig.service"}, gotArgs)
}

func TestLaunch_FailureIncludesOutput(t *testing.T) {
	l := newTestLauncher(nil, nil)
	l.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Unit xmrig.service not found.\n"), errors.New("exit status 5")
	}

	err := l.Launch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "exit status 5: Unit xmrig.service not found.", err.Error())
}

func TestLaunch_NoCommand(t *testing.T) {
	l := New(nil, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, l.Launch(context.Background()), ErrNoCommand)
}
