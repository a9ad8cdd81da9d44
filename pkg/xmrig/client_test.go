package xmrig

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryJSON = `{
	"id": "a1b2c3",
	"worker_id": "rig-01",
	"version": "6.21.0",
	"kind": "miner",
	"uptime": 3600,
	"algo": "rx/0",
	"hashrate": {"total": [null, 5120.5, 5098.2], "highest": 5301.7},
	"results": {"shares_good": 42, "shares_total": 43}
}`

func TestClient_Summary(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, summaryPath, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(summaryJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, slog.Default())
	s, err := c.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "6.21.0", s.Version)
	assert.Equal(t, "rig-01", s.WorkerID)
	assert.Equal(t, int64(42), s.Results.SharesGood)
	assert.InDelta(t, 5120.5, s.CurrentHashrate(), 0.001)
}

func TestClient_Summary_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, slog.Default())
	_, err := c.Summary(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Summary_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "", 50*time.Millisecond, slog.Default())
	start := time.Now()
	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Summary_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "", 200*time.Millisecond, slog.Default())
	_, err := c.Summary(context.Background())
	require.Error(t, err)
}

func TestSummary_CurrentHashrate(t *testing.T) {
	v := func(f float64) *float64 { return &f }

	tests := []struct {
		name  string
		total []*float64
		want  float64
	}{
		{"empty", nil, 0},
		{"all null", []*float64{nil, nil, nil}, 0},
		{"short window", []*float64{v(10), v(20), v(30)}, 10},
		{"falls back to 60s", []*float64{nil, v(20), v(30)}, 20},
		{"idle miner", []*float64{v(0), v(0), v(0)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Summary{}
			s.Hashrate.Total = tt.total
			assert.Equal(t, tt.want, s.CurrentHashrate())
		})
	}
}
