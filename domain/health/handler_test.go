package health

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/internal/server"
	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

func newTestServer(t *testing.T) (*echo.Echo, *state.State) {
	t.Helper()
	cfg := &config.Config{Hostname: "rig-1"}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := state.New()
	e := server.NewEcho(server.EchoParams{Config: cfg, Log: log})
	RegisterRoutes(e, NewHandler(st, cfg))
	return e, st
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sampled() syshealth.Snapshot {
	temp := 58.25
	return syshealth.Snapshot{
		Timestamp:             time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		CPUTemperatureCelsius: &temp,
		Uptime:                90 * time.Minute,
		MemoryUsedMB:          1500,
		MemoryTotalMB:         3900,
		LoadAverage:           [3]float64{1.5, 1.25, 1},
		Hashrate:              812.4,
		MinerStatus:           "6.21.0",
	}
}

func TestHealth_BeforeFirstSample(t *testing.T) {
	e, _ := newTestServer(t)

	rec := get(e, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, body["timestamp"])
	assert.Nil(t, body["cpu_temperature_celsius"])
	assert.Equal(t, "not_sampled", body["miner_status"])
	assert.Equal(t, 0.0, body["hashrate"])
}

func TestHealth_ServesPublishedSnapshot(t *testing.T) {
	e, st := newTestServer(t)
	st.Publish(sampled())

	rec := get(e, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Timestamp)
	assert.True(t, resp.Timestamp.Equal(sampled().Timestamp))
	assert.Equal(t, "1h 30m", resp.Uptime)
	assert.Equal(t, int64(5400), resp.UptimeSeconds)
	require.NotNil(t, resp.CPUTemperatureCelsius)
	assert.Equal(t, 58.25, *resp.CPUTemperatureCelsius)
	assert.Equal(t, [3]float64{1.5, 1.25, 1}, resp.LoadAverage)
	assert.Equal(t, Memory{UsedMB: 1500, TotalMB: 3900}, resp.Memory)
	assert.Equal(t, 812.4, resp.Hashrate)
	assert.Equal(t, "6.21.0", resp.MinerStatus)
}

func TestHealth_TrailingSlash(t *testing.T) {
	e, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, get(e, "/health/").Code)
}

func TestSummary(t *testing.T) {
	e, st := newTestServer(t)
	st.Publish(sampled())

	rec := get(e, "/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rig-1", body["host"])
	assert.Equal(t, "2026-10-19T08:00:00Z", body["timestamp"])
	assert.Equal(t, 1500.0, body["memory_used_mb"])
	assert.Equal(t, 3900.0, body["memory_total_mb"])
	assert.Equal(t, []any{1.5, 1.25, 1.0}, body["load_average"])
	assert.Equal(t, "6.21.0", body["miner_status"])
}

func TestSummary_RepeatedReadsAreIdentical(t *testing.T) {
	e, st := newTestServer(t)
	st.Publish(sampled())

	first := get(e, "/summary").Body.String()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, get(e, "/summary").Body.String())
	}
	assert.True(t, st.Alerts().LastSummaryAt.IsZero(), "reads must not claim the summary slot")
}

func TestUnknownPath(t *testing.T) {
	e, _ := newTestServer(t)

	for _, path := range []string{"/", "/status", "/health/extra"} {
		rec := get(e, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"Invalid endpoint"}`, rec.Body.String(), path)
	}
}

func TestHealth_ConcurrentReadsDuringPublish(t *testing.T) {
	e, st := newTestServer(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap := sampled()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			snap.Hashrate = float64(i)
			snap.MemoryUsedMB = uint64(i)
			st.Publish(snap)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				rec := get(e, "/health")
				var resp HealthResponse
				if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)) && resp.Timestamp != nil {
					// both fields come from the same snapshot
					assert.Equal(t, resp.Hashrate, float64(resp.Memory.UsedMB))
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
