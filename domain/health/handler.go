package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minerlab/miner-syncd/domain/state"
	"github.com/minerlab/miner-syncd/domain/summary"
	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

// Handler answers status queries from the cached snapshot. It never samples.
type Handler struct {
	state *state.State
	host  string
}

// NewHandler creates a new health handler
func NewHandler(st *state.State, cfg *config.Config) *Handler {
	return &Handler{
		state: st,
		host:  cfg.Hostname,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	// Timestamp is null until the first sample completes
	Timestamp             *time.Time `json:"timestamp"`
	Uptime                string     `json:"uptime"`
	UptimeSeconds         int64      `json:"uptime_seconds"`
	CPUTemperatureCelsius *float64   `json:"cpu_temperature_celsius"`
	LoadAverage           [3]float64 `json:"load_average"`
	Memory                Memory     `json:"memory"`
	Hashrate              float64    `json:"hashrate"`
	MinerStatus           string     `json:"miner_status"`
}

// Memory is the memory usage block of HealthResponse
type Memory struct {
	UsedMB  uint64 `json:"used_mb"`
	TotalMB uint64 `json:"total_mb"`
}

// NewHealthResponse shapes snap as a health response
func NewHealthResponse(snap syshealth.Snapshot) HealthResponse {
	resp := HealthResponse{
		Status:                "ok",
		Uptime:                syshealth.FormatUptime(snap.Uptime),
		UptimeSeconds:         int64(snap.Uptime / time.Second),
		CPUTemperatureCelsius: snap.CPUTemperatureCelsius,
		LoadAverage:           snap.LoadAverage,
		Memory: Memory{
			UsedMB:  snap.MemoryUsedMB,
			TotalMB: snap.MemoryTotalMB,
		},
		Hashrate:    snap.Hashrate,
		MinerStatus: snap.MinerStatus,
	}
	if snap.Sampled() {
		ts := snap.Timestamp
		resp.Timestamp = &ts
	}
	return resp
}

// Health returns the latest snapshot with a static "ok" marker
// @Summary      Get node health
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, NewHealthResponse(h.state.Read()))
}

// Summary returns the latest snapshot shaped as a digest record
// @Summary      Get node summary
// @Tags         health
// @Produce      json
// @Success      200 {object} summary.Digest
// @Router       /summary [get]
func (h *Handler) Summary(c echo.Context) error {
	return c.JSON(http.StatusOK, summary.BuildDigest(h.host, h.state.Read()))
}
