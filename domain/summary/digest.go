package summary

import (
	"time"

	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

// Digest is the summary record built from one snapshot. It is served by the
// status API and rendered into the periodic summary notification.
type Digest struct {
	// Timestamp is nil until the first sample completes
	Timestamp             *time.Time `json:"timestamp"`
	Host                  string     `json:"host"`
	Uptime                string     `json:"uptime"`
	CPUTemperatureCelsius *float64   `json:"cpu_temperature_celsius"`
	MemoryUsedMB          uint64     `json:"memory_used_mb"`
	MemoryTotalMB         uint64     `json:"memory_total_mb"`
	LoadAverage           [3]float64 `json:"load_average"`
	Hashrate              float64    `json:"hashrate"`
	MinerStatus           string     `json:"miner_status"`
}

// BuildDigest shapes snap as a digest for host. It has no side effects.
func BuildDigest(host string, snap syshealth.Snapshot) Digest {
	d := Digest{
		Host:                  host,
		Uptime:                syshealth.FormatUptime(snap.Uptime),
		CPUTemperatureCelsius: snap.CPUTemperatureCelsius,
		MemoryUsedMB:          snap.MemoryUsedMB,
		MemoryTotalMB:         snap.MemoryTotalMB,
		LoadAverage:           snap.LoadAverage,
		Hashrate:              snap.Hashrate,
		MinerStatus:           snap.MinerStatus,
	}
	if snap.Sampled() {
		ts := snap.Timestamp
		d.Timestamp = &ts
	}
	return d
}
