package syshealth

import (
	"fmt"
	"time"
)

const (
	// MinerStatusUnreachable marks a sample where the miner's local API could not be queried.
	MinerStatusUnreachable = "unreachable"
	// MinerStatusNotSampled is reported before the first sample completes.
	MinerStatusNotSampled = "not_sampled"
	// MinerStatusOnline is used when the API answers without a version string.
	MinerStatusOnline = "online"
)

// Snapshot is one complete health reading. It is never mutated after Sample returns.
type Snapshot struct {
	// Timestamp is when the sample was taken; zero for the placeholder.
	Timestamp time.Time
	// CPUTemperatureCelsius is nil when no sensor could be read.
	CPUTemperatureCelsius *float64
	// Uptime is the host uptime since boot.
	Uptime time.Duration

	MemoryUsedMB  uint64
	MemoryTotalMB uint64

	// LoadAverage holds the 1, 5 and 15 minute load averages.
	LoadAverage [3]float64

	// Hashrate is in H/s. Zero means idle or unreachable; MinerStatus tells which.
	Hashrate float64
	// MinerStatus is the miner version, or one of the MinerStatus* sentinels.
	MinerStatus string
}

// Placeholder returns the snapshot served before anything has been sampled.
func Placeholder() Snapshot {
	return Snapshot{MinerStatus: MinerStatusNotSampled}
}

// Sampled reports whether s came from a real sample.
func (s Snapshot) Sampled() bool {
	return !s.Timestamp.IsZero()
}

// MinerReachable reports whether the miner API answered during the sample.
func (s Snapshot) MinerReachable() bool {
	return s.Sampled() && s.MinerStatus != MinerStatusUnreachable
}

// FormatUptime renders d as "3d 4h 12m", dropping leading zero units.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	mins := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
