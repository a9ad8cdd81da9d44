package syshealth

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/pkg/logger"
	"github.com/minerlab/miner-syncd/pkg/xmrig"
)

// Module provides the health sampler
var Module = fx.Module("syshealth",
	fx.Provide(
		NewConfig,
		NewSampler,
	),
)

const bytesPerMB = 1024 * 1024

// Sampler reads host and miner metrics into a Snapshot.
// Failed sub-probes degrade to sentinel values; Sample itself never fails.
type Sampler struct {
	cfg *Config
	log *slog.Logger
	now func() time.Time

	// Collection functions for mocking
	getUptime       func(context.Context) (uint64, error)
	getTemperatures func(context.Context) ([]host.TemperatureStat, error)
	getLoadAvg      func(context.Context) (*load.AvgStat, error)
	getMemStats     func(context.Context) (*mem.VirtualMemoryStat, error)
	getMinerSummary func(context.Context) (*xmrig.Summary, error)
}

// NewSampler creates a sampler backed by gopsutil and the miner API client.
func NewSampler(cfg *Config, miner *xmrig.Client, log *slog.Logger) *Sampler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Sampler{
		cfg:             cfg,
		log:             log.With(logger.Scope("syshealth.sampler")),
		now:             time.Now,
		getUptime:       host.UptimeWithContext,
		getTemperatures: host.SensorsTemperaturesWithContext,
		getLoadAvg:      load.AvgWithContext,
		getMemStats:     mem.VirtualMemoryWithContext,
		getMinerSummary: miner.Summary,
	}
}

// Sample takes one reading, bounded by the probe timeout.
func (s *Sampler) Sample(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	snap := Snapshot{Timestamp: s.now()}

	if secs, err := s.getUptime(ctx); err == nil {
		snap.Uptime = time.Duration(secs) * time.Second
	} else {
		s.probeFailed("uptime", err)
	}

	snap.CPUTemperatureCelsius = s.readTemperature(ctx)

	if l, err := s.getLoadAvg(ctx); err == nil {
		snap.LoadAverage = [3]float64{l.Load1, l.Load5, l.Load15}
	} else {
		s.probeFailed("load", err)
	}

	if v, err := s.getMemStats(ctx); err == nil {
		snap.MemoryUsedMB = v.Used / bytesPerMB
		snap.MemoryTotalMB = v.Total / bytesPerMB
		if snap.MemoryUsedMB > snap.MemoryTotalMB {
			s.log.Warn("memory used exceeds total",
				slog.Uint64("used_mb", snap.MemoryUsedMB),
				slog.Uint64("total_mb", snap.MemoryTotalMB))
		}
	} else {
		s.probeFailed("memory", err)
	}

	if summary, err := s.getMinerSummary(ctx); err == nil {
		snap.Hashrate = summary.CurrentHashrate()
		snap.MinerStatus = summary.Version
		if snap.MinerStatus == "" {
			snap.MinerStatus = MinerStatusOnline
		}
	} else {
		s.probeFailed("miner", err)
		snap.Hashrate = 0
		snap.MinerStatus = MinerStatusUnreachable
	}

	observe(snap)

	s.log.Debug("health sampled",
		slog.Float64("hashrate", snap.Hashrate),
		slog.String("miner_status", snap.MinerStatus),
		slog.Float64("load1", snap.LoadAverage[0]),
		slog.Uint64("mem_used_mb", snap.MemoryUsedMB))

	return snap
}

// readTemperature picks the CPU temperature by sensor preference, falling back to the hottest sensor.
func (s *Sampler) readTemperature(ctx context.Context) *float64 {
	temps, err := s.getTemperatures(ctx)
	// gopsutil returns partial readings together with warnings
	if err != nil && len(temps) == 0 {
		s.probeFailed("temperature", err)
		return nil
	}

	var valid []host.TemperatureStat
	for _, t := range temps {
		if t.Temperature > 0 && t.Temperature < 150 {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	for _, pref := range s.cfg.TemperatureSensors {
		if v, ok := hottest(valid, pref); ok {
			return &v
		}
	}
	v, _ := hottest(valid, "")
	return &v
}

func hottest(temps []host.TemperatureStat, keySubstr string) (float64, bool) {
	found := false
	max := 0.0
	for _, t := range temps {
		if keySubstr != "" && !strings.Contains(strings.ToLower(t.SensorKey), keySubstr) {
			continue
		}
		if !found || t.Temperature > max {
			max = t.Temperature
			found = true
		}
	}
	return max, found
}

func (s *Sampler) probeFailed(probe string, err error) {
	ProbeFailures.WithLabelValues(probe).Inc()
	s.log.Warn("health probe failed", slog.String("probe", probe), logger.Error(err))
}

func observe(snap Snapshot) {
	if snap.CPUTemperatureCelsius != nil {
		CPUTemperature.Set(*snap.CPUTemperatureCelsius)
	} else {
		CPUTemperature.Set(math.NaN())
	}
	LoadAverage.WithLabelValues("1m").Set(snap.LoadAverage[0])
	LoadAverage.WithLabelValues("5m").Set(snap.LoadAverage[1])
	LoadAverage.WithLabelValues("15m").Set(snap.LoadAverage[2])
	MemoryUsedMB.Set(float64(snap.MemoryUsedMB))
	MemoryTotalMB.Set(float64(snap.MemoryTotalMB))
	UptimeSeconds.Set(snap.Uptime.Seconds())
	Hashrate.Set(snap.Hashrate)
	if snap.MinerReachable() {
		MinerReachable.Set(1)
	} else {
		MinerReachable.Set(0)
	}
}
