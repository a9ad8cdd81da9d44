package syshealth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CPUTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "host_cpu_temperature_celsius",
		Help: "CPU temperature from the latest sample (NaN when unreadable)",
	})

	LoadAverage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "host_load_average",
		Help: "Host load average",
	}, []string{"period"})

	MemoryUsedMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "host_memory_used_mb",
		Help: "Used memory in MB",
	})

	MemoryTotalMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "host_memory_total_mb",
		Help: "Total memory in MB",
	})

	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "host_uptime_seconds",
		Help: "Host uptime in seconds",
	})

	Hashrate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miner_hashrate",
		Help: "Miner hashrate in H/s from the latest sample",
	})

	MinerReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miner_api_reachable",
		Help: "1 if the miner API answered during the latest sample",
	})

	ProbeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "health_probe_failures_total",
		Help: "Sub-probe failures that degraded a sample field",
	}, []string{"probe"})
)
