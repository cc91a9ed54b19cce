package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provisioner metrics
var (
	TaskLaunchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gamehost",
		Subsystem: "provisioner",
		Name:      "launch_latency_seconds",
		Help:      "Latency of launching a game-server task",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
	})

	TaskLaunchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "provisioner",
		Name:      "launch_errors_total",
		Help:      "Total number of task launch errors",
	})

	TaskStopErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "provisioner",
		Name:      "stop_errors_total",
		Help:      "Total number of task stop errors",
	})
)

// Session metrics
var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Total number of multiplayer sessions started",
	})

	SessionsReused = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "session",
		Name:      "reused_total",
		Help:      "Start calls answered by an existing live session",
	})

	SessionsStopped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "session",
		Name:      "stopped_total",
		Help:      "Total number of multiplayer sessions stopped",
	})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "session",
		Name:      "expired_total",
		Help:      "Sessions torn down because their TTL lapsed",
	})
)

// Storage metrics
var (
	ProgressUploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "storage",
		Name:      "upload_bytes_total",
		Help:      "Total bytes of uploaded progress files",
	})

	ProgressUploadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamehost",
		Subsystem: "storage",
		Name:      "upload_errors_total",
		Help:      "Total number of failed progress uploads",
	})
)
