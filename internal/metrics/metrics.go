// Package metrics exposes prometheus collectors for scans and signal
// dispatch. A one-shot CLI has no scrape endpoint, so the registry is
// written to a node_exporter textfile on exit when configured.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	signalsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ptree",
			Subsystem: "dispatch",
			Name:      "signals_sent_total",
			Help:      "Number of signals delivered to descendants.",
		}, []string{"signal"},
	)
	signalFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ptree",
			Subsystem: "dispatch",
			Name:      "signal_failures_total",
			Help:      "Number of signals the kernel refused, by reason.",
		}, []string{"signal", "reason"},
	)
	killReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ptree",
			Subsystem: "dispatch",
			Name:      "kill_reconciled_total",
			Help:      "Descendants found by the reconciliation pass of a kill.",
		},
	)
	scanProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ptree",
			Subsystem: "scan",
			Name:      "processes",
			Help:      "Readable processes seen by the last scan.",
		},
	)
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ptree",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Time spent listing and reading the process table.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{signalsSent, signalFailures, killReconciled, scanProcesses, scanDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// The helpers below no-op until Register has been called.

func ObserveSignal(signal string, failureReason string) {
	if !regOK.Load() {
		return
	}
	if failureReason == "" {
		signalsSent.WithLabelValues(signal).Inc()
		return
	}
	signalFailures.WithLabelValues(signal, failureReason).Inc()
}

func AddReconciled(n int) {
	if regOK.Load() && n > 0 {
		killReconciled.Add(float64(n))
	}
}

func ObserveScan(processes int, d time.Duration) {
	if regOK.Load() {
		scanProcesses.Set(float64(processes))
		scanDuration.Observe(d.Seconds())
	}
}
