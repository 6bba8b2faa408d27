// Package metrics exposes the pipeline's Prometheus counters. Per-attempt
// extraction failures are swallowed by the fallback chain, so the counters
// are the only place they stay visible in aggregate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionAttempts counts inference requests per model.
	ExtractionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_extraction_attempts_total",
		Help: "Inference requests issued, per model.",
	}, []string{"model"})

	// ExtractionFailures counts failed inference attempts per model.
	ExtractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_extraction_failures_total",
		Help: "Inference attempts that failed, per model.",
	}, []string{"model"})

	// ExtractionFallbacks counts handoffs to the next model target.
	ExtractionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gastos_extraction_fallbacks_total",
		Help: "Times the chain fell back to the next model target.",
	})

	// EntriesPersisted counts expense records committed.
	EntriesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gastos_entries_persisted_total",
		Help: "Expense entries written to the database.",
	})

	// ScanFailures counts failed pipeline runs by the phase they died in.
	ScanFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_scan_failures_total",
		Help: "Scan runs that ended in failure, per pipeline phase.",
	}, []string{"phase"})
)
