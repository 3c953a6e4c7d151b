// Package metrics exposes the pipeline's prometheus instrumentation,
// directly grounded on internal/metrics/metrics.go's init()-registration
// pattern and Handler() export, with gauge/counter names renamed to the
// watermarking domain.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LedgerHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hswat",
		Name:      "ledger_height",
		Help:      "Number of blocks in the transaction ledger, genesis included.",
	})

	EmbedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "embed_total",
		Help:      "Total successful embed operations.",
	})

	EmbedFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "embed_failed_total",
		Help:      "Total embed operations that failed before a ledger block was written.",
	})

	RemoveTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "remove_total",
		Help:      "Total successful remove operations.",
	})

	OverflowPositionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "overflow_positions_total",
		Help:      "Total windows skipped as overflow across all embed operations.",
	})

	ResolverBER = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hswat",
		Name:      "resolver_ber",
		Help:      "Bit-error rate observed for each resolver candidate comparison.",
		Buckets:   prometheus.LinearBuckets(0, 0.05, 21),
	})

	ResolverMatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "resolver_matches_total",
		Help:      "Total provenance resolutions that found a matching embed transaction.",
	})

	ResolverMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "resolver_misses_total",
		Help:      "Total provenance resolutions with no candidate under the BER threshold.",
	})

	LedgerContentionRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hswat",
		Name:      "ledger_contention_retries_total",
		Help:      "Total retry attempts taken while appending a ledger block.",
	})
)

func init() {
	prometheus.MustRegister(
		LedgerHeight,
		EmbedTotal,
		EmbedFailedTotal,
		RemoveTotal,
		OverflowPositionsTotal,
		ResolverBER,
		ResolverMatchesTotal,
		ResolverMissesTotal,
		LedgerContentionRetriesTotal,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
