// Package metrics provides the prometheus collectors for the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksMinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "chain",
		Name:      "blocks_mined_total",
		Help:      "Count of blocks mined and appended to the chain.",
	})

	transactionsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "chain",
		Name:      "transactions_processed_total",
		Help:      "Count of pool transactions included in mined blocks.",
	})

	miningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "chain",
		Name:      "mining_duration_seconds",
		Help:      "Duration of the proof of work search for a block.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms..262s
	})

	mempoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "mempool",
		Name:      "size",
		Help:      "Number of transactions waiting in the pool.",
	})

	difficulty = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "chain",
		Name:      "difficulty",
		Help:      "Current proof of work difficulty.",
	})

	tamperChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "security",
		Name:      "tamper_checks_total",
		Help:      "Count of tamper checks by result.",
	}, []string{"result"})
)

// Ledger records the ledger activity.
type Ledger struct{}

// ObserveBlock records a block appended to the chain.
func (Ledger) ObserveBlock(trans int, mining time.Duration) {
	blocksMinedTotal.Inc()
	transactionsProcessedTotal.Add(float64(trans))
	miningDuration.Observe(mining.Seconds())
}

// SetMempoolSize records the number of transactions in the pool.
func (Ledger) SetMempoolSize(n int) {
	mempoolSize.Set(float64(n))
}

// SetDifficulty records the current difficulty.
func (Ledger) SetDifficulty(d uint) {
	difficulty.Set(float64(d))
}

// ObserveTamperCheck records the result of a tamper check.
func (Ledger) ObserveTamperCheck(detected bool) {
	result := "clean"
	if detected {
		result = "detected"
	}
	tamperChecksTotal.WithLabelValues(result).Inc()
}
