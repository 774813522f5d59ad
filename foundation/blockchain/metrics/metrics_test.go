package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestLedgerRecords(t *testing.T) {
	var m Ledger

	if inc := delta(t, blocksMinedTotal, func() {
		m.ObserveBlock(3, 20*time.Millisecond)
	}); inc != 1 {
		t.Fatalf("expected blocks mined increment, got %v", inc)
	}

	if inc := delta(t, transactionsProcessedTotal, func() {
		m.ObserveBlock(4, time.Millisecond)
	}); inc != 4 {
		t.Fatalf("expected transactions processed to grow by 4, got %v", inc)
	}

	m.SetMempoolSize(7)
	if got := testutil.ToFloat64(mempoolSize); got != 7 {
		t.Fatalf("expected mempool size 7, got %v", got)
	}

	m.SetDifficulty(3)
	if got := testutil.ToFloat64(difficulty); got != 3 {
		t.Fatalf("expected difficulty 3, got %v", got)
	}

	if inc := delta(t, tamperChecksTotal.WithLabelValues("detected"), func() {
		m.ObserveTamperCheck(true)
	}); inc != 1 {
		t.Fatalf("expected detected tamper check increment, got %v", inc)
	}
}
