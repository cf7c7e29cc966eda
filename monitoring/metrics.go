package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total ledger operations by outcome",
		},
		[]string{"operation", "status"},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_persist_failures_total",
			Help: "Failed Redis write-throughs",
		},
	)

	eventsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_events_total",
			Help: "Events ever created",
		},
	)

	ticketsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_tickets_total",
			Help: "Tickets ever minted",
		},
	)

	openEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_open_events",
			Help: "Events neither cancelled nor completed",
		},
	)

	escrowTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_escrow_total",
			Help: "Sum of escrowed balances across all events",
		},
	)

	balancesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_balances_total",
			Help: "Sum of holder balances from refunds and withdrawals",
		},
	)
)

// TrackLedgerOperation records one operation outcome; status is "success" or
// the error kind.
func TrackLedgerOperation(operation, status string) {
	ledgerOperations.WithLabelValues(operation, status).Inc()
}

func TrackPersistFailure() {
	persistFailures.Inc()
}

// LedgerStats mirrors the ledger's Stats snapshot for gauge updates.
type LedgerStats struct {
	Events        uint64
	Tickets       uint64
	OpenEvents    int
	EscrowTotal   int64
	BalancesTotal int64
}

type Monitor struct {
	interval time.Duration
	source   func() LedgerStats
}

func NewMonitor(interval time.Duration, source func() LedgerStats) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{interval: interval, source: source}
}

// Run polls the ledger stats until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.source()
			eventsTotal.Set(float64(stats.Events))
			ticketsTotal.Set(float64(stats.Tickets))
			openEvents.Set(float64(stats.OpenEvents))
			escrowTotal.Set(float64(stats.EscrowTotal))
			balancesTotal.Set(float64(stats.BalancesTotal))
		}
	}
}
