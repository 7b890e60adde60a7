package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignaturesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_signatures_issued_total",
			Help: "Total number of claim signatures issued",
		},
		[]string{"claim_type"},
	)

	SignatureRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_signature_rejections_total",
			Help: "Total number of claim signature requests rejected",
		},
		[]string{"claim_type", "reason"},
	)

	ClaimRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_claim_records_total",
			Help: "Total number of claim record submissions by result",
		},
		[]string{"claim_type", "result"},
	)

	LedgerMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_ledger_mutations_total",
			Help: "Total number of ledger mutation steps by outcome",
		},
		[]string{"claim_type", "step", "status"},
	)

	LedgerDriftTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_ledger_drift_total",
			Help: "Total number of claims whose on-chain amount did not match the ledger allocation",
		},
		[]string{"claim_type"},
	)

	ReconciliationSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_reconciliation_signals_total",
			Help: "Total number of needs-reconciliation signals emitted",
		},
		[]string{"kind"},
	)

	RetryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_retry_exhausted_total",
			Help: "Total number of operations that exhausted all retry attempts",
		},
		[]string{"operation"},
	)

	ChainReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipyard_chain_read_duration_seconds",
			Help:    "Duration of vault reads and receipt lookups",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
		[]string{"method", "status"},
	)

	VaultEventsSyncedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_vault_events_synced_total",
			Help: "Total number of vault events applied by the sync job",
		},
		[]string{"event", "result"},
	)

	VaultSyncBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipyard_vault_sync_block",
			Help: "Last vault block scanned by the sync job",
		},
	)

	ReconciliationTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_reconciliation_tasks_total",
			Help: "Total number of reconciliation tasks swept, by outcome",
		},
		[]string{"kind", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipyard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)
)
