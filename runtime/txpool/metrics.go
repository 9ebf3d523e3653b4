package txpool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pendingCheckSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sched_txpool_pending_check_size",
			Help: "Size of the pending to be checked queue (number of entries).",
		},
	)
	pendingScheduleSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sched_txpool_pending_schedule_size",
			Help: "Size of the schedulable queue (number of entries).",
		},
	)
	acceptedTransactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_txpool_accepted_transactions",
			Help: "Number of admitted transactions.",
		},
	)
	rejectedTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sched_txpool_rejected_transactions",
			Help: "Number of rejected transactions.",
		},
		[]string{"reason"},
	)
	replacedTransactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_txpool_replaced_transactions",
			Help: "Number of transactions superseded by a fee-bumped resubmission.",
		},
	)
	evictedTransactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_txpool_evicted_transactions",
			Help: "Number of transactions evicted under capacity pressure.",
		},
	)
	expiredTransactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_txpool_expired_transactions",
			Help: "Number of transactions expired after exceeding the maximum age.",
		},
	)

	txpoolCollectors = []prometheus.Collector{
		pendingCheckSize,
		pendingScheduleSize,
		acceptedTransactions,
		rejectedTransactions,
		replacedTransactions,
		evictedTransactions,
		expiredTransactions,
	}

	metricsOnce sync.Once
)

const (
	rejectReasonValidation  = "validation"
	rejectReasonReplacement = "replacement"
	rejectReasonFull        = "mempool_full"
	rejectReasonDuplicate   = "duplicate"
)

func initMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(txpoolCollectors...)
	})
}
