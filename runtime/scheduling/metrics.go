package scheduling

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumnet/sched-core/runtime/transaction"
)

var (
	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sched_scheduler_batch_size",
			Help:    "Number of transactions in a scheduled batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	batchGas = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sched_scheduler_batch_gas",
			Help:    "Total gas limit of a scheduled batch.",
			Buckets: prometheus.ExponentialBuckets(21_000, 2, 12),
		},
	)

	schedulerCollectors = []prometheus.Collector{
		batchSize,
		batchGas,
	}

	metricsOnce sync.Once
)

func publishRoundMetrics(batch []*transaction.Transaction) {
	var gas uint64
	for _, tx := range batch {
		gas += tx.GasLimit
	}
	batchSize.Observe(float64(len(batch)))
	batchGas.Observe(float64(gas))
}

func initMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(schedulerCollectors...)
	})
}
