package scoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	pathVector = "vector"
	pathScalar = "scalar"
)

var (
	enginePathRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sched_scoring_engine_path_runs",
			Help: "Number of batch scoring runs per execution path.",
		},
		[]string{"path"},
	)
	weightValues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sched_scoring_weight",
			Help: "Current value of each scoring weight.",
		},
		[]string{"weight"},
	)
	weightRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_scoring_weight_rejections",
			Help: "Number of weight adjustments rejected as degenerate.",
		},
	)

	scoringCollectors = []prometheus.Collector{
		enginePathRuns,
		weightValues,
		weightRejections,
	}

	metricsOnce sync.Once
)

func publishWeightMetrics(w *Weights) {
	weightValues.WithLabelValues("fee").Set(w.Fee)
	weightValues.WithLabelValues("system").Set(w.System)
	weightValues.WithLabelValues("financial").Set(w.Financial)
	weightValues.WithLabelValues("governance").Set(w.Governance)
	weightValues.WithLabelValues("age").Set(w.Age)
}

func initMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(scoringCollectors...)
	})
}
