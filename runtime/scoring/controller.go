package scoring

import (
	"sync/atomic"
	"time"

	"github.com/eapache/channels"

	"github.com/quorumnet/sched-core/common/logging"
)

// DefaultRebalanceInterval is the default cadence at which the weight
// controller recomputes the scoring weights.
const DefaultRebalanceInterval = 30 * time.Second

// Metrics is the scheduling outcome summary consumed by the weight
// controller on every rebalance.
type Metrics struct {
	// FeeRevenue is the recent fee revenue per block, normalized to the
	// revenue target (1.0 means exactly on target).
	FeeRevenue float64

	// SystemTxRate is the recent processing rate of system-class
	// transactions, normalized to the target rate.
	SystemTxRate float64

	// GovernanceTxRate is the recent processing rate of governance-class
	// transactions, normalized to the target rate.
	GovernanceTxRate float64
}

// MetricsSource provides scheduling outcome summaries to the controller.
type MetricsSource interface {
	// SchedulingMetrics returns the most recent scheduling outcome
	// summary, or nil if no outcomes have been observed yet.
	SchedulingMetrics() *Metrics
}

// Controller owns the adaptive scoring weights.
//
// All weight mutation is confined to the controller; everyone else observes
// read-only snapshots via Weights, so concurrent scoring calls see either
// the pre- or post-adjustment weight set, never a partial update.
type Controller struct {
	logger *logging.Logger

	interval time.Duration
	source   MetricsSource

	current atomic.Pointer[Weights]
	version atomic.Uint64

	rebalanceCh *channels.RingChannel

	stopCh chan struct{}
	quitCh chan struct{}
}

// NewController creates a new adaptive weight controller seeded with the
// default weight set.
func NewController(interval time.Duration, source MetricsSource) *Controller {
	if interval <= 0 {
		interval = DefaultRebalanceInterval
	}

	c := &Controller{
		logger:      logging.GetLogger("runtime/scoring/controller"),
		interval:    interval,
		source:      source,
		rebalanceCh: channels.NewRingChannel(1),
		stopCh:      make(chan struct{}),
		quitCh:      make(chan struct{}),
	}
	c.current.Store(DefaultWeights())

	return c
}

// Name returns the service name.
func (c *Controller) Name() string {
	return "scoring controller"
}

// Weights returns the current weight snapshot. The returned value must be
// treated as read-only.
func (c *Controller) Weights() *Weights {
	return c.current.Load()
}

// Version returns the weight set version. The version increases by one for
// every applied adjustment, allowing derived state (cached scores) to be
// invalidated when the weights change.
func (c *Controller) Version() uint64 {
	return c.version.Load()
}

// Adjust recomputes the weights from the given scheduling outcomes and
// publishes the result. On a degenerate result the previous valid weight
// set is retained and ErrInvalidWeights is returned.
func (c *Controller) Adjust(m *Metrics) error {
	adjusted, err := adjust(c.Weights(), m)
	if err != nil {
		weightRejections.Inc()
		c.logger.Error("rejecting degenerate weight adjustment",
			"err", err,
			"fee_revenue", m.FeeRevenue,
			"system_tx_rate", m.SystemTxRate,
			"governance_tx_rate", m.GovernanceTxRate,
		)
		return err
	}

	c.current.Store(adjusted)
	c.version.Add(1)
	publishWeightMetrics(adjusted)

	c.logger.Debug("weights rebalanced",
		"fee", adjusted.Fee,
		"system", adjusted.System,
		"financial", adjusted.Financial,
		"governance", adjusted.Governance,
		"age", adjusted.Age,
	)

	return nil
}

// ForceRebalance requests an immediate rebalance outside the regular
// cadence.
func (c *Controller) ForceRebalance() {
	c.rebalanceCh.In() <- struct{}{}
}

// Start starts the controller's rebalance worker.
func (c *Controller) Start() error {
	go c.worker()
	return nil
}

// Stop halts the controller.
func (c *Controller) Stop() {
	close(c.stopCh)
}

// Quit returns a channel that will be closed when the controller
// terminates.
func (c *Controller) Quit() <-chan struct{} {
	return c.quitCh
}

func (c *Controller) worker() {
	defer close(c.quitCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
		case <-c.rebalanceCh.Out():
		}

		m := c.source.SchedulingMetrics()
		if m == nil {
			continue
		}
		_ = c.Adjust(m)
	}
}

// Adjustment bounds. Increases and decreases are multiplicative, with hard
// caps and floors keeping any single weight from dominating or vanishing.
const (
	feeLowWatermark  = 0.8
	feeHighWatermark = 1.2
	feeCap           = 0.8
	feeFloor         = 0.3

	systemLowWatermark  = 0.90
	systemHighWatermark = 0.95
	systemCap           = 0.4
	systemFloor         = 0.1

	governanceLowWatermark = 0.5
	governanceCap          = 0.3
)

// adjust derives a new weight set from the current one and the observed
// scheduling outcomes. The input weight set is not modified.
func adjust(current *Weights, m *Metrics) (*Weights, error) {
	w := *current

	switch {
	case m.FeeRevenue < feeLowWatermark:
		w.Fee = min(w.Fee*1.10, feeCap)
	case m.FeeRevenue > feeHighWatermark:
		w.Fee = max(w.Fee*0.90, feeFloor)
	}

	switch {
	case m.SystemTxRate < systemLowWatermark:
		w.System = min(w.System*1.05, systemCap)
	case m.SystemTxRate > systemHighWatermark:
		w.System = max(w.System*0.95, systemFloor)
	}

	if m.GovernanceTxRate < governanceLowWatermark {
		w.Governance = min(w.Governance*1.10, governanceCap)
	}

	if err := w.normalize(); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	return &w, nil
}
