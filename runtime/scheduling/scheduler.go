package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/quorumnet/sched-core/common/crypto/hash"
	"github.com/quorumnet/sched-core/common/logging"
	"github.com/quorumnet/sched-core/runtime/scoring"
	"github.com/quorumnet/sched-core/runtime/transaction"
	"github.com/quorumnet/sched-core/runtime/txpool"
)

// Dispatcher is the block assembly collaborator receiving selected
// batches.
type Dispatcher interface {
	// Dispatch hands an ordered batch over for block assembly. The batch
	// is already removed from the pool when Dispatch is called.
	Dispatch(batch []*transaction.Transaction) error
}

// Config is the scheduler configuration.
type Config struct {
	// GasBudget is the per-batch gas budget.
	GasBudget uint64 `yaml:"gas_budget"`

	// RoundTimeout is the time budget of one scheduling round. A round
	// exceeding it yields its best-effort partial batch.
	RoundTimeout time.Duration `yaml:"round_timeout"`

	// FlushInterval is the cadence of forced scheduling rounds when no
	// admissions trigger one.
	FlushInterval time.Duration `yaml:"flush_interval"`

	// FeeRevenueTarget is the fee revenue per batch, in whole tokens,
	// that normalizes the fee efficiency signal.
	FeeRevenueTarget float64 `yaml:"fee_revenue_target"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		GasBudget:        10_000_000,
		RoundTimeout:     time.Second,
		FlushInterval:    5 * time.Second,
		FeeRevenueTarget: 100.0,
	}
}

// outcomeSmoothing is the EWMA coefficient applied to per-round scheduling
// outcomes before they reach the weight controller.
const outcomeSmoothing = 0.2

// Scheduler runs scheduling rounds over the transaction pool and reports
// their outcomes to the adaptive weight controller.
//
// Scheduler implements scoring.MetricsSource.
type Scheduler struct {
	logger *logging.Logger

	cfg        Config
	pool       txpool.TransactionPool
	dispatcher Dispatcher

	metricsLock sync.Mutex
	recent      *scoring.Metrics

	stopOnce sync.Once
	stopCh   chan struct{}
	quitCh   chan struct{}
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg Config, pool txpool.TransactionPool, dispatcher Dispatcher) *Scheduler {
	initMetrics()

	return &Scheduler{
		logger:     logging.GetLogger("runtime/scheduling"),
		cfg:        cfg,
		pool:       pool,
		dispatcher: dispatcher,
		stopCh:     make(chan struct{}),
		quitCh:     make(chan struct{}),
	}
}

// Name returns the service name.
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Start starts the scheduler's round worker.
func (s *Scheduler) Start() error {
	go s.worker()
	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Quit returns a channel that will be closed when the scheduler
// terminates.
func (s *Scheduler) Quit() <-chan struct{} {
	return s.quitCh
}

// SchedulingMetrics returns the smoothed outcomes of recent rounds, or nil
// if no round has produced a batch yet.
func (s *Scheduler) SchedulingMetrics() *scoring.Metrics {
	s.metricsLock.Lock()
	defer s.metricsLock.Unlock()

	if s.recent == nil {
		return nil
	}
	m := *s.recent
	return &m
}

// ScheduleRound runs one scheduling round: score, select, remove the
// selected batch from the pool and dispatch it.
func (s *Scheduler) ScheduleRound(ctx context.Context) ([]*transaction.Transaction, error) {
	if s.cfg.RoundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RoundTimeout)
		defer cancel()
	}

	candidates, err := s.pool.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	selected := Select(ctx, candidates, s.cfg.GasBudget)
	if len(selected) == 0 {
		return nil, nil
	}

	batch := make([]*transaction.Transaction, 0, len(selected))
	hashes := make([]hash.Hash, 0, len(selected))
	for _, c := range selected {
		batch = append(batch, c.Tx)
		hashes = append(hashes, c.Hash)
	}

	// Only fully committed transactions leave the pool.
	s.pool.Finalize(hashes)

	s.recordOutcome(candidates, batch)
	publishRoundMetrics(batch)

	if s.dispatcher != nil {
		if err = s.dispatcher.Dispatch(batch); err != nil {
			s.logger.Error("failed to dispatch batch",
				"err", err,
				"batch_size", len(batch),
			)
			return nil, err
		}
	}

	s.logger.Debug("scheduled batch",
		"batch_size", len(batch),
		"candidates", len(candidates),
	)

	return batch, nil
}

// recordOutcome folds one round's outcome into the signals consumed by the
// weight controller.
func (s *Scheduler) recordOutcome(candidates []*txpool.ScoredTransaction, batch []*transaction.Transaction) {
	classCounts := func(txs []*transaction.Transaction) (system, governance, total float64) {
		for _, tx := range txs {
			switch tx.Class() {
			case transaction.ClassSystem:
				system++
			case transaction.ClassGovernance:
				governance++
			}
			total++
		}
		return
	}

	var pendSystem, pendGovernance float64
	for _, c := range candidates {
		switch c.Tx.Class() {
		case transaction.ClassSystem:
			pendSystem++
		case transaction.ClassGovernance:
			pendGovernance++
		}
	}

	selSystem, selGovernance, _ := classCounts(batch)

	var feeRevenue float64
	for _, tx := range batch {
		feeRevenue += tx.FeeTokens()
	}

	// Processing rate of a class is the share of its pending transactions
	// that made it into the batch; with nothing pending the class is fully
	// served.
	rate := func(selected, pending float64) float64 {
		if pending == 0 {
			return 1.0
		}
		return selected / pending
	}

	outcome := scoring.Metrics{
		FeeRevenue:       feeRevenue / s.cfg.FeeRevenueTarget,
		SystemTxRate:     rate(selSystem, pendSystem),
		GovernanceTxRate: rate(selGovernance, pendGovernance),
	}

	s.metricsLock.Lock()
	defer s.metricsLock.Unlock()

	if s.recent == nil {
		s.recent = &outcome
		return
	}
	s.recent.FeeRevenue += outcomeSmoothing * (outcome.FeeRevenue - s.recent.FeeRevenue)
	s.recent.SystemTxRate += outcomeSmoothing * (outcome.SystemTxRate - s.recent.SystemTxRate)
	s.recent.GovernanceTxRate += outcomeSmoothing * (outcome.GovernanceTxRate - s.recent.GovernanceTxRate)
}

func (s *Scheduler) worker() {
	defer close(s.quitCh)

	sub, wakeupCh := s.pool.WatchScheduler()
	defer sub.Close()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-wakeupCh:
		case <-ticker.C:
		}

		if _, err := s.ScheduleRound(context.Background()); err != nil {
			s.logger.Warn("scheduling round failed",
				"err", err,
			)
		}
	}
}
