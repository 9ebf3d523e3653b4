// Package txpool implements the transaction pool: admission, replacement,
// eviction and per-round candidate scoring.
package txpool

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/eapache/channels"

	"github.com/quorumnet/sched-core/common/cache/lru"
	"github.com/quorumnet/sched-core/common/crypto/hash"
	"github.com/quorumnet/sched-core/common/logging"
	"github.com/quorumnet/sched-core/common/pubsub"
	"github.com/quorumnet/sched-core/common/service"
	"github.com/quorumnet/sched-core/common/workerpool"
	"github.com/quorumnet/sched-core/runtime/scoring"
	"github.com/quorumnet/sched-core/runtime/scoring/scorecache"
	"github.com/quorumnet/sched-core/runtime/transaction"
	"github.com/quorumnet/sched-core/runtime/txpool/config"
)

// ageCreditHalfLife is the pending age at which a transaction earns half
// of the age weight. The age credit is applied outside the score cache so
// that cached scores stay valid as transactions get older.
const ageCreditHalfLife = 60 * time.Second

// Validator performs the syntactic and signature checks on a transaction
// before admission.
type Validator interface {
	// Validate checks the transaction, returning nil if it may be
	// admitted.
	Validate(tx *transaction.Transaction) error
}

// StateLookup provides account facts consumed during admission
// validation.
type StateLookup interface {
	// GetBalance returns the account balance of the given sender.
	GetBalance(sender transaction.Address) (*big.Int, error)

	// GetNonce returns the account nonce of the given sender.
	GetNonce(sender transaction.Address) (uint64, error)
}

// TransactionMeta contains the per-transaction submission metadata.
type TransactionMeta struct {
	// Local is a flag indicating that the transaction was obtained from a
	// local client.
	Local bool

	// Urgency is the policy-assigned urgency level.
	Urgency transaction.Urgency

	// SenderReputation is the sender's reputation in [0, 1], as reported
	// by the submission policy. Zero means no reputation was reported.
	SenderReputation float64
}

// TransactionPool is an interface for managing a pool of transactions.
type TransactionPool interface {
	service.BackgroundService

	// SubmitTx adds the transaction into the transaction pool, first
	// performing admission checks on it. This method waits for the checks
	// to complete.
	SubmitTx(ctx context.Context, tx *transaction.Transaction, meta *TransactionMeta) error

	// SubmitTxNoWait adds the transaction into the transaction pool and
	// returns immediately.
	SubmitTxNoWait(ctx context.Context, tx *transaction.Transaction, meta *TransactionMeta) error

	// Candidates returns every pending transaction paired with its score
	// under the current weight set, leaving final ordering to the caller.
	Candidates(ctx context.Context) ([]*ScoredTransaction, error)

	// Finalize removes a selected batch from the pool.
	Finalize(txHashes []hash.Hash)

	// RemoveTxBatch removes a transaction batch from the transaction pool.
	RemoveTxBatch(txHashes []hash.Hash)

	// GetTx looks up a pending transaction by hash.
	GetTx(txHash hash.Hash) (*transaction.Transaction, bool)

	// WakeupScheduler explicitly notifies subscribers that they should
	// attempt scheduling.
	WakeupScheduler()

	// WatchScheduler subscribes to notifications about when to attempt
	// scheduling.
	WatchScheduler() (pubsub.ClosableSubscription, <-chan struct{})

	// PendingCheckSize returns the number of transactions currently
	// pending admission checks.
	PendingCheckSize() int

	// PendingSize returns the number of pending transactions.
	PendingSize() int

	// Clear clears the transaction pool.
	Clear()
}

type txPool struct {
	logger *logging.Logger

	stopCh chan struct{}
	quitCh chan struct{}

	cfg       config.Config
	validator Validator
	state     StateLookup

	engine     *scoring.Engine
	controller *scoring.Controller

	// scoreCache holds age-independent scores; it is flushed whenever the
	// controller publishes a new weight set.
	scoreCache     *scorecache.Cache
	scoredWeightsV atomic.Uint64

	seenCache *lru.Cache[hash.Hash, time.Time]

	checkTxCh    *channels.RingChannel
	checkTxQueue *checkTxQueue
	checkPool    *workerpool.Pool

	scheduleQueue     *scheduleQueue
	schedulerNotifier *pubsub.Broker

	seq atomic.Uint64
}

// New creates a new transaction pool.
func New(cfg config.Config, validator Validator, state StateLookup, engine *scoring.Engine, controller *scoring.Controller) (TransactionPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("txpool: invalid configuration: %w", err)
	}

	initMetrics()

	return &txPool{
		logger:            logging.GetLogger("runtime/txpool"),
		stopCh:            make(chan struct{}),
		quitCh:            make(chan struct{}),
		cfg:               cfg,
		validator:         validator,
		state:             state,
		engine:            engine,
		controller:        controller,
		scoreCache:        scorecache.New(cfg.ScoreCacheSize, cfg.ScoreCacheTTL),
		seenCache:         lru.New(lru.Capacity[hash.Hash, time.Time](int(cfg.MaxLastSeenCacheSize))),
		checkTxCh:         channels.NewRingChannel(1),
		checkTxQueue:      newCheckTxQueue(int(cfg.MaxCheckQueueSize), int(cfg.MaxCheckTxBatchSize)),
		checkPool:         workerpool.New("txpool_check", nil),
		scheduleQueue:     newScheduleQueue(int(cfg.MaxPoolSize), cfg.MaxCallDataGrowth),
		schedulerNotifier: pubsub.NewBroker(false),
	}, nil
}

func (t *txPool) Name() string {
	return "transaction pool"
}

func (t *txPool) Start() error {
	t.checkPool.Resize(t.cfg.CheckWorkers)

	go t.checkWorker()
	if t.cfg.MaxTxAge > 0 {
		go t.expireWorker()
	}
	return nil
}

func (t *txPool) Stop() {
	close(t.stopCh)
	t.checkPool.Stop()
}

func (t *txPool) Quit() <-chan struct{} {
	return t.quitCh
}

func (t *txPool) SubmitTx(ctx context.Context, tx *transaction.Transaction, meta *TransactionMeta) error {
	notifyCh := make(chan error, 1)
	if err := t.submitTx(tx, meta, notifyCh); err != nil {
		return err
	}

	// Wait for the admission checks to complete.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopCh:
		return fmt.Errorf("txpool: shutting down")
	case err := <-notifyCh:
		return err
	}
}

func (t *txPool) SubmitTxNoWait(_ context.Context, tx *transaction.Transaction, meta *TransactionMeta) error {
	return t.submitTx(tx, meta, nil)
}

func (t *txPool) submitTx(tx *transaction.Transaction, meta *TransactionMeta, notifyCh chan error) error {
	if meta == nil {
		meta = &TransactionMeta{Urgency: transaction.UrgencyNormal}
	}

	ptx := newPoolTransaction(tx, meta.Urgency, meta.SenderReputation)

	// Skip recently seen transactions.
	if _, seen := t.seenCache.Peek(ptx.hash); seen {
		t.logger.Debug("ignoring already seen transaction", "tx_hash", ptx.hash)
		rejectedTransactions.WithLabelValues(rejectReasonDuplicate).Inc()
		return ErrDuplicateTx
	}
	t.seenCache.Put(ptx.hash, time.Now())

	pct := &PendingCheckTransaction{
		PoolTransaction: ptx,
		notifyCh:        notifyCh,
	}

	t.logger.Debug("queuing transaction for admission checks",
		"tx_hash", ptx.hash,
		"class", ptx.class,
		"local", meta.Local,
	)
	if err := t.checkTxQueue.add(pct); err != nil {
		t.logger.Warn("unable to queue transaction",
			"tx_hash", ptx.hash,
			"err", err,
		)
		return err
	}

	// Wake up the check batcher.
	t.checkTxCh.In() <- struct{}{}

	pendingCheckSize.Set(float64(t.PendingCheckSize()))

	return nil
}

// checkTx runs the admission checks for a single transaction.
func (t *txPool) checkTx(pct *PendingCheckTransaction) error {
	if err := t.validator.Validate(pct.tx); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	nonce, err := t.state.GetNonce(pct.tx.Sender)
	if err != nil {
		return fmt.Errorf("txpool: nonce lookup failed: %w", err)
	}
	if pct.tx.Nonce < nonce {
		return fmt.Errorf("%w: stale nonce %d (account nonce is %d)", ErrValidationFailed, pct.tx.Nonce, nonce)
	}

	balance, err := t.state.GetBalance(pct.tx.Sender)
	if err != nil {
		return fmt.Errorf("txpool: balance lookup failed: %w", err)
	}
	if balance.Cmp(new(big.Int).SetUint64(pct.tx.Fee)) < 0 {
		return fmt.Errorf("%w: balance %s does not cover fee %d", ErrValidationFailed, balance, pct.tx.Fee)
	}

	return nil
}

func (t *txPool) checkWorker() {
	defer close(t.quitCh)

	for {
		select {
		case <-t.stopCh:
			return
		case <-t.checkTxCh.Out():
		}

		t.checkTxBatch()
	}
}

func (t *txPool) checkTxBatch() {
	batch := t.checkTxQueue.pop()
	if len(batch) == 0 {
		return
	}

	// Admission checks are independent per transaction, so run them on
	// the worker pool. Admission itself happens below, in batch order,
	// to keep sequence numbers aligned with submission order.
	results := make([]<-chan error, len(batch))
	for i, pct := range batch {
		results[i] = t.checkPool.Submit(func() error { return t.checkTx(pct) })
	}

	var admitted int
	for i, pct := range batch {
		var err error
		select {
		case err = <-results[i]:
		case <-t.stopCh:
			// The worker pool abandons queued jobs on shutdown.
			for _, rest := range batch[i:] {
				rest.notify(fmt.Errorf("txpool: shutting down"))
			}
			return
		}
		if err == nil {
			err = t.admit(pct)
		} else {
			rejectedTransactions.WithLabelValues(rejectReasonValidation).Inc()
			t.logger.Debug("transaction failed admission checks",
				"tx_hash", pct.hash,
				"err", err,
			)
		}
		if err == nil {
			admitted++
		}
		pct.notify(err)
	}

	pendingCheckSize.Set(float64(t.PendingCheckSize()))
	pendingScheduleSize.Set(float64(t.PendingSize()))

	if admitted > 0 {
		t.schedulerNotifier.Broadcast(struct{}{})
	}

	// There may be more than one batch queued.
	if t.checkTxQueue.size() > 0 {
		t.checkTxCh.In() <- struct{}{}
	}
}

func (t *txPool) admit(pct *PendingCheckTransaction) error {
	ptx := pct.PoolTransaction
	ptx.seq = t.seq.Add(1)
	ptx.firstSeen = time.Now()

	if err := t.scheduleQueue.add(ptx); err != nil {
		switch err {
		case ErrReplacementRejected:
			rejectedTransactions.WithLabelValues(rejectReasonReplacement).Inc()
		case ErrMempoolFull:
			rejectedTransactions.WithLabelValues(rejectReasonFull).Inc()
		}
		t.logger.Debug("transaction not admitted",
			"tx_hash", ptx.hash,
			"err", err,
		)
		return err
	}

	acceptedTransactions.Inc()

	return nil
}

func (t *txPool) Candidates(ctx context.Context) ([]*ScoredTransaction, error) {
	weights := t.controller.Weights()

	// Every cached score is stale under a new weight set.
	if v := t.controller.Version(); t.scoredWeightsV.Swap(v) != v {
		t.scoreCache.Clear()
	}

	pending := t.scheduleQueue.getAll()
	if len(pending) == 0 {
		return nil, nil
	}

	now := time.Now()
	scored := make([]*ScoredTransaction, len(pending))

	// Collect cache misses for a single batch scoring run.
	var (
		missIdx     []int
		missFees    []float64
		missClasses []transaction.Class
	)
	for i, ptx := range pending {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		scored[i] = &ScoredTransaction{
			Tx:   ptx.tx,
			Hash: ptx.hash,
			Seq:  ptx.seq,
		}

		key := scorecache.Key{Sender: ptx.tx.Sender, Class: ptx.class}
		if score, ok := t.scoreCache.Get(key); ok {
			scored[i].Score = score
			continue
		}

		missIdx = append(missIdx, i)
		missFees = append(missFees, ptx.tx.FeeTokens())
		missClasses = append(missClasses, ptx.class)
	}

	if len(missIdx) > 0 {
		missScores := t.engine.ScoreBatch(missFees, missClasses, weights)
		for j, i := range missIdx {
			ptx := pending[i]
			scored[i].Score = missScores[j]
			t.scoreCache.Put(scorecache.Key{Sender: ptx.tx.Sender, Class: ptx.class}, missScores[j])
		}
	}

	// The age credit and the priority view change every round, so both
	// are derived on top of the cached base score.
	for i, ptx := range pending {
		age := ptx.Age(now).Seconds()
		scored[i].Score += weights.Age * (age / (age + ageCreditHalfLife.Seconds()))
		scored[i].Priority = ptx.Priority(now)
	}

	return scored, nil
}

func (t *txPool) Finalize(txHashes []hash.Hash) {
	removed := t.scheduleQueue.remove(txHashes, txStatusSelected)
	pendingScheduleSize.Set(float64(t.PendingSize()))

	t.logger.Debug("removed selected batch",
		"batch_size", len(txHashes),
		"removed", len(removed),
	)
}

func (t *txPool) RemoveTxBatch(txHashes []hash.Hash) {
	t.scheduleQueue.remove(txHashes, txStatusEvicted)
	pendingScheduleSize.Set(float64(t.PendingSize()))
}

func (t *txPool) GetTx(txHash hash.Hash) (*transaction.Transaction, bool) {
	ptx, ok := t.scheduleQueue.get(txHash)
	if !ok {
		return nil, false
	}
	return ptx.tx, true
}

func (t *txPool) WakeupScheduler() {
	t.schedulerNotifier.Broadcast(struct{}{})
}

func (t *txPool) WatchScheduler() (pubsub.ClosableSubscription, <-chan struct{}) {
	sub := t.schedulerNotifier.Subscribe()
	ch := make(chan struct{})
	sub.Unwrap(ch)
	return sub, ch
}

func (t *txPool) PendingCheckSize() int {
	return t.checkTxQueue.size()
}

func (t *txPool) PendingSize() int {
	return t.scheduleQueue.size()
}

func (t *txPool) Clear() {
	for _, pct := range t.checkTxQueue.clear() {
		pct.notify(fmt.Errorf("txpool: cleared"))
	}
	t.scheduleQueue.clear()
	t.scoreCache.Clear()

	pendingCheckSize.Set(0)
	pendingScheduleSize.Set(0)
}

func (t *txPool) expireWorker() {
	ticker := time.NewTicker(t.cfg.ExpireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		expired := t.scheduleQueue.removeExpired(time.Now(), t.cfg.MaxTxAge)
		if len(expired) == 0 {
			continue
		}

		expiredTransactions.Add(float64(len(expired)))
		pendingScheduleSize.Set(float64(t.PendingSize()))
		t.logger.Debug("expired transactions", "count", len(expired))
	}
}
