package txpool

import (
	"math/bits"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/quorumnet/sched-core/common/crypto/hash"
	"github.com/quorumnet/sched-core/runtime/transaction"
)

// replacementFeeBumpPercent is the minimum fee of a replacement
// transaction, as a percentage of the fee it replaces.
const replacementFeeBumpPercent = 110

// senderNonce is the replacement index key. At most one pending
// transaction may occupy a (sender, nonce) slot.
type senderNonce struct {
	sender transaction.Address
	nonce  uint64
}

// priorityLessFunc orders transactions by admission priority, lowest
// first. Transactions with equal priority are ordered by descending
// admission sequence so that ascending iteration visits the youngest
// first, making eviction take the newest of the cheapest.
func priorityLessFunc(tx, tx2 *PoolTransaction) bool {
	switch {
	case tx == tx2:
		return false
	case tx == nil:
		return true
	case tx2 == nil:
		return false
	}

	if p1, p2 := tx.priority, tx2.priority; p1 != p2 {
		return p1 < p2
	}
	return tx.seq > tx2.seq
}

type scheduleQueue struct {
	l sync.Mutex

	byHash        map[hash.Hash]*PoolTransaction
	bySenderNonce map[senderNonce]*PoolTransaction
	byPriority    *btree.BTreeG[*PoolTransaction]

	capacity          int
	maxCallDataGrowth int
}

func newScheduleQueue(capacity, maxCallDataGrowth int) *scheduleQueue {
	return &scheduleQueue{
		byHash:            make(map[hash.Hash]*PoolTransaction),
		bySenderNonce:     make(map[senderNonce]*PoolTransaction),
		byPriority:        btree.NewG(2, priorityLessFunc),
		capacity:          capacity,
		maxCallDataGrowth: maxCallDataGrowth,
	}
}

// replacementAllowed reports whether tx may supersede etx at the same
// (sender, nonce) slot: the fee must be bumped to at least 110% of the old
// fee and the call data must not grow by more than the configured delta.
func (sq *scheduleQueue) replacementAllowed(etx, tx *PoolTransaction) bool {
	// newFee * 100 >= oldFee * 110, in 128 bits to survive large fees.
	newHi, newLo := bits.Mul64(tx.tx.Fee, 100)
	oldHi, oldLo := bits.Mul64(etx.tx.Fee, replacementFeeBumpPercent)
	feeBumped := newHi > oldHi || (newHi == oldHi && newLo >= oldLo)

	return feeBumped && len(tx.tx.CallData) <= len(etx.tx.CallData)+sq.maxCallDataGrowth
}

// add admits a transaction into the queue, applying the replacement rule
// when its (sender, nonce) slot is occupied and evicting lower-priority
// transactions when the queue is at capacity.
func (sq *scheduleQueue) add(tx *PoolTransaction) error {
	sq.l.Lock()
	defer sq.l.Unlock()

	if etx, exists := sq.bySenderNonce[senderNonce{tx.tx.Sender, tx.tx.Nonce}]; exists {
		if !sq.replacementAllowed(etx, tx) {
			return ErrReplacementRejected
		}

		etx.status = txStatusReplaced
		sq.removeLocked(etx)
		replacedTransactions.Inc()
	}

	if len(sq.byHash) >= sq.capacity {
		if err := sq.evictLocked(tx); err != nil {
			return err
		}
	}

	tx.status = txStatusPending
	sq.byHash[tx.hash] = tx
	sq.bySenderNonce[senderNonce{tx.tx.Sender, tx.tx.Nonce}] = tx
	sq.byPriority.ReplaceOrInsert(tx)

	return nil
}

// evictLocked frees room for tx by evicting strictly lower-priority
// transactions, at least 20% of the current size when that many exist. If
// nothing of lower priority is queued the admission fails instead.
func (sq *scheduleQueue) evictLocked(tx *PoolTransaction) error {
	target := (len(sq.byHash) + 4) / 5

	var victims []*PoolTransaction
	sq.byPriority.Ascend(func(etx *PoolTransaction) bool {
		if etx.priority >= tx.priority {
			return false
		}
		victims = append(victims, etx)
		return len(victims) < target
	})

	if len(victims) == 0 {
		return ErrMempoolFull
	}

	for _, etx := range victims {
		etx.status = txStatusEvicted
		sq.removeLocked(etx)
	}
	evictedTransactions.Add(float64(len(victims)))

	return nil
}

func (sq *scheduleQueue) removeLocked(tx *PoolTransaction) {
	delete(sq.byHash, tx.hash)
	delete(sq.bySenderNonce, senderNonce{tx.tx.Sender, tx.tx.Nonce})
	sq.byPriority.Delete(tx)
}

// remove drops the given transactions from the queue, marking each with
// the given status.
func (sq *scheduleQueue) remove(txHashes []hash.Hash, status txStatus) []*PoolTransaction {
	sq.l.Lock()
	defer sq.l.Unlock()

	removed := make([]*PoolTransaction, 0, len(txHashes))
	for _, txHash := range txHashes {
		tx, exists := sq.byHash[txHash]
		if !exists {
			continue
		}

		tx.status = status
		sq.removeLocked(tx)
		removed = append(removed, tx)
	}

	return removed
}

// removeExpired drops every transaction older than maxAge.
func (sq *scheduleQueue) removeExpired(now time.Time, maxAge time.Duration) []*PoolTransaction {
	sq.l.Lock()
	defer sq.l.Unlock()

	var expired []*PoolTransaction
	for _, tx := range sq.byHash {
		if now.Sub(tx.firstSeen) >= maxAge {
			expired = append(expired, tx)
		}
	}
	for _, tx := range expired {
		tx.status = txStatusExpired
		sq.removeLocked(tx)
	}

	return expired
}

func (sq *scheduleQueue) get(txHash hash.Hash) (*PoolTransaction, bool) {
	sq.l.Lock()
	defer sq.l.Unlock()

	tx, ok := sq.byHash[txHash]
	return tx, ok
}

func (sq *scheduleQueue) getAll() []*PoolTransaction {
	sq.l.Lock()
	defer sq.l.Unlock()

	result := make([]*PoolTransaction, 0, len(sq.byHash))
	for _, tx := range sq.byHash {
		result = append(result, tx)
	}
	return result
}

func (sq *scheduleQueue) size() int {
	sq.l.Lock()
	defer sq.l.Unlock()

	return len(sq.byHash)
}

func (sq *scheduleQueue) clear() {
	sq.l.Lock()
	defer sq.l.Unlock()

	sq.byHash = make(map[hash.Hash]*PoolTransaction)
	sq.bySenderNonce = make(map[senderNonce]*PoolTransaction)
	sq.byPriority.Clear(true)
}
