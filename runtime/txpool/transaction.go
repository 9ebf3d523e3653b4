package txpool

import (
	"math"
	"time"

	"github.com/quorumnet/sched-core/common/crypto/hash"
	"github.com/quorumnet/sched-core/runtime/transaction"
)

type txStatus uint8

const (
	txStatusPendingCheck txStatus = iota
	txStatusPending
	txStatusSelected
	txStatusReplaced
	txStatusEvicted
	txStatusExpired
)

func (s txStatus) String() string {
	switch s {
	case txStatusPendingCheck:
		return "pending-check"
	case txStatusPending:
		return "pending"
	case txStatusSelected:
		return "selected"
	case txStatusReplaced:
		return "replaced"
	case txStatusEvicted:
		return "evicted"
	case txStatusExpired:
		return "expired"
	default:
		return "[unknown]"
	}
}

// urgencyPriorityBits is the number of low bits of the admission priority
// reserved for the urgency level.
const urgencyPriorityBits = 2

// maxPriorityFeeRate is the largest fee rate the admission priority can
// encode. Larger fee rates saturate instead of wrapping around.
const maxPriorityFeeRate = math.MaxUint64 >> urgencyPriorityBits

// admissionPriority derives the coarse queue priority used for eviction
// ordering. Fee rate dominates; urgency only breaks ties between
// transactions offering the same fee rate.
func admissionPriority(tx *transaction.Transaction, urgency transaction.Urgency) uint64 {
	feeRate := tx.FeePerGas()
	if feeRate > maxPriorityFeeRate {
		feeRate = maxPriorityFeeRate
	}
	return feeRate<<urgencyPriorityBits | uint64(urgency)
}

// PoolTransaction is a transaction admitted into the pool, together with
// its pool-side metadata.
type PoolTransaction struct {
	tx *transaction.Transaction

	hash             hash.Hash
	class            transaction.Class
	urgency          transaction.Urgency
	priority         uint64
	senderReputation float64

	// seq is the admission sequence number, used for FIFO tie-breaking.
	seq uint64

	firstSeen time.Time
	status    txStatus
}

func newPoolTransaction(tx *transaction.Transaction, urgency transaction.Urgency, senderReputation float64) *PoolTransaction {
	return &PoolTransaction{
		tx:               tx,
		hash:             tx.Hash(),
		class:            tx.Class(),
		urgency:          urgency,
		priority:         admissionPriority(tx, urgency),
		senderReputation: senderReputation,
		status:           txStatusPendingCheck,
	}
}

// Raw returns the underlying transaction.
func (t *PoolTransaction) Raw() *transaction.Transaction {
	return t.tx
}

// Hash returns the transaction hash.
func (t *PoolTransaction) Hash() hash.Hash {
	return t.hash
}

// Class returns the transaction's semantic class.
func (t *PoolTransaction) Class() transaction.Class {
	return t.class
}

// FirstSeen returns the time the transaction was admitted into the pool.
func (t *PoolTransaction) FirstSeen() time.Time {
	return t.firstSeen
}

// Age returns how long the transaction has been pending.
func (t *PoolTransaction) Age(now time.Time) time.Duration {
	return now.Sub(t.firstSeen)
}

// Priority returns the derived priority view of the transaction for the
// round at now.
func (t *PoolTransaction) Priority(now time.Time) transaction.Priority {
	return transaction.NewPriority(t.tx, t.urgency, uint64(t.Age(now).Seconds()), t.senderReputation)
}

// ScoredTransaction is a pending transaction paired with its score for one
// scheduling round.
type ScoredTransaction struct {
	// Tx is the pending transaction.
	Tx *transaction.Transaction

	// Hash is the transaction hash.
	Hash hash.Hash

	// Seq is the admission sequence number. Earlier transactions have
	// lower sequence numbers.
	Seq uint64

	// Score is the round score.
	Score float64

	// Priority is the priority view of the transaction, recomputed for
	// the round the score was produced in.
	Priority transaction.Priority
}

// PendingCheckTransaction is a transaction pending admission checks.
type PendingCheckTransaction struct {
	*PoolTransaction

	// notifyCh is a channel for sending back the admission result.
	notifyCh chan error
}

func (pct *PendingCheckTransaction) notify(err error) {
	if pct.notifyCh == nil {
		return
	}
	pct.notifyCh <- err
	close(pct.notifyCh)
}
