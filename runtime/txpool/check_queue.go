package txpool

import (
	"sync"

	"github.com/gammazero/deque"
)

type checkTxQueue struct {
	l sync.Mutex

	txs *deque.Deque[*PendingCheckTransaction]

	maxSize      int
	maxBatchSize int
}

func newCheckTxQueue(maxSize, maxBatchSize int) *checkTxQueue {
	return &checkTxQueue{
		txs:          deque.New[*PendingCheckTransaction](0, 512),
		maxSize:      maxSize,
		maxBatchSize: maxBatchSize,
	}
}

func (q *checkTxQueue) add(pct *PendingCheckTransaction) error {
	q.l.Lock()
	defer q.l.Unlock()

	if q.txs.Len() >= q.maxSize {
		return ErrCheckQueueFull
	}

	q.txs.PushBack(pct)

	return nil
}

func (q *checkTxQueue) pop() []*PendingCheckTransaction {
	q.l.Lock()
	defer q.l.Unlock()

	batchSize := min(q.txs.Len(), q.maxBatchSize)
	if batchSize == 0 {
		return nil
	}

	batch := make([]*PendingCheckTransaction, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		batch = append(batch, q.txs.PopFront())
	}

	return batch
}

func (q *checkTxQueue) size() int {
	q.l.Lock()
	defer q.l.Unlock()

	return q.txs.Len()
}

func (q *checkTxQueue) clear() []*PendingCheckTransaction {
	q.l.Lock()
	defer q.l.Unlock()

	dropped := make([]*PendingCheckTransaction, 0, q.txs.Len())
	for q.txs.Len() > 0 {
		dropped = append(dropped, q.txs.PopFront())
	}

	return dropped
}
