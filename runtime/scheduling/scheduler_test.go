package scheduling

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/sched-core/runtime/scoring"
	"github.com/quorumnet/sched-core/runtime/transaction"
	"github.com/quorumnet/sched-core/runtime/txpool"
	"github.com/quorumnet/sched-core/runtime/txpool/config"
)

type okValidator struct{}

func (okValidator) Validate(*transaction.Transaction) error { return nil }

type richState struct{}

func (richState) GetBalance(transaction.Address) (*big.Int, error) {
	return big.NewInt(1_000_000_000_000), nil
}

func (richState) GetNonce(transaction.Address) (uint64, error) { return 0, nil }

type recordingDispatcher struct {
	sync.Mutex
	batches [][]*transaction.Transaction
}

func (d *recordingDispatcher) Dispatch(batch []*transaction.Transaction) error {
	d.Lock()
	defer d.Unlock()
	d.batches = append(d.batches, batch)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, txpool.TransactionPool, *recordingDispatcher) {
	poolCfg := config.DefaultConfig()
	controller := scoring.NewController(time.Hour, nil)
	engine := scoring.NewEngine(&scoring.Config{ForceScalar: true})

	pool, err := txpool.New(poolCfg, okValidator{}, richState{}, engine, controller)
	require.NoError(t, err, "txpool.New")
	require.NoError(t, pool.Start(), "pool.Start")
	t.Cleanup(pool.Stop)

	dispatcher := &recordingDispatcher{}
	cfg := DefaultConfig()
	cfg.GasBudget = 100_000

	return NewScheduler(cfg, pool, dispatcher), pool, dispatcher
}

func TestScheduleRound(t *testing.T) {
	require := require.New(t)

	sched, pool, dispatcher := newTestScheduler(t)
	ctx := context.Background()

	batch, err := sched.ScheduleRound(ctx)
	require.NoError(err, "round over an empty pool")
	require.Nil(batch)
	require.Nil(sched.SchedulingMetrics(), "no outcomes before the first batch")

	submit := func(sender byte, fee uint64, callData []byte) {
		tx := &transaction.Transaction{
			Sender:   transaction.Address{sender},
			Nonce:    0,
			Fee:      fee,
			GasLimit: 21_000,
			CallData: callData,
		}
		require.NoError(pool.SubmitTx(ctx, tx, nil), "SubmitTx")
	}

	submit(1, 5_000_000, []byte("standard transfer"))
	submit(2, 1_000_000, []byte{0x01, 0x00, 0x00, 0x00}) // System class.
	submit(3, 9_000_000, []byte("another standard"))

	batch, err = sched.ScheduleRound(ctx)
	require.NoError(err, "ScheduleRound")
	require.Len(batch, 3, "everything fits in the budget")
	require.Equal(0, pool.PendingSize(), "selected batch should leave the pool")

	dispatcher.Lock()
	require.Len(dispatcher.batches, 1, "batch should be dispatched")
	dispatcher.Unlock()

	m := sched.SchedulingMetrics()
	require.NotNil(m, "outcomes after a batch")
	require.Equal(1.0, m.SystemTxRate, "all pending system transactions were served")
	require.Greater(m.FeeRevenue, 0.0)

	t.Run("BudgetLimitsBatch", func(t *testing.T) {
		for i := byte(10); i < 20; i++ {
			submit(i, 1_000_000, []byte("bulk"))
		}

		batch, err := sched.ScheduleRound(ctx)
		require.NoError(err)
		require.Len(batch, 4, "only four 21k transactions fit a 100k budget")
		require.Equal(6, pool.PendingSize(), "unselected transactions stay pending")
	})
}

func TestSchedulerFeedsController(t *testing.T) {
	require := require.New(t)

	sched, pool, _ := newTestScheduler(t)
	ctx := context.Background()

	tx := &transaction.Transaction{
		Sender:   transaction.Address{0x07},
		Fee:      2_000_000,
		GasLimit: 21_000,
		CallData: []byte("transfer"),
	}
	require.NoError(pool.SubmitTx(ctx, tx, nil))

	_, err := sched.ScheduleRound(ctx)
	require.NoError(err)

	// The scheduler acts as the controller's metrics source: a rebalance
	// driven by its outcomes must keep the weight invariants.
	controller := scoring.NewController(time.Hour, sched)
	require.NoError(controller.Adjust(sched.SchedulingMetrics()))
	require.InDelta(1.0, controller.Weights().Sum(), 1e-9)
}
