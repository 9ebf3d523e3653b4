package txpool

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/sched-core/common/crypto/hash"
	"github.com/quorumnet/sched-core/runtime/scoring"
	"github.com/quorumnet/sched-core/runtime/transaction"
	"github.com/quorumnet/sched-core/runtime/txpool/config"
)

type mockValidator struct {
	err error
}

func (v *mockValidator) Validate(*transaction.Transaction) error {
	return v.err
}

type mockState struct {
	balance *big.Int
	nonce   uint64
}

func (s *mockState) GetBalance(transaction.Address) (*big.Int, error) {
	if s.balance == nil {
		return big.NewInt(1_000_000_000_000), nil
	}
	return s.balance, nil
}

func (s *mockState) GetNonce(transaction.Address) (uint64, error) {
	return s.nonce, nil
}

func newTestPool(t *testing.T, validator Validator, state StateLookup) TransactionPool {
	cfg := config.DefaultConfig()
	cfg.MaxPoolSize = 100

	controller := scoring.NewController(time.Hour, nil)
	engine := scoring.NewEngine(&scoring.Config{ForceScalar: true})

	pool, err := New(cfg, validator, state, engine, controller)
	require.NoError(t, err, "New")
	require.NoError(t, pool.Start(), "Start")
	t.Cleanup(pool.Stop)

	return pool
}

func testTx(sender byte, nonce, fee uint64, callData []byte) *transaction.Transaction {
	return &transaction.Transaction{
		Sender:   transaction.Address{sender},
		Nonce:    nonce,
		Fee:      fee,
		GasLimit: 21_000,
		CallData: callData,
	}
}

func TestTxPoolSubmit(t *testing.T) {
	require := require.New(t)

	pool := newTestPool(t, &mockValidator{}, &mockState{})
	ctx := context.Background()

	tx := testTx(1, 0, 1_000_000, []byte("transfer"))
	require.NoError(pool.SubmitTx(ctx, tx, nil), "SubmitTx")
	require.Equal(1, pool.PendingSize(), "PendingSize")

	t.Run("Duplicate", func(t *testing.T) {
		err := pool.SubmitTx(ctx, tx, nil)
		require.ErrorIs(err, ErrDuplicateTx, "resubmitting an identical transaction")
	})

	t.Run("Lookup", func(t *testing.T) {
		got, ok := pool.GetTx(tx.Hash())
		require.True(ok, "GetTx")
		require.Equal(tx, got)

		_, ok = pool.GetTx(hash.NewFromBytes([]byte("missing")))
		require.False(ok, "GetTx on unknown hash")
	})

	t.Run("SchedulerNotified", func(t *testing.T) {
		sub, ch := pool.WatchScheduler()
		defer sub.Close()

		require.NoError(pool.SubmitTx(ctx, testTx(2, 0, 1_000_000, []byte("another")), nil))
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected a scheduler wakeup after admission")
		}
	})
}

func TestTxPoolValidation(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	t.Run("ValidatorRejects", func(t *testing.T) {
		pool := newTestPool(t, &mockValidator{err: errors.New("bad signature")}, &mockState{})

		err := pool.SubmitTx(ctx, testTx(1, 0, 1_000_000, nil), nil)
		require.ErrorIs(err, ErrValidationFailed)
		require.Equal(0, pool.PendingSize())
	})

	t.Run("StaleNonce", func(t *testing.T) {
		pool := newTestPool(t, &mockValidator{}, &mockState{nonce: 5})

		err := pool.SubmitTx(ctx, testTx(1, 4, 1_000_000, nil), nil)
		require.ErrorIs(err, ErrValidationFailed)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		pool := newTestPool(t, &mockValidator{}, &mockState{balance: big.NewInt(10)})

		err := pool.SubmitTx(ctx, testTx(1, 0, 1_000_000, nil), nil)
		require.ErrorIs(err, ErrValidationFailed)
	})
}

func TestTxPoolCandidates(t *testing.T) {
	require := require.New(t)

	pool := newTestPool(t, &mockValidator{}, &mockState{})
	ctx := context.Background()

	candidates, err := pool.Candidates(ctx)
	require.NoError(err, "Candidates on empty pool")
	require.Empty(candidates)

	// System-class call data.
	sysCall := []byte{0x01, 0x00, 0x00, 0x00}
	require.NoError(pool.SubmitTx(ctx, testTx(1, 0, 1_000_000, sysCall), nil))
	require.NoError(pool.SubmitTx(ctx, testTx(2, 0, 2_000_000, []byte("standard transfer")), nil))

	candidates, err = pool.Candidates(ctx)
	require.NoError(err, "Candidates")
	require.Len(candidates, 2)

	byHash := make(map[hash.Hash]*ScoredTransaction)
	for _, c := range candidates {
		require.Greater(c.Score, 0.0, "every candidate should carry a score")
		byHash[c.Hash] = c
	}

	t.Run("ColdWarmAgreement", func(t *testing.T) {
		// A second round is served from the score cache; only the age
		// credit may move, and only upward.
		again, err := pool.Candidates(ctx)
		require.NoError(err)
		for _, c := range again {
			prev := byHash[c.Hash]
			require.NotNil(prev)
			require.GreaterOrEqual(c.Score, prev.Score, "age credit never decreases")
			require.InDelta(prev.Score, c.Score, 0.01, "cached score should match the computed one")
		}
	})

	t.Run("Finalize", func(t *testing.T) {
		pool.Finalize([]hash.Hash{candidates[0].Hash})
		require.Equal(1, pool.PendingSize())

		remaining, err := pool.Candidates(ctx)
		require.NoError(err)
		require.Len(remaining, 1)
		require.NotEqual(candidates[0].Hash, remaining[0].Hash)
	})

	t.Run("Clear", func(t *testing.T) {
		pool.Clear()
		require.Equal(0, pool.PendingSize())
	})
}

func TestTxPoolCandidatePriorityView(t *testing.T) {
	require := require.New(t)

	pool := newTestPool(t, &mockValidator{}, &mockState{})
	ctx := context.Background()

	meta := &TransactionMeta{Urgency: transaction.UrgencyCritical, SenderReputation: 0.75}
	require.NoError(pool.SubmitTx(ctx, testTx(1, 0, 2_000_000, []byte("transfer")), meta))
	require.NoError(pool.SubmitTx(ctx, testTx(2, 0, 1_000_000, nil), nil))

	candidates, err := pool.Candidates(ctx)
	require.NoError(err)
	require.Len(candidates, 2)

	for _, c := range candidates {
		switch c.Tx.Sender {
		case (transaction.Address{1}):
			require.Equal(transaction.UrgencyCritical, c.Priority.Urgency, "urgency from submission metadata")
			require.Equal(0.75, c.Priority.SenderReputation, "reputation from submission metadata")
			require.InDelta(2.0/21_000, c.Priority.FeeRate, 1e-12)
		case (transaction.Address{2}):
			require.Equal(transaction.UrgencyNormal, c.Priority.Urgency, "default urgency")
			require.Equal(0.0, c.Priority.SenderReputation, "no reputation reported")
		}
		require.Equal(c.Tx.Class(), c.Priority.Class)
		require.EqualValues(21_000, c.Priority.GasLimit)
	}
}

func TestTxPoolCandidatesInterruptible(t *testing.T) {
	require := require.New(t)

	pool := newTestPool(t, &mockValidator{}, &mockState{})

	require.NoError(pool.SubmitTx(context.Background(), testTx(1, 0, 1_000_000, nil), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Candidates(ctx)
	require.ErrorIs(err, context.Canceled)
}
