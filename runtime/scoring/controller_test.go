package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightsValidate(t *testing.T) {
	require := require.New(t)

	require.NoError(DefaultWeights().Validate(), "default weights should be valid")
	require.InDelta(1.0, DefaultWeights().Sum(), weightSumTolerance)

	for _, tc := range []struct {
		name string
		w    Weights
	}{
		{"AllZero", Weights{}},
		{"NaN", Weights{Fee: math.NaN(), Age: 1.0}},
		{"Negative", Weights{Fee: -0.5, System: 1.5}},
		{"BadSum", Weights{Fee: 0.5, System: 0.6}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.w.Validate()
			require.Error(err)
			require.ErrorIs(err, ErrInvalidWeights)
		})
	}
}

func TestAdjust(t *testing.T) {
	require := require.New(t)

	onTarget := &Metrics{FeeRevenue: 1.0, SystemTxRate: 0.92, GovernanceTxRate: 0.8}

	t.Run("Stable", func(t *testing.T) {
		w, err := adjust(DefaultWeights(), onTarget)
		require.NoError(err)
		require.InDelta(1.0, w.Sum(), weightSumTolerance)
		require.InDelta(DefaultWeights().Fee, w.Fee, scoreTolerance, "on-target metrics should not move the fee weight")
	})

	t.Run("LowRevenueRaisesFee", func(t *testing.T) {
		w, err := adjust(DefaultWeights(), &Metrics{FeeRevenue: 0.5, SystemTxRate: 0.92, GovernanceTxRate: 0.8})
		require.NoError(err)
		// Normalization shrinks everything a bit, so compare share, not
		// absolute value.
		require.Greater(w.Fee, DefaultWeights().Fee)
		require.InDelta(1.0, w.Sum(), weightSumTolerance)
	})

	t.Run("HighRevenueLowersFee", func(t *testing.T) {
		w, err := adjust(DefaultWeights(), &Metrics{FeeRevenue: 1.5, SystemTxRate: 0.92, GovernanceTxRate: 0.8})
		require.NoError(err)
		require.Less(w.Fee, DefaultWeights().Fee)
	})

	t.Run("StarvedSystemRaisesSystem", func(t *testing.T) {
		w, err := adjust(DefaultWeights(), &Metrics{FeeRevenue: 1.0, SystemTxRate: 0.5, GovernanceTxRate: 0.8})
		require.NoError(err)
		require.Greater(w.System/w.Fee, DefaultWeights().System/DefaultWeights().Fee)
	})

	t.Run("StarvedGovernanceRaisesGovernance", func(t *testing.T) {
		w, err := adjust(DefaultWeights(), &Metrics{FeeRevenue: 1.0, SystemTxRate: 0.92, GovernanceTxRate: 0.2})
		require.NoError(err)
		require.Greater(w.Governance/w.Fee, DefaultWeights().Governance/DefaultWeights().Fee)
	})

	t.Run("CapsHold", func(t *testing.T) {
		// Repeated one-sided pressure must converge instead of letting a
		// single weight swallow the whole set.
		w := DefaultWeights()
		starved := &Metrics{FeeRevenue: 0.1, SystemTxRate: 0.1, GovernanceTxRate: 0.1}
		for i := 0; i < 500; i++ {
			var err error
			w, err = adjust(w, starved)
			require.NoError(err)
			require.InDelta(1.0, w.Sum(), weightSumTolerance)
		}
		require.Greater(w.Age, 0.0, "age weight should never be squeezed to zero")
		require.Greater(w.Financial, 0.0)
	})

	t.Run("Degenerate", func(t *testing.T) {
		_, err := adjust(&Weights{}, onTarget)
		require.ErrorIs(err, ErrInvalidWeights)
	})
}

func TestController(t *testing.T) {
	require := require.New(t)

	c := NewController(0, nil)
	require.Equal(DefaultWeights(), c.Weights())
	require.EqualValues(0, c.Version())

	require.NoError(c.Adjust(&Metrics{FeeRevenue: 0.5, SystemTxRate: 0.92, GovernanceTxRate: 0.8}))
	require.EqualValues(1, c.Version())
	require.Greater(c.Weights().Fee, DefaultWeights().Fee)

	t.Run("RejectionKeepsPrevious", func(t *testing.T) {
		before := c.Weights()
		version := c.Version()

		// Force a degenerate result by draining the current weight set.
		c.current.Store(&Weights{})
		err := c.Adjust(&Metrics{FeeRevenue: 1.0, SystemTxRate: 0.92, GovernanceTxRate: 0.8})
		require.ErrorIs(err, ErrInvalidWeights)
		require.EqualValues(version, c.Version(), "rejected adjustment should not bump the version")

		c.current.Store(before)
	})
}
