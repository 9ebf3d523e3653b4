package txpool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/sched-core/runtime/transaction"
)

func TestAdmissionPriority(t *testing.T) {
	require := require.New(t)

	feeTx := func(fee, gasLimit uint64) *transaction.Transaction {
		return &transaction.Transaction{Sender: transaction.Address{0x01}, Fee: fee, GasLimit: gasLimit}
	}

	t.Run("FeeRateDominates", func(t *testing.T) {
		low := admissionPriority(feeTx(21_000, 21_000), transaction.UrgencyCritical)
		high := admissionPriority(feeTx(210_000, 21_000), transaction.UrgencyLow)
		require.Greater(high, low, "a higher fee rate must outrank any urgency")
	})

	t.Run("UrgencyBreaksTies", func(t *testing.T) {
		normal := admissionPriority(feeTx(42_000, 21_000), transaction.UrgencyNormal)
		critical := admissionPriority(feeTx(42_000, 21_000), transaction.UrgencyCritical)
		require.Greater(critical, normal, "urgency must decide between equal fee rates")
	})

	t.Run("ExtremeFeeRateSaturates", func(t *testing.T) {
		// A fee rate at the shift boundary must saturate rather than wrap
		// around and sort below modest transactions.
		extreme := admissionPriority(feeTx(math.MaxUint64, 1), transaction.UrgencyLow)
		modest := admissionPriority(feeTx(210_000, 21_000), transaction.UrgencyCritical)
		require.Greater(extreme, modest, "an extreme fee rate must keep outranking modest ones")

		// Saturated fee rates fall back to the urgency tie-break.
		urgent := admissionPriority(feeTx(math.MaxUint64, 1), transaction.UrgencyCritical)
		require.Greater(urgent, extreme)
	})
}
