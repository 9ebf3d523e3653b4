package transaction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPriority(t *testing.T) {
	require := require.New(t)

	tx := &Transaction{
		Sender:   Address{0x01},
		Nonce:    7,
		Fee:      2 * FeeScale,
		GasLimit: 100_000,
		CallData: []byte{0x00, 0x00, 0x00, 0x10}, // Financial selector.
	}

	p := NewPriority(tx, UrgencyHigh, 3, 0.5)
	require.Equal(ClassFinancial, p.Class)
	require.InDelta(2.0/100_000, p.FeeRate, 1e-12)
	require.Equal(UrgencyHigh, p.Urgency)
	require.EqualValues(3, p.Age)
	require.EqualValues(100_000, p.GasLimit)
	require.Equal(0.5, p.SenderReputation)

	t.Run("ZeroGas", func(t *testing.T) {
		degenerate := &Transaction{Sender: Address{0x02}, Fee: FeeScale}
		p := NewPriority(degenerate, UrgencyLow, 0, 0)
		require.Equal(0.0, p.FeeRate, "zero gas limit must not divide by zero")
	})
}
