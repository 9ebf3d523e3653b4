package transaction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	require := require.New(t)

	for _, tc := range []struct {
		callData []byte
		expected Class
	}{
		// Payloads shorter than a selector are always standard.
		{nil, ClassStandard},
		{[]byte{}, ClassStandard},
		{[]byte{0x01}, ClassStandard},
		{[]byte{0x01, 0x00, 0x00}, ClassStandard},

		// The zero selector is standard.
		{[]byte{0x00, 0x00, 0x00, 0x00}, ClassStandard},

		// System range.
		{[]byte{0x01, 0x00, 0x00, 0x00}, ClassSystem},
		{[]byte{0xff, 0xff, 0xff, 0x0f}, ClassSystem},

		// Financial range.
		{[]byte{0x00, 0x00, 0x00, 0x10}, ClassFinancial},
		{[]byte{0xff, 0xff, 0xff, 0x5f}, ClassFinancial},

		// Governance range.
		{[]byte{0x00, 0x00, 0x00, 0x60}, ClassGovernance},
		{[]byte{0xff, 0xff, 0xff, 0x7f}, ClassGovernance},

		// Above all known ranges.
		{[]byte{0x00, 0x00, 0x00, 0x80}, ClassStandard},
		{[]byte{0xff, 0xff, 0xff, 0xff}, ClassStandard},

		// Trailing payload bytes must not affect classification.
		{[]byte{0x01, 0x00, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef}, ClassSystem},
	} {
		require.Equal(tc.expected, Classify(tc.callData), "Classify(%x)", tc.callData)
	}
}

func TestClassString(t *testing.T) {
	require.Equal(t, "system", ClassSystem.String())
	require.Equal(t, "standard", ClassStandard.String())
	require.Equal(t, "financial", ClassFinancial.String())
	require.Equal(t, "governance", ClassGovernance.String())
}

func TestTransactionHash(t *testing.T) {
	require := require.New(t)

	tx := Transaction{
		Sender:   Address{0x01},
		Nonce:    42,
		Fee:      1_500_000,
		GasLimit: 21_000,
		CallData: []byte{0x01, 0x00, 0x00, 0x00},
	}

	h1 := tx.Hash()
	h2 := tx.Hash()
	require.Equal(h1, h2, "hash must be stable")

	tx2 := tx
	tx2.Nonce++
	h3 := tx2.Hash()
	require.NotEqual(h1, h3, "hash must change with contents")
}

func TestFeeDerivations(t *testing.T) {
	require := require.New(t)

	tx := Transaction{Fee: 2 * FeeScale, GasLimit: 1000}
	require.Equal(2.0, tx.FeeTokens(), "FeeTokens")
	require.Equal(uint64(2000), tx.FeePerGas(), "FeePerGas")

	zeroGas := Transaction{Fee: FeeScale}
	require.Equal(uint64(0), zeroGas.FeePerGas(), "FeePerGas with zero gas limit")
}
