// Package transaction implements the transaction data model used by the
// scheduling core.
package transaction

import (
	"encoding/hex"

	"github.com/quorumnet/sched-core/common/crypto/hash"
)

const (
	// AddressSize is the size of a sender address in bytes.
	AddressSize = 20

	// FeeScale is the fixed-point scale of the Fee field: a Fee of
	// FeeScale corresponds to one whole token.
	FeeScale = 1_000_000
)

// Address is a fixed-size sender identity.
type Address [AddressSize]byte

// String returns the string representation of an address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Transaction is a candidate transaction.
//
// The value is owned by the caller until it is admitted into the pool, at
// which point ownership transfers to the pool. It must not be mutated after
// submission.
type Transaction struct {
	// Sender is the transaction sender.
	Sender Address `json:"sender"`

	// Nonce is the per-sender sequence number.
	Nonce uint64 `json:"nonce"`

	// Fee is the offered fee in fixed-point subunits (see FeeScale).
	Fee uint64 `json:"fee"`

	// GasLimit is the maximum amount of gas the transaction may consume.
	GasLimit uint64 `json:"gas_limit"`

	// CallData is the raw call payload.
	CallData []byte `json:"call_data"`
}

// Hash returns the cryptographic hash of the transaction's canonical
// serialization.
func (tx *Transaction) Hash() hash.Hash {
	return hash.NewFrom(tx)
}

// Size returns the size of the call payload in bytes.
func (tx *Transaction) Size() int {
	return len(tx.CallData)
}

// Class returns the semantic class of the transaction, derived from its
// call payload.
func (tx *Transaction) Class() Class {
	return Classify(tx.CallData)
}

// FeeTokens returns the offered fee converted to whole tokens.
func (tx *Transaction) FeeTokens() float64 {
	return float64(tx.Fee) / FeeScale
}

// FeePerGas returns the offered fee per unit of gas, in fixed-point
// subunits. A zero gas limit yields zero to avoid division by zero; such
// transactions sort last.
func (tx *Transaction) FeePerGas() uint64 {
	if tx.GasLimit == 0 {
		return 0
	}
	return tx.Fee / tx.GasLimit
}
