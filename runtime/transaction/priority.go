package transaction

// Priority is the derived, per-round priority view of a transaction. It is
// recomputed every time a transaction's score is needed as the age component
// changes with every scheduling round.
type Priority struct {
	// Class is the semantic class of the transaction.
	Class Class

	// FeeRate is the offered fee per unit of gas, in whole tokens.
	FeeRate float64

	// Urgency is the policy-assigned urgency level.
	Urgency Urgency

	// Age is the number of seconds the transaction has been pending in
	// the pool.
	Age uint64

	// GasLimit is the transaction's gas limit.
	GasLimit uint64

	// SenderReputation is the sender's reputation in [0, 1], as reported
	// by the admission policy.
	SenderReputation float64
}

// NewPriority derives the priority view of a transaction for the given
// urgency, round age and sender reputation.
func NewPriority(tx *Transaction, urgency Urgency, age uint64, senderReputation float64) Priority {
	var feeRate float64
	if tx.GasLimit > 0 {
		feeRate = tx.FeeTokens() / float64(tx.GasLimit)
	}

	return Priority{
		Class:            tx.Class(),
		FeeRate:          feeRate,
		Urgency:          urgency,
		Age:              age,
		GasLimit:         tx.GasLimit,
		SenderReputation: senderReputation,
	}
}
