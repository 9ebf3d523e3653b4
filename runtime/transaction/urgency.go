package transaction

// Urgency is the policy-assigned urgency level of a transaction. It is set
// at submission time and never altered by the scheduler.
type Urgency uint8

const (
	// UrgencyLow is the lowest urgency level.
	UrgencyLow Urgency = 0
	// UrgencyNormal is the default urgency level.
	UrgencyNormal Urgency = 1
	// UrgencyHigh is the urgency level of latency-sensitive transactions.
	UrgencyHigh Urgency = 2
	// UrgencyCritical is the highest urgency level.
	UrgencyCritical Urgency = 3
)

// String returns the string representation of an urgency level.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return "[unknown]"
	}
}
