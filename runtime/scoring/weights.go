// Package scoring implements the deterministic transaction scoring engine
// and the adaptive weight controller that tunes it.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is the error returned when a weight set is degenerate
// (all-zero or non-finite) and cannot be normalized.
var ErrInvalidWeights = errors.New("scoring: invalid weight set")

// Weights is a scoring weight set.
//
// A valid weight set has every component in [0, 1] and components summing to
// one. Weight sets are treated as immutable snapshots: the controller
// publishes fresh copies and consumers must not mutate them.
type Weights struct {
	// Fee is the weight of the normalized fee component.
	Fee float64 `json:"fee"`
	// System is the score credit for system-class transactions.
	System float64 `json:"system"`
	// Financial is the score credit for financial-class transactions.
	Financial float64 `json:"financial"`
	// Governance is the score credit for governance-class transactions.
	Governance float64 `json:"governance"`
	// Age is the weight of the in-pool age credit.
	Age float64 `json:"age"`
}

// DefaultWeights returns the weight set used at startup, before the
// controller has observed any scheduling outcomes.
func DefaultWeights() *Weights {
	return &Weights{
		Fee:        0.40,
		System:     0.15,
		Financial:  0.20,
		Governance: 0.10,
		Age:        0.15,
	}
}

// Sum returns the sum of all weight components.
func (w *Weights) Sum() float64 {
	return w.Fee + w.System + w.Financial + w.Governance + w.Age
}

// Validate checks that the weight set is well-formed.
func (w *Weights) Validate() error {
	for _, c := range [...]struct {
		name  string
		value float64
	}{
		{"fee", w.Fee},
		{"system", w.System},
		{"financial", w.Financial},
		{"governance", w.Governance},
		{"age", w.Age},
	} {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: non-finite %s weight", ErrInvalidWeights, c.name)
		}
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("%w: %s weight %v out of range", ErrInvalidWeights, c.name, c.value)
		}
	}

	if sum := w.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}

	return nil
}

// weightSumTolerance is the maximum permitted deviation of the weight sum
// from one.
const weightSumTolerance = 1e-9

// normalize scales the weight set so that the components sum to exactly
// one. A degenerate (all-zero or non-finite) weight set is rejected rather
// than producing NaN.
func (w *Weights) normalize() error {
	sum := w.Sum()
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum <= 0 {
		return ErrInvalidWeights
	}

	w.Fee /= sum
	w.System /= sum
	w.Financial /= sum
	w.Governance /= sum
	w.Age /= sum

	return nil
}
