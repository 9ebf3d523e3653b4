package scoring

import (
	"github.com/quorumnet/sched-core/runtime/transaction"
)

// scoreOne computes the score of a single (fee, class) pair.
//
// The expression must stay algebraically identical to the per-lane
// expression in the vectorized path: same normalization, same multiply/add
// grouping. Any reordering here risks cross-hardware score divergence.
func scoreOne(fee float64, class transaction.Class, w *Weights) float64 {
	normFee := fee / (fee + 1)
	return w.Fee*normFee + classCredit(class, w)
}

// scoreBatchScalar is the per-element scoring path.
func scoreBatchScalar(fees []float64, classes []transaction.Class, w *Weights) []float64 {
	scores := make([]float64, len(fees))
	for i, fee := range fees {
		scores[i] = scoreOne(fee, classes[i], w)
	}
	return scores
}
