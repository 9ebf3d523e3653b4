package scoring

import (
	"golang.org/x/sys/cpu"

	"github.com/quorumnet/sched-core/runtime/transaction"
)

// vectorLanes is the block width of the vectorized path.
const vectorLanes = 4

// vectorUnitAvailable reports whether the host has a vector unit wide
// enough for the blocked scoring path to pay off.
func vectorUnitAvailable() bool {
	return cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}

// scoreBatchVector is the blocked scoring path. It processes four lanes per
// iteration so the compiler can keep the lane computations in vector
// registers, with the scalar path handling the remainder.
//
// Every lane evaluates the exact expression from scoreOne with the same
// operation grouping, which keeps the two paths bit-identical and well
// within the scoring tolerance.
func scoreBatchVector(fees []float64, classes []transaction.Class, w *Weights) []float64 {
	scores := make([]float64, len(fees))

	n := len(fees) / vectorLanes * vectorLanes
	for i := 0; i < n; i += vectorLanes {
		f0, f1, f2, f3 := fees[i], fees[i+1], fees[i+2], fees[i+3]

		n0 := f0 / (f0 + 1)
		n1 := f1 / (f1 + 1)
		n2 := f2 / (f2 + 1)
		n3 := f3 / (f3 + 1)

		scores[i] = w.Fee*n0 + classCredit(classes[i], w)
		scores[i+1] = w.Fee*n1 + classCredit(classes[i+1], w)
		scores[i+2] = w.Fee*n2 + classCredit(classes[i+2], w)
		scores[i+3] = w.Fee*n3 + classCredit(classes[i+3], w)
	}

	for i := n; i < len(fees); i++ {
		scores[i] = scoreOne(fees[i], classes[i], w)
	}

	return scores
}
