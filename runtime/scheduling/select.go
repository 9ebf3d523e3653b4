// Package scheduling implements batch selection and the scheduling rounds
// that drive it.
package scheduling

import (
	"context"
	"sort"

	"github.com/quorumnet/sched-core/runtime/txpool"
)

// Select greedily assembles an ordered batch from the scored candidates
// under the given gas budget.
//
// Candidates are considered in score order, highest first, with ties
// broken by admission order. A candidate that does not fit in the
// remaining budget is skipped, not discarded; scanning continues over the
// rest of the list. Cancelling the context yields the best-effort partial
// batch assembled so far.
func Select(ctx context.Context, candidates []*txpool.ScoredTransaction, gasBudget uint64) []*txpool.ScoredTransaction {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]*txpool.ScoredTransaction, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	var (
		batch   []*txpool.ScoredTransaction
		gasUsed uint64
	)
	for _, c := range sorted {
		select {
		case <-ctx.Done():
			return batch
		default:
		}

		if c.Tx.GasLimit > gasBudget-gasUsed {
			continue
		}

		batch = append(batch, c)
		gasUsed += c.Tx.GasLimit
	}

	return batch
}
