package scoring

import (
	"fmt"

	"github.com/quorumnet/sched-core/common/logging"
	"github.com/quorumnet/sched-core/runtime/transaction"
)

// DefaultVectorThreshold is the default minimum batch length for the
// vectorized scoring path.
const DefaultVectorThreshold = 32

// Config is the scoring engine configuration.
type Config struct {
	// VectorThreshold is the minimum batch length at which the vectorized
	// path is used. Zero selects the default.
	VectorThreshold int `yaml:"vector_threshold"`

	// ForceScalar forces the scalar path regardless of batch length or
	// instruction set availability.
	ForceScalar bool `yaml:"force_scalar"`
}

// Engine computes transaction scores.
//
// Scoring is element-wise: score[i] depends only on fees[i], classes[i] and
// the weight set, so the vectorized and scalar execution strategies are
// interchangeable. Path selection is a pure performance decision; both
// paths use the same multiply/add grouping so results stay within the
// scoring tolerance on any hardware.
type Engine struct {
	logger *logging.Logger

	vectorThreshold int
	vectorCapable   bool
}

// NewEngine creates a new scoring engine.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	threshold := cfg.VectorThreshold
	if threshold <= 0 {
		threshold = DefaultVectorThreshold
	}

	e := &Engine{
		logger:          logging.GetLogger("runtime/scoring"),
		vectorThreshold: threshold,
		vectorCapable:   !cfg.ForceScalar && vectorUnitAvailable(),
	}
	e.logger.Debug("scoring engine initialized",
		"vector_capable", e.vectorCapable,
		"vector_threshold", e.vectorThreshold,
	)

	initMetrics()

	return e
}

// ScoreBatch computes the score of every (fee, class) pair under the given
// weight set. The result has the same length as the inputs.
//
// Mismatched input lengths are a programming error and cause a panic.
func (e *Engine) ScoreBatch(fees []float64, classes []transaction.Class, w *Weights) []float64 {
	if len(fees) != len(classes) {
		panic(fmt.Sprintf("scoring: mismatched batch lengths: %d fees, %d classes", len(fees), len(classes)))
	}
	if len(fees) == 0 {
		return nil
	}

	if e.vectorCapable && len(fees) >= e.vectorThreshold {
		enginePathRuns.WithLabelValues(pathVector).Inc()
		return scoreBatchVector(fees, classes, w)
	}

	enginePathRuns.WithLabelValues(pathScalar).Inc()
	return scoreBatchScalar(fees, classes, w)
}

// classCredit returns the class-specific score credit under the given
// weight set.
func classCredit(class transaction.Class, w *Weights) float64 {
	switch class {
	case transaction.ClassSystem:
		return w.System
	case transaction.ClassFinancial:
		return w.Financial
	case transaction.ClassGovernance:
		return w.Governance
	default:
		return 0
	}
}
