package workerpool

import (
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errPoolStopped = errors.New("workerpool: pool has been stopped")

// failureBackoff tracks consecutive job failures and derives the delay that
// should be applied before running the next job.
type failureBackoff struct {
	sync.Mutex

	eb      *backoff.ExponentialBackOff
	timeout time.Duration
}

// Timeout returns the currently active backoff timeout.  A zero timeout
// means that jobs have not been failing.
func (b *failureBackoff) Timeout() time.Duration {
	b.Lock()
	defer b.Unlock()

	return b.timeout
}

// Success resets the backoff.
func (b *failureBackoff) Success() {
	b.Lock()
	defer b.Unlock()

	b.eb.Reset()
	b.timeout = 0
}

// Failure increases the backoff timeout.
func (b *failureBackoff) Failure() {
	b.Lock()
	defer b.Unlock()

	b.timeout = b.eb.NextBackOff()
}

func newFailureBackoff(cfg *BackoffConfig) *failureBackoff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.MinTimeout
	eb.MaxInterval = cfg.MaxTimeout
	// The pool exists for the lifetime of the process, jobs should never
	// stop being retried.
	eb.MaxElapsedTime = 0
	eb.Reset()

	return &failureBackoff{eb: eb}
}
