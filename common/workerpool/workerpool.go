// Package workerpool implements a simple goroutine-based workerpool with a
// configurable number of workers.
package workerpool

import (
	"sync"
	"time"

	"github.com/eapache/channels"

	"github.com/quorumnet/sched-core/common/logging"
)

const (
	defaultMinBackoffTimeout = 1 * time.Second
	defaultMaxBackoffTimeout = 30 * time.Second
)

// BackoffConfig configures the failure backoff behavior of a pool.
type BackoffConfig struct {
	// MinTimeout is the initial backoff timeout after a job failure.
	MinTimeout time.Duration
	// MaxTimeout is the maximum backoff timeout.
	MaxTimeout time.Duration
}

// PoolConfig is the worker pool configuration.
type PoolConfig struct {
	// Backoff is the failure backoff configuration.  If nil, defaults
	// are used.
	Backoff *BackoffConfig
}

type job struct {
	fn     func() error
	doneCh chan error
}

// Pool is a pool of goroutine workers.
//
// Notes:
//   - The pool is always constructed with one active worker goroutine.
//   - Once closed, it can not be used anymore.
type Pool struct {
	sync.Mutex

	name    string
	logger  *logging.Logger
	backoff *failureBackoff

	jobCh *channels.InfiniteChannel

	workerStops []chan struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	quitCh   chan struct{}
}

// Name returns the name of the pool.
func (p *Pool) Name() string {
	return p.name
}

// Resize sets the number of parallel goroutine workers to the number given.
//
// count must be a positive number.
func (p *Pool) Resize(count uint) {
	if count == 0 {
		panic("workerpool: worker count must be positive")
	}

	p.Lock()
	defer p.Unlock()

	for uint(len(p.workerStops)) < count {
		stopCh := make(chan struct{})
		p.workerStops = append(p.workerStops, stopCh)
		go p.worker(stopCh)
	}
	for uint(len(p.workerStops)) > count {
		last := len(p.workerStops) - 1
		close(p.workerStops[last])
		p.workerStops = p.workerStops[:last]
	}
}

// Submit adds a task to the pool's queue and returns a channel that will
// receive the job's result once the job is complete.
func (p *Pool) Submit(fn func() error) <-chan error {
	j := &job{
		fn:     fn,
		doneCh: make(chan error, 1),
	}

	select {
	case <-p.stopCh:
		j.doneCh <- errPoolStopped
		close(j.doneCh)
	default:
		p.jobCh.In() <- j
	}

	return j.doneCh
}

// Stop stops the pool.  Pending jobs are abandoned.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.jobCh.Close()

		p.Lock()
		defer p.Unlock()
		for _, stopCh := range p.workerStops {
			close(stopCh)
		}
		p.workerStops = nil
		close(p.quitCh)
	})
}

// Quit returns a channel that will be closed when the pool stops.
func (p *Pool) Quit() <-chan struct{} {
	return p.quitCh
}

func (p *Pool) worker(stopCh chan struct{}) {
	for {
		select {
		case <-p.stopCh:
			return
		case <-stopCh:
			return
		case item, ok := <-p.jobCh.Out():
			if !ok {
				return
			}
			j := item.(*job)

			// Delay the job if previous jobs have been failing.
			if timeout := p.backoff.Timeout(); timeout > 0 {
				select {
				case <-p.stopCh:
					return
				case <-time.After(timeout):
				}
			}

			err := j.fn()
			switch err {
			case nil:
				p.backoff.Success()
			default:
				p.logger.Debug("job failed",
					"err", err,
				)
				p.backoff.Failure()
			}

			j.doneCh <- err
			close(j.doneCh)
		}
	}
}

// New creates and returns a new Pool instance with one worker.
func New(name string, cfg *PoolConfig) *Pool {
	backoffCfg := &BackoffConfig{
		MinTimeout: defaultMinBackoffTimeout,
		MaxTimeout: defaultMaxBackoffTimeout,
	}
	if cfg != nil && cfg.Backoff != nil {
		backoffCfg = cfg.Backoff
	}

	p := &Pool{
		name:    name,
		logger:  logging.GetLogger("workerpool/" + name),
		backoff: newFailureBackoff(backoffCfg),
		jobCh:   channels.NewInfiniteChannel(),
		stopCh:  make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
	p.Resize(1)

	return p
}
