package workerpool

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolBackoff(t *testing.T) {
	require := require.New(t)

	// Test that the backoff is reset on success.
	pool := New("test", &PoolConfig{Backoff: &BackoffConfig{MinTimeout: 500 * time.Millisecond, MaxTimeout: 3 * time.Second}})
	defer pool.Stop()
	pool.Resize(4)

	fnSuccess := func() error { return nil }
	fnFail := func() error { return fmt.Errorf("job failure") }

	// Ensure no backoff on successes.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pool.Submit(fnSuccess)
		}()
	}
	wg.Wait()
	require.EqualValues(0, pool.backoff.Timeout(), "there should be no backoff on success")

	// Ensure max backoff on multilple failures.
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pool.Submit(fnFail)
		}()
	}
	wg.Wait()
	// Note: The exact backoff is not known as the backoff is randomized, and can even increase
	// beyond MaxBackoff by a bit due to the upstream backoff implementation.
	require.GreaterOrEqual(pool.backoff.Timeout(), 250*time.Millisecond, "repeated failures should increase backoff")

	// Ensure backoff is reset on success.
	<-pool.Submit(fnSuccess)
	require.EqualValues(0, pool.backoff.Timeout(), "backoff should be reset on success")
}

func TestPoolResults(t *testing.T) {
	require := require.New(t)

	pool := New("test-results", nil)
	pool.Resize(2)

	err := <-pool.Submit(func() error { return nil })
	require.NoError(err, "successful job result")

	jobErr := fmt.Errorf("job failure")
	// Note: the failure above arms the backoff so this may take a bit.
	err = <-pool.Submit(func() error { return jobErr })
	require.Equal(jobErr, err, "failed job result")

	pool.Stop()
	select {
	case <-pool.Quit():
	case <-time.After(time.Second):
		t.Fatalf("pool did not quit after Stop()")
	}

	err = <-pool.Submit(func() error { return nil })
	require.Error(err, "Submit after Stop()")
}
