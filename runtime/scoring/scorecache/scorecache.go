// Package scorecache provides a bounded, TTL-limited cache of transaction
// scores keyed by sender and transaction class.
package scorecache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/quorumnet/sched-core/common/cache/lru"
	"github.com/quorumnet/sched-core/runtime/transaction"
)

const (
	// DefaultCapacity is the default total entry capacity of the cache.
	DefaultCapacity = 8192

	// DefaultTTL is the default entry time-to-live.
	DefaultTTL = 10 * time.Second

	// numShards is the number of independently locked cache shards. Must
	// be a power of two.
	numShards = 16
)

// Key identifies a cached score.
type Key struct {
	Sender transaction.Address
	Class  transaction.Class
}

type entry struct {
	score      float64
	insertedAt time.Time
}

type shard struct {
	sync.Mutex

	entries *lru.Cache[Key, entry]
}

// Cache is a bounded score cache with lazy TTL expiry.
//
// Capacity is enforced per shard via LRU eviction. An entry older than the
// TTL is treated as absent; it is dropped on the Get that finds it expired
// rather than by a background sweeper.
type Cache struct {
	shards [numShards]shard

	ttl time.Duration
	now func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a new score cache. Non-positive capacity or TTL select the
// defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	perShard := (capacity + numShards - 1) / numShards

	c := &Cache{
		ttl: ttl,
		now: time.Now,
	}
	for i := range c.shards {
		c.shards[i].entries = lru.New(lru.Capacity[Key, entry](perShard))
	}

	initMetrics()

	return c
}

func (c *Cache) shardFor(key Key) *shard {
	// FNV-1a over the sender address and class.
	h := uint64(14695981039346656037)
	for _, b := range key.Sender {
		h = (h ^ uint64(b)) * 1099511628211
	}
	h = (h ^ uint64(key.Class)) * 1099511628211

	return &c.shards[h&(numShards-1)]
}

// Get returns the cached score for the given key. An expired entry counts
// as a miss and is removed.
func (c *Cache) Get(key Key) (float64, bool) {
	s := c.shardFor(key)

	s.Lock()
	defer s.Unlock()

	e, ok := s.entries.Get(key)
	if ok && c.now().Sub(e.insertedAt) >= c.ttl {
		_ = s.entries.Remove(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		cacheMisses.Inc()
		return 0, false
	}

	c.hits.Add(1)
	cacheHits.Inc()
	return e.score, true
}

// Put inserts or refreshes the cached score for the given key, resetting
// its TTL.
func (c *Cache) Put(key Key, score float64) {
	s := c.shardFor(key)

	s.Lock()
	defer s.Unlock()

	s.entries.Put(key, entry{
		score:      score,
		insertedAt: c.now(),
	})
}

// Remove drops the cached score for the given key, if any.
func (c *Cache) Remove(key Key) {
	s := c.shardFor(key)

	s.Lock()
	defer s.Unlock()

	_ = s.entries.Remove(key)
}

// Clear drops all cached scores. It is called whenever the scoring weights
// change, since every cached score is stale under a new weight set.
func (c *Cache) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.Lock()
		s.entries.Clear()
		s.Unlock()
	}
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	var n int
	for i := range c.shards {
		s := &c.shards[i]
		s.Lock()
		n += s.entries.Size()
		s.Unlock()
	}
	return n
}

// Stats returns the cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
