package lru

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasic(t *testing.T) {
	require := require.New(t)

	cache := New(Capacity[string, int](3))

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	v, ok := cache.Get("a")
	require.True(ok, "Get present key")
	require.Equal(1, v, "Get value")

	// "b" is now the least-recently-used entry, insertion should evict it.
	cache.Put("d", 4)
	_, ok = cache.Get("b")
	require.False(ok, "LRU entry should have been evicted")
	require.Equal(3, cache.Size(), "Size")

	// Updating an existing key must not evict anything.
	cache.Put("c", 33)
	v, ok = cache.Get("c")
	require.True(ok, "Get updated key")
	require.Equal(33, v, "updated value")
	require.Equal(3, cache.Size(), "Size after update")
}

func TestPeekDoesNotTouch(t *testing.T) {
	require := require.New(t)

	cache := New(Capacity[string, int](2))
	cache.Put("a", 1)
	cache.Put("b", 2)

	// Peek must not move "a" to the most-recently-used position.
	_, ok := cache.Peek("a")
	require.True(ok, "Peek present key")

	cache.Put("c", 3)
	_, ok = cache.Get("a")
	require.False(ok, "peeked entry should still be evicted first")
}

func TestOnEvict(t *testing.T) {
	require := require.New(t)

	var evictedKeys []string
	cache := New(
		Capacity[string, int](1),
		OnEvict(func(key string, _ int) {
			evictedKeys = append(evictedKeys, key)
		}),
	)

	cache.Put("a", 1)
	cache.Put("b", 2)

	require.Equal([]string{"a"}, evictedKeys, "on-evict callback")

	require.True(cache.Remove("b"), "Remove present key")
	require.False(cache.Remove("b"), "Remove absent key")
	require.Empty(cache.Keys(), "Keys after removal")
}
