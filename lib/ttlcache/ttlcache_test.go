package ttlcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetAfterSet(t *testing.T) {
	cache := New[string](time.Minute)
	cache.Set("a", "value")

	got, ok := cache.Get("a")
	require.True(t, ok)
	require.Equal(t, "value", got)

	_, ok = cache.Get("missing")
	require.False(t, ok)
}

func TestExpiry(t *testing.T) {
	cache := New[int](time.Minute)
	cache.SetTTL("n", 42, 30*time.Millisecond)

	got, ok := cache.Get("n")
	require.True(t, ok)
	require.Equal(t, 42, got)

	time.Sleep(50 * time.Millisecond)

	_, ok = cache.Get("n")
	require.False(t, ok)
	// the expired entry is gone, not just hidden
	require.Equal(t, 0, cache.Len())
}

func TestClear(t *testing.T) {
	cache := New[string](time.Minute)
	cache.Set("a", "1")
	cache.Set("b", "2")
	require.Equal(t, 2, cache.Len())

	cache.Clear()
	require.Equal(t, 0, cache.Len())
	_, ok := cache.Get("a")
	require.False(t, ok)
}

func TestSweep(t *testing.T) {
	cache := New[string](time.Minute)
	cache.SetTTL("old", "x", 10*time.Millisecond)
	cache.SetTTL("older", "y", 10*time.Millisecond)
	cache.Set("fresh", "z")

	time.Sleep(30 * time.Millisecond)

	removed := cache.Sweep()
	require.Equal(t, 2, removed)
	require.Equal(t, 1, cache.Len())

	got, ok := cache.Get("fresh")
	require.True(t, ok)
	require.Equal(t, "z", got)
}

func TestOverwrite(t *testing.T) {
	cache := New[string](time.Minute)
	cache.Set("k", "first")
	cache.Set("k", "second")

	got, ok := cache.Get("k")
	require.True(t, ok)
	require.Equal(t, "second", got)
	require.Equal(t, 1, cache.Len())
}
