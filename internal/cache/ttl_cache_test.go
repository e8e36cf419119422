package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeTime(t *testing.T) *time.Time {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return base }
	t.Cleanup(func() { now = time.Now })
	return &base
}

func TestTTLCacheExpiry(t *testing.T) {
	clock := freezeTime(t)
	c := NewTTLCache[string, []string]()

	c.Set("teams", []string{"QA"}, time.Minute)
	c.Set("owners", []string{"Amy"}, 0)

	v, ok := c.Get("teams")
	require.True(t, ok)
	assert.Equal(t, []string{"QA"}, v)

	*clock = clock.Add(2 * time.Minute)
	_, ok = c.Get("teams")
	assert.False(t, ok)
	_, ok = c.Get("owners")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	c.PurgeExpired()
	c.Delete("owners")
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheGetOrLoad(t *testing.T) {
	freezeTime(t)
	c := NewTTLCache[string, int]()

	var calls int32
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	v, err := c.GetOrLoad(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(10))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestTTLCacheGetOrLoadError(t *testing.T) {
	c := NewTTLCache[string, int]()
	expErr := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) (int, error) { return 0, expErr })
	assert.ErrorIs(t, err, expErr)
	assert.Equal(t, 0, c.Len())

	c.Set("k", 1, 0)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
