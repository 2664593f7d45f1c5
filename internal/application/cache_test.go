package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheAdmitsOncePerCommand(t *testing.T) {
	cache := NewCache(time.Minute, 8, newFakeClock())
	command := domain.URLCommand{URL: "http://example.com"}

	first, isNew := cache.LookupOrAdmit(command)
	require.True(t, isNew)

	second, isNew := cache.LookupOrAdmit(domain.URLCommand{URL: "http://example.com"})
	assert.False(t, isNew)
	assert.Same(t, first, second)
}

func TestCacheExpiresEntriesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(time.Minute, 8, clock)
	command := domain.VideoCommand{ID: "a123456789Z"}

	first, _ := cache.LookupOrAdmit(command)

	clock.Advance(59 * time.Second)
	hit, isNew := cache.LookupOrAdmit(command)
	require.False(t, isNew)
	require.Same(t, first, hit)

	clock.Advance(time.Second)
	fresh, isNew := cache.LookupOrAdmit(command)
	assert.True(t, isNew)
	assert.NotSame(t, first, fresh)
}

func TestCacheEvictsLeastRecentlyLookedUp(t *testing.T) {
	cache := NewCache(time.Hour, 2, newFakeClock())
	a := domain.ComputeCommand{Query: "a"}
	b := domain.ComputeCommand{Query: "b"}
	c := domain.ComputeCommand{Query: "c"}

	cache.LookupOrAdmit(a)
	cache.LookupOrAdmit(b)
	_, isNew := cache.LookupOrAdmit(a)
	require.False(t, isNew)

	cache.LookupOrAdmit(c)
	assert.Equal(t, 2, cache.Len())

	_, isNew = cache.LookupOrAdmit(a)
	assert.False(t, isNew, "recently used entry must survive")

	_, isNew = cache.LookupOrAdmit(b)
	assert.True(t, isNew, "least recently used entry must be evicted")
}

func TestCacheEvictedHandleStillResolves(t *testing.T) {
	cache := NewCache(time.Hour, 1, newFakeClock())

	evicted, _ := cache.LookupOrAdmit(domain.ComputeCommand{Query: "a"})
	cache.LookupOrAdmit(domain.ComputeCommand{Query: "b"})

	evicted.resolve(domain.Answer{Text: "42"}, nil)

	info, err := evicted.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Answer{Text: "42"}, info)
}

func TestCacheReconfigureDropsEntriesButKeepsHandles(t *testing.T) {
	cache := NewCache(time.Hour, 8, newFakeClock())
	command := domain.URLCommand{URL: "http://example.com"}

	old, _ := cache.LookupOrAdmit(command)
	cache.Reconfigure(2*time.Hour, 16)

	ttl, capacity := cache.Settings()
	assert.Equal(t, 2*time.Hour, ttl)
	assert.Equal(t, 16, capacity)
	assert.Zero(t, cache.Len())

	fresh, isNew := cache.LookupOrAdmit(command)
	require.True(t, isNew)
	require.NotSame(t, old, fresh)

	old.resolve(domain.URLInfo{Title: "old"}, nil)
	info, err := old.Result()
	require.NoError(t, err)
	assert.Equal(t, "old", info.(domain.URLInfo).Title)

	select {
	case <-fresh.Done():
		t.Fatal("fresh handle resolved by the old one")
	default:
	}
}

func TestCacheForgetIgnoresReplacedHandle(t *testing.T) {
	cache := NewCache(time.Hour, 8, newFakeClock())
	command := domain.URLCommand{URL: "http://example.com"}

	old, _ := cache.LookupOrAdmit(command)
	cache.Reconfigure(time.Hour, 8)
	current, _ := cache.LookupOrAdmit(command)

	cache.Forget(command, old)
	hit, isNew := cache.LookupOrAdmit(command)
	require.False(t, isNew)
	assert.Same(t, current, hit)

	cache.Forget(command, current)
	_, isNew = cache.LookupOrAdmit(command)
	assert.True(t, isNew)
}

func TestHandleResolvesOnce(t *testing.T) {
	handle := newHandle(domain.ComputeCommand{Query: "x"})

	info, err := handle.Result()
	assert.Nil(t, info)
	assert.NoError(t, err)

	require.True(t, handle.resolve(nil, domain.ErrTimedOut))
	require.False(t, handle.resolve(domain.Answer{Text: "late"}, nil))

	_, err = handle.Result()
	assert.ErrorIs(t, err, domain.ErrTimedOut)
}

func TestHandleWaitHonorsContext(t *testing.T) {
	handle := newHandle(domain.ComputeCommand{Query: "x"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := handle.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
