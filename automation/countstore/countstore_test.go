package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	assert := assert.New(t)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 15th is still the 14th in New York
	at := time.Date(2026, 8, 15, 2, 30, 0, 0, time.UTC)
	assert.Equal("2026-08-15", DayKey(at))
	assert.Equal("2026-08-14", DayKey(at.In(loc)))
}

func TestMemCountStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemCountStore()

	c, err := s.GetCount(ctx, "posts", "2026-08-25")
	require.NoError(t, err)
	assert.Equal(0, c)

	require.NoError(t, s.Increment(ctx, "posts", "2026-08-25"))
	require.NoError(t, s.Increment(ctx, "posts", "2026-08-25"))
	c, _ = s.GetCount(ctx, "posts", "2026-08-25")
	assert.Equal(2, c)

	// separate action names do not interfere
	c, _ = s.GetCount(ctx, "replies", "2026-08-25")
	assert.Equal(0, c)
}

func TestMemCountStoreReserve(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemCountStore()

	ok, err := s.TryReserve(ctx, "posts", "2026-08-25", 2)
	require.NoError(t, err)
	assert.True(ok)
	ok, _ = s.TryReserve(ctx, "posts", "2026-08-25", 2)
	assert.True(ok)
	ok, _ = s.TryReserve(ctx, "posts", "2026-08-25", 2)
	assert.False(ok)

	// releasing a failed attempt frees the slot again
	require.NoError(t, s.Release(ctx, "posts", "2026-08-25"))
	ok, _ = s.TryReserve(ctx, "posts", "2026-08-25", 2)
	assert.True(ok)

	// a zero cap reserves nothing
	ok, _ = s.TryReserve(ctx, "posts", "2026-08-26", 0)
	assert.False(ok)
}

func TestMemCountStoreDayRollover(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemCountStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Increment(ctx, "posts", "2026-08-25"))
	}

	// the next day starts from zero
	ok, err := s.TryReserve(ctx, "posts", "2026-08-26", 5)
	require.NoError(t, err)
	assert.True(ok)
	c, _ := s.GetCount(ctx, "posts", "2026-08-26")
	assert.Equal(1, c)

	// the stale bucket was pruned
	c, _ = s.GetCount(ctx, "posts", "2026-08-25")
	assert.Equal(0, c)
}

func TestMemCountStoreReserveRace(t *testing.T) {
	ctx := context.Background()
	s := NewMemCountStore()

	const workers = 50
	const limit = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryReserve(ctx, "posts", "2026-08-25", limit)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, wins)
	c, _ := s.GetCount(ctx, "posts", "2026-08-25")
	assert.Equal(t, limit, c)
}
