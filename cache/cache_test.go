package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", 120)

	now = now.Add(59 * time.Second)
	n, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, int64(120), n)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "a", 3)

	n, _ := c.Get(ctx, "a")
	assert.Equal(t, int64(3), n)
	n, _ = c.Get(ctx, "b")
	assert.Equal(t, int64(2), n)
}

func TestMemory_SetSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "old", 1)
	now = now.Add(2 * time.Minute)
	c.Set(ctx, "new", 2)

	assert.Len(t, c.entries, 1)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "shared", int64(i))
			c.Get(ctx, "shared")
		}(i)
	}
	wg.Wait()

	_, ok := c.Get(ctx, "shared")
	assert.True(t, ok)
}
