package enrich

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetAndGet(t *testing.T) {
	c := newTTLCache[string](time.Minute)
	c.set("k", "v")

	got, ok := c.get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestTTLCache_Miss(t *testing.T) {
	c := newTTLCache[string](time.Minute)
	_, ok := c.get("absent")
	assert.False(t, ok)
}

func TestTTLCache_ExpiresAndSweeps(t *testing.T) {
	c := newTTLCache[int](time.Nanosecond)
	c.set("k", 1)
	time.Sleep(time.Millisecond)

	_, ok := c.get("k")
	assert.False(t, ok)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.entries)
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := newTTLCache[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.set("shared", j)
				c.get("shared")
			}
		}()
	}
	wg.Wait()

	_, ok := c.get("shared")
	assert.True(t, ok)
}
