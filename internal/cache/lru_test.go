package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a becomes most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_FixedTTL(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewLRUCache[string](10, time.Minute)
	c.now = clk.now

	c.Set("k", "v")
	clk.advance(40 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clk.advance(40 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "fixed TTL is not extended by reads")
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewSlidingLRUCache[string](10, time.Minute)
	c.now = clk.now

	c.Set("k", "v")
	for i := 0; i < 3; i++ {
		clk.advance(40 * time.Second)
		_, ok := c.Get("k")
		assert.True(t, ok, "read %d should keep the entry alive", i)
	}

	clk.advance(2 * time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestManager_CleanNow(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	a := NewLRUCache[int](10, time.Second)
	a.now = clk.now
	a.Set("x", 1)
	a.Set("y", 2)

	m := NewManager(nil)
	m.Register(a)
	clk.advance(2 * time.Second)
	assert.Equal(t, 2, m.CleanNow())

	m.StartCleanup(time.Millisecond)
	m.Stop()
}
