package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[string, string](20*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("a", "x")

	time.Sleep(30 * time.Millisecond)

	// Süre doldu — Get stale entry döndürmez, fiziksel silme beklenmez
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_SetRenewsTTL(t *testing.T) {
	c := New[string, string](40*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("a", "x")
	time.Sleep(25 * time.Millisecond)
	c.Set("a", "y")
	time.Sleep(25 * time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestTTLCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_DeleteFunc(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("job:1", 1)
	c.Set("job:2", 2)
	c.Set("other", 3)

	c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "job:")
	})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("other")
	assert.True(t, ok)
}

func TestTTLCache_Clear(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_BackgroundEviction(t *testing.T) {
	c := New[string, int](10*time.Millisecond, 20*time.Millisecond)
	defer c.Close()

	c.Set("a", 1)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
