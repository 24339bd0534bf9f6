package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figuroforge/authkit/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("get and put", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)

		c.Put("a", 1)
		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		c.Put("a", 2)
		v, ok = c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Get("a") // refresh a so b becomes oldest
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("put refreshes recency", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("a", 10) // now b is oldest
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 10, v)
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		_, ok := c.Get("a")
		assert.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](4)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Clear()

		assert.Zero(t, c.Len())
		_, ok := c.Get("a")
		assert.False(t, ok)

		// usable again after clearing
		c.Put("c", 3)
		v, ok := c.Get("c")
		require.True(t, ok)
		assert.Equal(t, 3, v)
	})

	t.Run("non-positive capacity panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { cache.NewLRU[string, int](0) })
	})

	t.Run("single slot cache", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](1)
		c.Put("a", 1)
		c.Put("b", 2)

		_, ok := c.Get("a")
		assert.False(t, ok)
		v, ok := c.Get("b")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})
}
