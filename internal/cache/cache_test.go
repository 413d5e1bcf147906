package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	c.Set("machine:1", "value-1", time.Second)

	got, ok := c.Get("machine:1")
	assert.True(t, ok)
	assert.Equal(t, "value-1", got)
	assert.Equal(t, 1, c.Size())
}

func TestCache_Get_Miss(t *testing.T) {
	c := New()

	got, ok := c.Get("missing")

	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_Get_ExpiredEntryEvicted(t *testing.T) {
	c := New()

	c.Set("machine:1", "value-1", 30*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("machine:1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entry should be evicted by the read")
}

func TestCache_Set_Overwrite(t *testing.T) {
	c := New()

	c.Set("k", "old", time.Second)
	c.Set("k", "new", time.Second)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Size())
}

func TestCache_Delete(t *testing.T) {
	c := New()

	c.Set("k", "v", time.Second)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New()

	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Second)
	c.Clear()

	assert.Equal(t, 0, c.Size())
}
