package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemory()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"), 0)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemory()

	c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	c := NewMemory()

	val := []byte("original")
	c.Set("k", val, 0)
	val[0] = 'X'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c := New("")
	c.Set("k", []byte("v"), 0)
	_, ok := c.Get("k")
	assert.True(t, ok)
}
