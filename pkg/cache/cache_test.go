package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceSingleton(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()
	first := registry.Namespace("github", 900*time.Second)
	second := registry.Namespace("github", 1*time.Second)
	assert.Same(first, second)

	// The differing ttl of the second call is ignored
	first.Set("key", "value")
	value, ok := first.Get("key")
	assert.True(ok)
	assert.Equal("value", value)

	other := registry.Namespace("settings", 0)
	assert.NotSame(first, other)
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	testCache := NewRegistry().Namespace("test", 0)
	testCache.Set("key", 42)
	value, ok := testCache.Get("key")
	assert.True(ok)
	assert.Equal(42, value)

	_, ok = testCache.Get("missing")
	assert.False(ok)
}

func TestExpiryEvictsOnRead(t *testing.T) {
	assert := assert.New(t)

	testCache := NewRegistry().Namespace("test", 0)
	testCache.SetWithTtl("key", "value", 30*time.Millisecond)

	// Immediately present
	value, ok := testCache.Get("key")
	assert.True(ok)
	assert.Equal("value", value)

	// After the ttl the entry counts as absent and is evicted by the read
	time.Sleep(50 * time.Millisecond)
	_, ok = testCache.Get("key")
	assert.False(ok)
	assert.False(testCache.Has("key"))
}

func TestNoTtlNeverExpires(t *testing.T) {
	assert := assert.New(t)

	testCache := NewRegistry().Namespace("settings", 0)
	testCache.Set("config", "value")
	time.Sleep(20 * time.Millisecond)
	_, ok := testCache.Get("config")
	assert.True(ok)
}

func TestDeleteAndClear(t *testing.T) {
	assert := assert.New(t)

	testCache := NewRegistry().Namespace("test", 0)
	testCache.Set("a", 1)
	testCache.Set("b", 2)

	testCache.Delete("a")
	_, ok := testCache.Get("a")
	assert.False(ok)
	_, ok = testCache.Get("b")
	assert.True(ok)

	testCache.Clear()
	_, ok = testCache.Get("b")
	assert.False(ok)
}

func TestGetAs(t *testing.T) {
	assert := assert.New(t)

	testCache := NewRegistry().Namespace("test", 0)
	testCache.Set("number", 7)

	number, ok := GetAs[int](testCache, "number")
	assert.True(ok)
	assert.Equal(7, number)

	// Wrong type counts as absent
	_, ok = GetAs[string](testCache, "number")
	assert.False(ok)
}

func TestKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("roemer/gonovate:release", Key("roemer", "gonovate", "release"))
	assert.Equal("owner/repo:win32:RELEASES", Key("owner", "repo", "win32:RELEASES"))
}
