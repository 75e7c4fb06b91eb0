package procname

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestResolver(lookup lookupFunc) *Resolver {
	return &Resolver{lookup: lookup, cache: newTTLCache(time.Minute)}
}

func TestNameResolves(t *testing.T) {
	r := newTestResolver(func(pid uint32) (string, error) {
		return "render", nil
	})
	assert.Equal(t, "render", r.Name(100))
}

func TestNameFallsBackToSentinel(t *testing.T) {
	r := newTestResolver(func(pid uint32) (string, error) {
		return "", errors.New("no such process")
	})
	assert.Equal(t, Sentinel, r.Name(1234))
}

func TestEmptyNameFallsBackToSentinel(t *testing.T) {
	r := newTestResolver(func(pid uint32) (string, error) {
		return "", nil
	})
	assert.Equal(t, Sentinel, r.Name(1234))
}

func TestNameIsCached(t *testing.T) {
	calls := 0
	r := newTestResolver(func(pid uint32) (string, error) {
		calls++
		return "python", nil
	})

	assert.Equal(t, "python", r.Name(55))
	assert.Equal(t, "python", r.Name(55))
	assert.Equal(t, 1, calls)
}

func TestMissesAreNotCached(t *testing.T) {
	calls := 0
	r := newTestResolver(func(pid uint32) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("gone")
		}
		return "revived", nil
	})

	assert.Equal(t, Sentinel, r.Name(9))
	assert.Equal(t, "revived", r.Name(9))
}

func TestCacheExpires(t *testing.T) {
	c := newTTLCache(10 * time.Millisecond)
	c.Set(1, "short-lived")

	name, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "short-lived", name)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(1)
	assert.False(t, ok)
}
