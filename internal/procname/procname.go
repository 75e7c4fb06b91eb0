// Package procname resolves PIDs to process names for display.
package procname

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Sentinel is the display name used when a PID cannot be resolved.
const Sentinel = "unknown"

// lookup is swappable in tests.
type lookupFunc func(pid uint32) (string, error)

type Resolver struct {
	lookup lookupFunc
	cache  *ttlCache
}

func NewResolver() *Resolver {
	return &Resolver{
		lookup: gopsutilLookup,
		cache:  newTTLCache(30 * time.Second),
	}
}

// Name resolves pid to a process name. It never fails: lookup misses return
// the sentinel. Successful lookups are cached so a refresh loop does not
// re-stat /proc every second for long-lived processes.
func (r *Resolver) Name(pid uint32) string {
	if name, ok := r.cache.Get(pid); ok {
		return name
	}
	name, err := r.lookup(pid)
	if err != nil || name == "" {
		return Sentinel
	}
	r.cache.Set(pid, name)
	return name
}

func gopsutilLookup(pid uint32) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return p.Name()
}

// ---- tiny TTL cache ----

type ttlCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[uint32]cacheItem
}

type cacheItem struct {
	name    string
	expires time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, m: map[uint32]cacheItem{}}
}

func (c *ttlCache) Get(pid uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.m[pid]
	if !ok {
		return "", false
	}
	if time.Now().After(it.expires) {
		delete(c.m, pid)
		return "", false
	}
	return it.name, true
}

func (c *ttlCache) Set(pid uint32, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[pid] = cacheItem{name: name, expires: time.Now().Add(c.ttl)}
}
