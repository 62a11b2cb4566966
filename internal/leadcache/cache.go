// Package leadcache implements the bounded recency cache holding qualified
// leads during a mining session. Capacity is enforced on every insert:
// when an insert would exceed it, the single least-recently-touched entry
// is evicted. Get and Set both count as a touch.
//
// The cache is not safe for concurrent use; the mining controller is its
// only writer and confines access to the iteration loop.
package leadcache

import (
	"container/list"
	"fmt"

	"github.com/leadscape/leadminer/pkg/types"
)

// DefaultCapacity bounds a session's qualified-lead memory when the
// configuration does not say otherwise.
const DefaultCapacity = 500

// Pair is one cache entry in recency order, oldest first. The ordered
// slice form is what snapshots persist, so a restored cache evicts in the
// same order a live one would have.
type Pair struct {
	Key  string     `json:"key"`
	Lead types.Lead `json:"lead"`
}

type entry struct {
	key  string
	lead types.Lead
}

// Cache is a fixed-capacity key→lead store with least-recently-used
// eviction. The list front is the most recently touched entry.
type Cache struct {
	capacity int
	ll       *list.List
	index    map[string]*list.Element
}

// New creates a cache with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the lead stored under key and marks it most recently used.
// A miss has no side effect.
func (c *Cache) Get(key string) (types.Lead, bool) {
	el, ok := c.index[key]
	if !ok {
		return types.Lead{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).lead, true
}

// Set inserts or replaces the lead under key and marks it most recently
// used. If the insert pushes the cache past capacity, the least recently
// touched entry is evicted. The evicted key and true are returned when an
// eviction happened.
func (c *Cache) Set(key string, lead types.Lead) (evicted string, didEvict bool) {
	if el, ok := c.index[key]; ok {
		el.Value.(*entry).lead = lead
		c.ll.MoveToFront(el)
		return "", false
	}

	el := c.ll.PushFront(&entry{key: key, lead: lead})
	c.index[key] = el

	if c.ll.Len() <= c.capacity {
		return "", false
	}

	tail := c.ll.Back()
	if tail == nil {
		return "", false
	}
	oldest := tail.Value.(*entry).key
	c.ll.Remove(tail)
	delete(c.index, oldest)
	return oldest, true
}

// Has reports whether key is present without touching recency.
func (c *Cache) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Delete removes the entry under key, reporting whether it existed.
func (c *Cache) Delete(key string) bool {
	el, ok := c.index[key]
	if !ok {
		return false
	}
	c.ll.Remove(el)
	delete(c.index, key)
	return true
}

// Clear removes all entries, keeping the capacity.
func (c *Cache) Clear() {
	c.ll.Init()
	c.index = make(map[string]*list.Element, c.capacity)
}

// Len returns the current entry count, always ≤ Cap.
func (c *Cache) Len() int {
	return c.ll.Len()
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// ToPairs returns the entries in recency order, least recently used
// first, so that replaying them through FromPairs rebuilds the same
// eviction order.
func (c *Cache) ToPairs() []Pair {
	pairs := make([]Pair, 0, c.ll.Len())
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		pairs = append(pairs, Pair{Key: e.key, Lead: e.lead})
	}
	return pairs
}

// FromPairs rebuilds a cache from an ordered snapshot produced by
// ToPairs. Pairs beyond the capacity evict in the usual LRU order, so a
// snapshot from a larger cache degrades gracefully.
func FromPairs(pairs []Pair, capacity int) (*Cache, error) {
	c := New(capacity)
	for _, p := range pairs {
		if p.Key == "" {
			return nil, fmt.Errorf("snapshot pair has empty key")
		}
		c.Set(p.Key, p.Lead)
	}
	return c, nil
}

// Leads returns the stored leads in recency order, least recent first.
func (c *Cache) Leads() []types.Lead {
	leads := make([]types.Lead, 0, c.ll.Len())
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		leads = append(leads, el.Value.(*entry).lead)
	}
	return leads
}
