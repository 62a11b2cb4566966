// internal/leadcache/cache_test.go
package leadcache

import (
	"fmt"
	"testing"

	"github.com/leadscape/leadminer/pkg/types"
)

func lead(url string) types.Lead {
	return types.Lead{ProfileURL: url, Name: "Lead " + url}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3)

	c.Set("a", lead("a"))
	c.Set("b", lead("b"))
	c.Set("c", lead("c"))

	evicted, didEvict := c.Set("d", lead("d"))
	if !didEvict {
		t.Fatalf("expected eviction when inserting beyond capacity")
	}
	if evicted != "a" {
		t.Errorf("expected %q evicted, got %q", "a", evicted)
	}
	if c.Len() != 3 {
		t.Errorf("expected size 3, got %d", c.Len())
	}
	for _, key := range []string{"b", "c", "d"} {
		if !c.Has(key) {
			t.Errorf("expected key %q to remain", key)
		}
	}
}

func TestCacheGetTouchesRecency(t *testing.T) {
	c := New(3)
	c.Set("a", lead("a"))
	c.Set("b", lead("b"))
	c.Set("c", lead("c"))

	// Touch "a" so "b" becomes the oldest.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for %q", "a")
	}

	evicted, didEvict := c.Set("d", lead("d"))
	if !didEvict || evicted != "b" {
		t.Errorf("expected %q evicted after touching %q, got %q (evicted=%v)", "b", "a", evicted, didEvict)
	}
}

func TestCacheSizeNeverExceedsCapacity(t *testing.T) {
	const capacity = 5
	c := New(capacity)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("lead-%d", i)
		c.Set(key, lead(key))
		// Interleave gets to shuffle recency order.
		if i%3 == 0 {
			c.Get(fmt.Sprintf("lead-%d", i/2))
		}
		if c.Len() > capacity {
			t.Fatalf("size %d exceeded capacity %d after insert %d", c.Len(), capacity, i)
		}
	}
}

func TestCacheReplaceKeepsSize(t *testing.T) {
	c := New(3)
	c.Set("a", lead("a"))
	c.Set("b", lead("b"))

	updated := lead("a")
	updated.Headline = "Updated headline"
	if _, didEvict := c.Set("a", updated); didEvict {
		t.Errorf("replacing an existing key must not evict")
	}

	if c.Len() != 2 {
		t.Errorf("expected size 2 after replace, got %d", c.Len())
	}
	got, ok := c.Get("a")
	if !ok {
		t.Fatalf("expected key %q present", "a")
	}
	if got.Headline != "Updated headline" {
		t.Errorf("expected replaced value, got headline %q", got.Headline)
	}
}

func TestCacheGetMissHasNoSideEffect(t *testing.T) {
	c := New(2)
	c.Set("a", lead("a"))

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
	if c.Len() != 1 {
		t.Errorf("miss must not change size, got %d", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(2)
	c.Set("a", lead("a"))

	if !c.Delete("a") {
		t.Errorf("expected delete to report existing entry")
	}
	if c.Delete("a") {
		t.Errorf("expected second delete to report absence")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got size %d", c.Len())
	}
}

func TestCachePairsRoundTrip(t *testing.T) {
	c := New(4)
	c.Set("a", lead("a"))
	c.Set("b", lead("b"))
	c.Set("c", lead("c"))
	c.Get("a") // recency order is now b, c, a

	pairs := c.ToPairs()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	restored, err := FromPairs(pairs, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restoredPairs := restored.ToPairs()
	for i := range pairs {
		if restoredPairs[i].Key != pairs[i].Key {
			t.Errorf("pair %d: expected key %q, got %q", i, pairs[i].Key, restoredPairs[i].Key)
		}
		if restoredPairs[i].Lead != pairs[i].Lead {
			t.Errorf("pair %d: lead mismatch for key %q", i, pairs[i].Key)
		}
	}

	// The restored cache must evict in the same order the live one would:
	// "b" has gone longest untouched.
	restored.Set("d", lead("d"))
	evicted, didEvict := restored.Set("e", lead("e"))
	if !didEvict || evicted != "b" {
		t.Errorf("expected restored cache to evict %q first, got %q (evicted=%v)", "b", evicted, didEvict)
	}
}

func TestFromPairsRejectsEmptyKey(t *testing.T) {
	_, err := FromPairs([]Pair{{Key: "", Lead: lead("x")}}, 2)
	if err == nil {
		t.Errorf("expected error for empty key in snapshot")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(2)
	c.Set("a", lead("a"))
	c.Set("b", lead("b"))
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Len())
	}
	if c.Cap() != 2 {
		t.Errorf("clear must keep capacity, got %d", c.Cap())
	}
	c.Set("c", lead("c"))
	if !c.Has("c") {
		t.Errorf("expected cache usable after clear")
	}
}
