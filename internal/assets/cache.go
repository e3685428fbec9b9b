// Package assets materializes opaque content references into local files the
// preview can play: a populate-once cache, a concurrent prefetcher, duration
// probing, tool detection and HTTP range serving of cached bytes.
package assets

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

// Availability is the lifecycle state of one ref in the cache.
type Availability string

const (
	// AvailabilityPending covers both "never seen" and "fetch in flight".
	AvailabilityPending Availability = "pending"
	AvailabilityReady   Availability = "ready"
	AvailabilityFailed  Availability = "failed"
)

// Entry is the cache's record for one content ref. Once an entry reaches
// ready or failed it never changes again; eviction is the only way back to
// pending.
type Entry struct {
	Ref          string       `json:"ref"`
	Availability Availability `json:"availability"`
	Path         string       `json:"path,omitempty"`
	Size         int64        `json:"size,omitempty"`
	Duration     float64      `json:"duration,omitempty"`
	Error        string       `json:"error,omitempty"`
	ResolvedAt   time.Time    `json:"resolved_at,omitempty"`
}

// Cache maps refs to local files. Reads are cheap and lock-shared; the
// prefetcher is the only writer in normal operation. A ref resolves exactly
// once: later writes for the same ref are refused, so a reader never sees an
// entry change under it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	index   Index
	logger  *slog.Logger
}

func NewCache(logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		logger:  logger,
	}
}

// SetIndex attaches persistence before first use. Resolved entries are
// written through and Evict clears the persisted row.
func (c *Cache) SetIndex(idx Index) {
	c.index = idx
}

// Warm seeds the cache from the index. Ready entries whose backing file
// still exists come back with their probed metadata; everything else is
// cleared from the index, so a restart retries failures and vanished
// files instead of trusting stale rows.
func (c *Cache) Warm(ctx context.Context) (int, error) {
	if c.index == nil {
		return 0, nil
	}
	persisted, err := c.index.Load(ctx)
	if err != nil {
		return 0, err
	}

	var keep []Entry
	for _, e := range persisted {
		if e.Availability == AvailabilityReady {
			if _, statErr := os.Stat(e.Path); statErr == nil {
				keep = append(keep, e)
				continue
			}
		}
		if err := c.index.Delete(ctx, e.Ref); err != nil {
			c.logger.Warn("asset index delete failed", "ref", e.Ref, "error", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	warmed := 0
	for _, e := range keep {
		if _, ok := c.entries[e.Ref]; ok {
			continue
		}
		c.entries[e.Ref] = e
		warmed++
	}
	return warmed, nil
}

// Lookup returns the entry for ref, if any write ever happened for it.
func (c *Cache) Lookup(ref string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[ref]
	return e, ok
}

// Availability never fails: unknown refs are pending.
func (c *Cache) Availability(ref string) Availability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[ref]; ok {
		return e.Availability
	}
	return AvailabilityPending
}

// Ready reports whether ref has playable local bytes. This is the gate the
// frame resolver consults; pending and failed refs resolve as blank slots.
func (c *Cache) Ready(ref string) bool {
	return c.Availability(ref) == AvailabilityReady
}

// Duration reports the probed duration of a ready ref, when one was
// measured. The session uses this to size drops without a hint.
func (c *Cache) Duration(ref string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[ref]
	if !ok || e.Availability != AvailabilityReady || e.Duration <= 0 {
		return 0, false
	}
	return e.Duration, true
}

// StoreReady resolves ref to a local file. Returns false when the ref was
// already resolved; the existing entry wins.
func (c *Cache) StoreReady(ref, path string, size int64, duration float64) bool {
	return c.store(Entry{
		Ref:          ref,
		Availability: AvailabilityReady,
		Path:         path,
		Size:         size,
		Duration:     duration,
		ResolvedAt:   time.Now(),
	})
}

// StoreFailed resolves ref to a terminal failure. Returns false when the
// ref was already resolved.
func (c *Cache) StoreFailed(ref string, cause error) bool {
	e := Entry{
		Ref:          ref,
		Availability: AvailabilityFailed,
		ResolvedAt:   time.Now(),
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	return c.store(e)
}

func (c *Cache) store(e Entry) bool {
	c.mu.Lock()
	if existing, ok := c.entries[e.Ref]; ok && existing.Availability != AvailabilityPending {
		c.mu.Unlock()
		c.logger.Debug("cache write refused, ref already resolved",
			"ref", e.Ref, "existing", string(existing.Availability))
		return false
	}
	c.entries[e.Ref] = e
	c.mu.Unlock()

	// Persisted outside the lock; the map check above already decided the
	// winner for this ref.
	if c.index != nil {
		if err := c.index.Put(context.Background(), e); err != nil {
			c.logger.Warn("asset index write failed", "ref", e.Ref, "error", err)
		}
	}
	return true
}

// Evict forgets a ref entirely, returning it to pending. The next prefetch
// resolves it fresh.
func (c *Cache) Evict(ref string) {
	c.mu.Lock()
	delete(c.entries, ref)
	c.mu.Unlock()

	if c.index != nil {
		if err := c.index.Delete(context.Background(), ref); err != nil {
			c.logger.Warn("asset index delete failed", "ref", ref, "error", err)
		}
	}
}

// Entries lists every resolved or in-flight ref, ordered by ref for stable
// status output.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
