// Package cache keeps the client-side working set of activities, persists
// it between runs and queues mutations made while offline.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

// ErrNotCached is returned when a mutation targets an id the cache does not hold.
var ErrNotCached = errors.New("activity not in local cache")

// Snapshot is the persisted form of the cache.
type Snapshot struct {
	Activities []activity.Activity `json:"activities"`
	Pending    []Mutation          `json:"pending"`
	SyncedAt   *time.Time          `json:"synced_at,omitempty"`
}

// Persister stores snapshots. Load returns an empty snapshot when nothing
// has been saved yet.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Cache is the in-memory working set. Mutations are applied optimistically
// and are never rolled back; in offline mode each one is also queued for
// replay by Sync.
type Cache struct {
	mu        sync.RWMutex
	items     []activity.Activity
	pending   []Mutation
	syncedAt  *time.Time
	offline   bool
	persister Persister
	now       func() time.Time
}

// New returns an empty cache. A nil persister keeps state in memory only.
func New(persister Persister) *Cache {
	return &Cache{persister: persister, now: time.Now}
}

// SetOffline switches queueing of mutations on or off.
func (c *Cache) SetOffline(offline bool) {
	c.mu.Lock()
	c.offline = offline
	c.mu.Unlock()
}

// Load replaces the in-memory state with the persisted snapshot.
func (c *Cache) Load(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}

	snap, err := c.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	c.mu.Lock()
	c.items = snap.Activities
	c.pending = snap.Pending
	c.syncedAt = snap.SyncedAt
	c.mu.Unlock()
	return nil
}

// Replace mirrors a fresh server listing. Queued mutations are kept.
func (c *Cache) Replace(ctx context.Context, list []activity.Activity) error {
	now := c.now().UTC()

	c.mu.Lock()
	c.items = slices.Clone(list)
	c.syncedAt = &now
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return c.save(ctx, snap)
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Activities returns a copy of the working set in display order.
func (c *Cache) Activities() []activity.Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// ByCategory returns the cached activities of one category.
func (c *Cache) ByCategory(category activity.Category) []activity.Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]activity.Activity, 0, len(c.items))
	for _, a := range c.items {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Get returns one cached activity.
func (c *Cache) Get(id uuid.UUID) (activity.Activity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	return activity.Activity{}, false
}

// Pending returns the queued mutations in replay order.
func (c *Cache) Pending() []Mutation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.pending)
}

// Put inserts a new activity at the front or replaces the cached copy.
// Offline, a new activity is queued as a create.
func (c *Cache) Put(ctx context.Context, a activity.Activity) error {
	c.mu.Lock()
	if i := c.indexLocked(a.ID); i >= 0 {
		c.items[i] = a
	} else {
		c.items = append([]activity.Activity{a}, c.items...)
		if c.offline {
			created := a
			c.enqueueLocked(Mutation{Kind: KindCreate, ActivityID: a.ID, Activity: &created})
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return c.save(ctx, snap)
}

// Patch merges fields into a cached activity and refreshes updated_at.
func (c *Cache) Patch(ctx context.Context, id uuid.UUID, patch activity.Patch) (activity.Activity, error) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return activity.Activity{}, ErrNotCached
	}

	updated := patch.Apply(c.items[i])
	updated.UpdatedAt = c.now().UTC()
	c.items[i] = updated
	if c.offline {
		queued := patch
		c.enqueueLocked(Mutation{Kind: KindUpdate, ActivityID: id, Patch: &queued})
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return updated, c.save(ctx, snap)
}

// TogglePaid flips is_paid locally. Offline it is queued as an update that
// sets the resulting value, so replaying it twice is harmless.
func (c *Cache) TogglePaid(ctx context.Context, id uuid.UUID) (activity.Activity, error) {
	c.mu.RLock()
	i := c.indexLocked(id)
	var paid bool
	if i >= 0 {
		paid = !c.items[i].IsPaid
	}
	c.mu.RUnlock()

	if i < 0 {
		return activity.Activity{}, ErrNotCached
	}
	return c.Patch(ctx, id, activity.Patch{IsPaid: &paid})
}

// Remove drops an activity from the working set.
func (c *Cache) Remove(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}

	c.items = slices.Delete(c.items, i, i+1)
	if c.offline {
		c.enqueueLocked(Mutation{Kind: KindDelete, ActivityID: id})
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return c.save(ctx, snap)
}

func (c *Cache) indexLocked(id uuid.UUID) int {
	return slices.IndexFunc(c.items, func(a activity.Activity) bool { return a.ID == id })
}

func (c *Cache) enqueueLocked(m Mutation) {
	m.ID = uuid.New()
	m.QueuedAt = c.now().UTC()
	c.pending = append(c.pending, m)
}

func (c *Cache) snapshotLocked() Snapshot {
	snap := Snapshot{
		Activities: slices.Clone(c.items),
		Pending:    slices.Clone(c.pending),
	}
	if c.syncedAt != nil {
		t := *c.syncedAt
		snap.SyncedAt = &t
	}
	if snap.Activities == nil {
		snap.Activities = []activity.Activity{}
	}
	if snap.Pending == nil {
		snap.Pending = []Mutation{}
	}
	return snap
}

func (c *Cache) save(ctx context.Context, snap Snapshot) error {
	if c.persister == nil {
		return nil
	}
	if err := c.persister.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to persist cache: %w", err)
	}
	return nil
}
