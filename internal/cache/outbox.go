package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

// MutationKind names a queued change.
type MutationKind string

const (
	KindCreate MutationKind = "create"
	KindUpdate MutationKind = "update"
	KindDelete MutationKind = "delete"
)

// Mutation is a change made offline, waiting to be replayed on the server.
type Mutation struct {
	ID         uuid.UUID          `json:"id"`
	Kind       MutationKind       `json:"kind"`
	ActivityID uuid.UUID          `json:"activity_id"`
	Activity   *activity.Activity `json:"activity,omitempty"`
	Patch      *activity.Patch    `json:"patch,omitempty"`
	QueuedAt   time.Time          `json:"queued_at"`
}

// Remote is the server the outbox replays against.
type Remote interface {
	List(ctx context.Context) ([]activity.Activity, error)
	Create(ctx context.Context, a activity.Activity) (activity.Activity, error)
	Update(ctx context.Context, id uuid.UUID, patch activity.Patch) (activity.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SyncResult reports what a Sync did.
type SyncResult struct {
	Applied   int
	Dropped   int
	Remaining int
	Refreshed bool
}

// Sync replays queued mutations in order. A create whose id already exists
// counts as applied; an update or delete of an id the server no longer has,
// or a change the server rejects as invalid, is dropped. Any other failure
// stops the replay and keeps the rest of the queue. Once the queue is empty
// the working set is refreshed from the server.
func (c *Cache) Sync(ctx context.Context, remote Remote) (SyncResult, error) {
	queued := c.Pending()

	var (
		result  SyncResult
		done    int
		syncErr error
	)

	for _, m := range queued {
		applied, err := replay(ctx, remote, m)
		if err != nil {
			syncErr = fmt.Errorf("failed to replay %s of %s: %w", m.Kind, m.ActivityID, err)
			break
		}
		if applied {
			result.Applied++
		} else {
			result.Dropped++
		}
		done++
	}

	c.mu.Lock()
	// Mutations queued while the replay ran stay behind the unreplayed ones.
	c.pending = append(c.pending[:0:0], c.pending[done:]...)
	result.Remaining = len(c.pending)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.save(ctx, snap); err != nil && syncErr == nil {
		syncErr = err
	}
	if syncErr != nil || result.Remaining > 0 {
		return result, syncErr
	}

	list, err := remote.List(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to refresh after sync: %w", err)
	}
	if err := c.Replace(ctx, list); err != nil {
		return result, err
	}
	result.Refreshed = true

	return result, nil
}

// replay sends one mutation. It returns false when the mutation was dropped.
func replay(ctx context.Context, remote Remote, m Mutation) (bool, error) {
	var err error
	switch m.Kind {
	case KindCreate:
		if m.Activity == nil {
			return false, nil
		}
		_, err = remote.Create(ctx, *m.Activity)
		if errors.Is(err, activity.ErrDuplicateID) {
			return true, nil
		}
	case KindUpdate:
		if m.Patch == nil {
			return false, nil
		}
		_, err = remote.Update(ctx, m.ActivityID, *m.Patch)
	case KindDelete:
		err = remote.Delete(ctx, m.ActivityID)
	default:
		return false, nil
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, activity.ErrNotFound), isRejected(err):
		return false, nil
	default:
		return false, err
	}
}

// isRejected reports whether the server refused the change as invalid, so
// retrying it can never succeed.
func isRejected(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}
