package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

type rejectedError struct{}

func (rejectedError) Error() string   { return "validation failed" }
func (rejectedError) Permanent() bool { return true }

// fakeRemote is an in-memory server. failOn makes the call for a given
// activity id return the mapped error.
type fakeRemote struct {
	items   map[uuid.UUID]activity.Activity
	order   []uuid.UUID
	failOn  map[uuid.UUID]error
	listErr error
	calls   []string
}

func newFakeRemote(seed ...activity.Activity) *fakeRemote {
	r := &fakeRemote{items: make(map[uuid.UUID]activity.Activity), failOn: make(map[uuid.UUID]error)}
	for _, a := range seed {
		r.items[a.ID] = a
		r.order = append(r.order, a.ID)
	}
	return r
}

func (r *fakeRemote) List(context.Context) ([]activity.Activity, error) {
	r.calls = append(r.calls, "list")
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]activity.Activity, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if a, ok := r.items[r.order[i]]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRemote) Create(_ context.Context, a activity.Activity) (activity.Activity, error) {
	r.calls = append(r.calls, "create")
	if err := r.failOn[a.ID]; err != nil {
		return activity.Activity{}, err
	}
	if _, ok := r.items[a.ID]; ok {
		return activity.Activity{}, activity.ErrDuplicateID
	}
	r.items[a.ID] = a
	r.order = append(r.order, a.ID)
	return a, nil
}

func (r *fakeRemote) Update(_ context.Context, id uuid.UUID, patch activity.Patch) (activity.Activity, error) {
	r.calls = append(r.calls, "update")
	if err := r.failOn[id]; err != nil {
		return activity.Activity{}, err
	}
	a, ok := r.items[id]
	if !ok {
		return activity.Activity{}, activity.ErrNotFound
	}
	a = patch.Apply(a)
	r.items[id] = a
	return a, nil
}

func (r *fakeRemote) Delete(_ context.Context, id uuid.UUID) error {
	r.calls = append(r.calls, "delete")
	if err := r.failOn[id]; err != nil {
		return err
	}
	if _, ok := r.items[id]; !ok {
		return activity.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func offlineCache(t *testing.T, seed ...activity.Activity) *Cache {
	t.Helper()
	c := New(nil)
	require.NoError(t, c.Replace(context.Background(), seed))
	c.SetOffline(true)
	return c
}

func TestSync_ReplaysAndRefreshes(t *testing.T) {
	ctx := context.Background()
	rent := newActivity("Rent", activity.CategoryFinance)
	remote := newFakeRemote(rent)
	c := offlineCache(t, rent)

	train := newActivity("Train", activity.CategoryTravel)
	require.NoError(t, c.Put(ctx, train))
	_, err := c.TogglePaid(ctx, rent.ID)
	require.NoError(t, err)

	result, err := c.Sync(ctx, remote)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Applied: 2, Refreshed: true}, result)
	assert.Equal(t, []string{"create", "update", "list"}, remote.calls)
	assert.True(t, remote.items[rent.ID].IsPaid)
	assert.Empty(t, c.Pending())
	assert.Equal(t, []string{"Train", "Rent"}, names(c.Activities()))
}

func TestSync_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c := offlineCache(t)

	train := newActivity("Train", activity.CategoryTravel)
	require.NoError(t, c.Put(ctx, train))
	_, err := c.TogglePaid(ctx, train.ID)
	require.NoError(t, err)

	// The server already has both changes, e.g. from an interrupted sync.
	_, err = remote.Create(ctx, train)
	require.NoError(t, err)
	paid := true
	_, err = remote.Update(ctx, train.ID, activity.Patch{IsPaid: &paid})
	require.NoError(t, err)

	result, err := c.Sync(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.True(t, remote.items[train.ID].IsPaid)
	assert.Len(t, remote.items, 1)
}

func TestSync_DropsStaleAndRejectedChanges(t *testing.T) {
	ctx := context.Background()
	gone := newActivity("Gone", activity.CategoryLeisure)
	bad := newActivity("Bad", activity.CategoryHealth)
	remote := newFakeRemote(bad)
	remote.failOn[bad.ID] = rejectedError{}
	c := offlineCache(t, gone, bad)

	_, err := c.TogglePaid(ctx, gone.ID)
	require.NoError(t, err)
	require.NoError(t, c.Remove(ctx, gone.ID))
	_, err = c.TogglePaid(ctx, bad.ID)
	require.NoError(t, err)

	result, err := c.Sync(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Dropped: 3, Refreshed: true}, result)
	assert.Empty(t, c.Pending())
}

func TestSync_StopsOnTransportError(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c := offlineCache(t)

	first := newActivity("First", activity.CategoryFamily)
	second := newActivity("Second", activity.CategoryFamily)
	third := newActivity("Third", activity.CategoryFamily)
	require.NoError(t, c.Put(ctx, first))
	require.NoError(t, c.Put(ctx, second))
	require.NoError(t, c.Put(ctx, third))

	remote.failOn[second.ID] = errors.New("connection refused")

	result, err := c.Sync(ctx, remote)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, SyncResult{Applied: 1, Remaining: 2}, result)
	assert.NotContains(t, remote.calls, "list")

	pending := c.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ActivityID)
	assert.Equal(t, third.ID, pending[1].ActivityID)

	// Once the server recovers the rest goes through.
	delete(remote.failOn, second.ID)
	result, err = c.Sync(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Applied: 2, Refreshed: true}, result)
	assert.Len(t, remote.items, 3)
}

func TestSync_RefreshFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	rent := newActivity("Rent", activity.CategoryFinance)
	remote := newFakeRemote(rent)
	remote.listErr = errors.New("server error")
	c := offlineCache(t, rent)

	result, err := c.Sync(ctx, remote)
	assert.ErrorContains(t, err, "server error")
	assert.False(t, result.Refreshed)
	assert.Equal(t, []string{"Rent"}, names(c.Activities()))
}

func TestSync_EmptyQueueRefreshes(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(newActivity("Rent", activity.CategoryFinance))
	c := New(nil)

	result, err := c.Sync(ctx, remote)
	require.NoError(t, err)
	assert.True(t, result.Refreshed)
	assert.Equal(t, []string{"Rent"}, names(c.Activities()))
}
