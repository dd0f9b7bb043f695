package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

func sampleSnapshot() Snapshot {
	desc := "monthly"
	a := newActivity("Rent", activity.CategoryFinance)
	a.Description = &desc
	paid := true
	synced := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)

	return Snapshot{
		Activities: []activity.Activity{a},
		Pending: []Mutation{{
			ID:         uuid.New(),
			Kind:       KindUpdate,
			ActivityID: a.ID,
			Patch:      &activity.Patch{IsPaid: &paid},
			QueuedAt:   synced,
		}},
		SyncedAt: &synced,
	}
}

func assertSameSnapshot(t *testing.T, want, got Snapshot) {
	t.Helper()

	require.Len(t, got.Activities, len(want.Activities))
	for i := range want.Activities {
		assert.Equal(t, want.Activities[i].ID, got.Activities[i].ID)
		assert.Equal(t, want.Activities[i].Name, got.Activities[i].Name)
		assert.Equal(t, want.Activities[i].Date, got.Activities[i].Date)
		assert.Equal(t, want.Activities[i].DescriptionOr(""), got.Activities[i].DescriptionOr(""))
	}

	require.Len(t, got.Pending, len(want.Pending))
	for i := range want.Pending {
		assert.Equal(t, want.Pending[i].ID, got.Pending[i].ID)
		assert.Equal(t, want.Pending[i].Kind, got.Pending[i].Kind)
		require.NotNil(t, got.Pending[i].Patch)
		assert.Equal(t, *want.Pending[i].Patch.IsPaid, *got.Pending[i].Patch.IsPaid)
		assert.Nil(t, got.Pending[i].Patch.Name)
	}

	require.NotNil(t, got.SyncedAt)
	assert.True(t, want.SyncedAt.Equal(*got.SyncedAt))
}

func TestFilePersister(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	p := NewFilePersister(path)

	empty, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Activities)
	assert.Nil(t, empty.SyncedAt)

	want := sampleSnapshot()
	require.NoError(t, p.Save(ctx, want))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFilePersister_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFilePersister(path).Load(context.Background())
	assert.ErrorContains(t, err, "failed to decode snapshot")
}

func TestRedisPersister(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	p := NewRedisPersister(client, "agenda:cache")

	empty, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Pending)

	want := sampleSnapshot()
	require.NoError(t, p.Save(ctx, want))
	assert.True(t, mr.Exists("agenda:cache"))
	assert.Zero(t, mr.TTL("agenda:cache"))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, want, got)
}
