package backup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
	// corrupt flips the stored bytes of this key on read.
	corrupt string
}

func (b *memoryBucket) PutObject(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if key == b.failOn {
		return errors.New("bucket unavailable")
	}
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *memoryBucket) GetObject(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	if key == b.corrupt {
		return append([]byte("x"), data...), nil
	}
	return data, nil
}

func seedBackend(t *testing.T) records.Backend {
	t.Helper()
	backend, err := records.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	users := records.NewCollection[models.User](backend, records.Users)
	require.NoError(t, users.Update(context.Background(), func(items []models.User) ([]models.User, error) {
		return append(items, models.User{ID: 1, Name: "Alice", Email: "a@x.com", Role: models.UserRoleUser}), nil
	}))
	return backend
}

func TestSnapshotRun(t *testing.T) {
	backend := seedBackend(t)
	bucket := &memoryBucket{objects: map[string][]byte{}}

	s := NewSnapshotter(backend, bucket, "snap-secret", zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	manifest, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20240501T120000Z", manifest.ID)
	require.Len(t, manifest.Entries, len(records.All))
	assert.Len(t, bucket.objects, len(records.All)+1)

	raw, ok := bucket.objects["snapshots/20240501T120000Z/manifest.json"]
	require.True(t, ok)
	var stored Manifest
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, manifest.Entries, stored.Entries)

	for _, entry := range manifest.Entries {
		data := bucket.objects[entry.Key]
		assert.NoError(t, Verify("snap-secret", entry, data), entry.Collection)
		assert.ErrorIs(t, Verify("other-secret", entry, data), ErrBadSignature)
	}

	users := manifest.Entries[0]
	assert.Equal(t, records.Users, users.Collection)
	assert.Contains(t, string(bucket.objects[users.Key]), "Alice")
	assert.ErrorIs(t, Verify("snap-secret", users, []byte("[]")), ErrBadSignature)
}

func TestSnapshotRunStopsOnUploadFailure(t *testing.T) {
	backend := seedBackend(t)
	bucket := &memoryBucket{objects: map[string][]byte{}}

	s := NewSnapshotter(backend, bucket, "snap-secret", zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	bucket.failOn = "snapshots/20240501T120000Z/reviews.json"

	_, err := s.Run(context.Background())
	require.Error(t, err)
	_, ok := bucket.objects["snapshots/20240501T120000Z/manifest.json"]
	assert.False(t, ok)
}

func TestSnapshotRunRejectsCorruptUpload(t *testing.T) {
	backend := seedBackend(t)
	bucket := &memoryBucket{objects: map[string][]byte{}, corrupt: "snapshots/20240501T120000Z/users.json"}

	s := NewSnapshotter(backend, bucket, "snap-secret", zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrBadSignature)
	_, ok := bucket.objects["snapshots/20240501T120000Z/manifest.json"]
	assert.False(t, ok)
}
