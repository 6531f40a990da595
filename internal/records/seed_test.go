package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func writeSeed(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644))
}

func TestSeedFillsEmptyCollections(t *testing.T) {
	seedDir := t.TempDir()
	writeSeed(t, seedDir, Courses, `[{"id":"c1","title":"Go"},{"id":"c2","title":"SQL"}]`)
	writeSeed(t, seedDir, Reviews, `[]`)

	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	seeded, err := Seed(ctx, backend, seedDir)
	require.NoError(t, err)
	assert.Equal(t, []string{Courses}, seeded)

	courses, err := NewCollection[course](backend, Courses).All(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "c2", courses[1].ID)

	// Existing records win over the seed.
	writeSeed(t, seedDir, Courses, `[{"id":"c9","title":"Other"}]`)
	seeded, err = Seed(ctx, backend, seedDir)
	require.NoError(t, err)
	assert.Empty(t, seeded)

	courses, err = NewCollection[course](backend, Courses).All(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestSeedRejectsMalformedFile(t *testing.T) {
	seedDir := t.TempDir()
	writeSeed(t, seedDir, Courses, `{"id":"c1"}`)

	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	_, err = Seed(context.Background(), backend, seedDir)
	assert.Error(t, err)
}

func TestSeedPostgres(t *testing.T) {
	backend := setupPostgres(t)
	ctx := context.Background()
	_, err := backend.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, Courses)
	require.NoError(t, err)

	seedDir := t.TempDir()
	writeSeed(t, seedDir, Courses, `[{"id":"c1","title":"Go"}]`)

	seeded, err := Seed(ctx, backend, seedDir)
	require.NoError(t, err)
	assert.Contains(t, seeded, Courses)

	courses, err := NewCollection[course](backend, Courses).All(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go", courses[0].Title)
}
