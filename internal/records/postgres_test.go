package records

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *PostgresBackend {
	t.Helper()

	dsn := os.Getenv("COURSEMARKET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("COURSEMARKET_TEST_POSTGRES_DSN not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx := context.Background()
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY, data JSONB NOT NULL DEFAULT '[]'::jsonb, updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM collections WHERE name = 'items'`)
	require.NoError(t, err)

	return NewPostgresBackend(pool)
}

func TestPostgresBackend_RoundTrip(t *testing.T) {
	coll := NewCollection[item](setupPostgres(t), "items")
	ctx := context.Background()

	items, err := coll.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	for i := 0; i < 3; i++ {
		require.NoError(t, coll.Update(ctx, func(items []item) ([]item, error) {
			return append(items, item{ID: NextID(items), Name: "row"}), nil
		}))
	}

	items, err = coll.All(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 3, items[2].ID)
}
