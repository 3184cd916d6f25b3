package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(filepath.Join(t.TempDir(), "feed.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.migrate())

	counts, err := db.TableCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(Tables))
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
	assert.False(t, db.HasData(context.Background()))
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v, err := db.GetMetadata(ctx, "import_id")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetMetadata(ctx, "import_id", "a"))
	require.NoError(t, db.SetMetadata(ctx, "import_id", "b"))
	v, err = db.GetMetadata(ctx, "import_id")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.ExecContext(ctx, `INSERT INTO agency (agency_id, agency_name, agency_url, agency_timezone)
		VALUES ('mt', 'Metro Transit', 'https://metrotransit.org', 'America/Chicago')`)
	require.NoError(t, err)
	require.NoError(t, db.SetMetadata(ctx, "source", "feed.zip"))
	assert.True(t, db.HasData(ctx))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, Clear(ctx, tx))
	require.NoError(t, tx.Commit())

	assert.False(t, db.HasData(ctx))
	v, err := db.GetMetadata(ctx, "source")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO routes (route_id, agency_id, route_type, route_color, route_text_color)
		VALUES ('r1', 'nobody', 3, 'ffffff', '000000')`)
	assert.Error(t, err)
}
