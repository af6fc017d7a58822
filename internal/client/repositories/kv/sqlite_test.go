package kv

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:kvtest?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS storage (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
DELETE FROM storage;
`)
	require.NoError(t, err)
	return db
}

func TestGet_MissingKeyIsNotAnError(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))

	v, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_OverwritesExistingValue(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.Set(ctx, "k", []byte("one")))
	require.NoError(t, repo.Set(ctx, "k", []byte("two")))

	v, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.Set(ctx, "k", []byte("v")))
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "k"))

	v, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestClear_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.Set(ctx, "a", []byte("1")))
	require.NoError(t, repo.Set(ctx, "b", []byte("2")))
	require.NoError(t, repo.Clear(ctx))

	for _, k := range []string{"a", "b"} {
		v, err := repo.Get(ctx, k)
		require.NoError(t, err)
		require.Nil(t, v)
	}
}

type item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))
	col := NewCollection[item](repo, "items")

	// Simulates a restart: what was written must come back identical,
	// timestamps included.
	written := []item{
		{ID: "1", Title: "first", CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "2", Title: "second", CreatedAt: time.Date(2025, 3, 2, 11, 30, 0, 0, time.UTC)},
	}
	require.NoError(t, col.Save(ctx, written))

	read, err := col.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, written, read)
}

func TestCollection_LoadEmptyWhenAbsent(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	col := NewCollection[item](repo, "missing")

	items, err := col.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}
