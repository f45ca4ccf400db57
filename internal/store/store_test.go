package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE settings (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "scheme", []byte("https")))

	v, err := r.Get(ctx, "scheme")
	require.NoError(t, err)
	require.Equal(t, []byte("https"), v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "crop", []byte("original")))
	require.NoError(t, r.Set(ctx, "crop", []byte("thumb")))

	v, err := r.Get(ctx, "crop")
	require.NoError(t, err)
	require.Equal(t, []byte("thumb"), v)
}

func TestList_ReturnsAllPairs(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{0xAA}))
	require.NoError(t, r.Set(ctx, "b", []byte{0xBB, 0xCC}))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte{0xAA}, m["a"])
	assert.Equal(t, []byte{0xBB, 0xCC}, m["b"])
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestClear_RemovesAllKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{0x01}))
	require.NoError(t, r.Set(ctx, "b", []byte{0x02}))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	db, err := InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db)
	require.NoError(t, r.Set(context.Background(), "k", []byte("v")))
}
