package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT UNIQUE, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func TestWrapUniqueViolation(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO users (email, name) VALUES ('a@x', 'a')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (email, name) VALUES ('a@x', 'b')`)
	require.Error(t, err)

	wrapped := Wrap(fmt.Errorf("inserting: %w", err))

	var e *types.Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, types.CodeUnique, e.Code)
	assert.Contains(t, e.Message, "UNIQUE constraint failed")
	assert.Empty(t, e.InvalidAttributes)
	assert.True(t, errors.Is(wrapped, err), "native error must stay in the chain")
	assert.Equal(t, sqlite3.SQLITE_CONSTRAINT, Code(wrapped))
}

func TestWrapNotNullViolationIsConstraint(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO users (email) VALUES ('b@x')`)
	require.Error(t, err)
	assert.True(t, types.IsUnique(Wrap(err)))
}

func TestWrapPassthrough(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`SELECT * FROM nowhere`)
	require.Error(t, err)
	assert.Same(t, err, Wrap(err))

	plain := errors.New("boom")
	assert.Same(t, plain, Wrap(plain))
	assert.Nil(t, Wrap(nil))
	assert.Equal(t, 0, Code(plain))
}

func TestWrapIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO users (email, name) VALUES ('c@x', 'c')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (email, name) VALUES ('c@x', 'c')`)
	require.Error(t, err)

	once := Wrap(err)
	assert.Same(t, once, Wrap(once))
}
