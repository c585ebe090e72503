package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// newMockAdapter registers a connection named "mock" backed by sqlmock
// with exact statement matching.
func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	a := New(WithOpener(func(types.ConnectionConfig) (*sql.DB, error) { return db, nil }))
	require.NoError(t, a.RegisterConnection(context.Background(),
		types.ConnectionConfig{Identity: "mock"}, testCollections()))

	t.Cleanup(func() {
		mock.ExpectClose()
		assert.NoError(t, a.Teardown("mock"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return a, mock
}

func TestUpdateStatementOrder(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT rowid AS "rowid" FROM "todos" WHERE "status" = ?`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"rowid"}).AddRow(int64(4)).AddRow(int64(9)))
	mock.ExpectExec(`UPDATE "todos" SET "status" = ? WHERE "status" = ?`).
		WithArgs("done", "pending").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT * FROM "todos" WHERE rowid IN (SELECT value FROM json_each(?))`).
		WithArgs("[4,9]").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "done"}).
			AddRow(int64(4), "done", int64(0)).
			AddRow(int64(9), "done", int64(1)))
	mock.ExpectCommit()

	rows, err := a.Update(context.Background(), "mock", "todos",
		types.Criteria{Where: types.Where{"status": "pending"}},
		types.Record{"status": "done"},
	)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{
		{"id": int64(4), "status": "done", "done": false},
		{"id": int64(9), "status": "done", "done": true},
	}, rows)
}

func TestUpdateWithoutMatchSkipsUpdate(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT rowid AS "rowid" FROM "todos" WHERE "status" = ?`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"rowid"}))
	mock.ExpectCommit()

	rows, err := a.Update(context.Background(), "mock", "todos",
		types.Criteria{Where: types.Where{"status": "pending"}},
		types.Record{"status": "done"},
	)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "todos" ("done", "title") VALUES (?, ?)`).
		WithArgs(int64(1), "x").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err := a.Create(context.Background(), "mock", "todos", types.Record{"title": "x", "done": true})
	assert.ErrorContains(t, err, "disk I/O error")
	assert.False(t, types.IsUnique(err))
}

func TestCreateReadsBackByRowid(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "todos" ("title") VALUES (?)`).
		WithArgs("x").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(`SELECT * FROM "todos" WHERE rowid = ?`).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(12), "x"))
	mock.ExpectCommit()

	rec, err := a.Create(context.Background(), "mock", "todos", types.Record{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"id": int64(12), "title": "x"}, rec)
}

func TestDestroySnapshotsBeforeDelete(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT * FROM "todos" WHERE "id" = ?`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(3), "gone"))
	mock.ExpectExec(`DELETE FROM "todos" WHERE "id" = ?`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows, err := a.Destroy(context.Background(), "mock", "todos", types.Criteria{Where: types.Where{"id": 3}})
	require.NoError(t, err)
	assert.Equal(t, []types.Record{{"id": int64(3), "title": "gone"}}, rows)
}

func TestDefineRunsInOneTransaction(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "users" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "email" TEXT, "name" TEXT)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX "users_email_unique" ON "users" ("email")`).
		WillReturnError(errors.New("index exists"))
	mock.ExpectRollback()

	err := a.Define(context.Background(), "mock", "users", testCollections()["user"].Attributes)
	assert.ErrorContains(t, err, "index exists")
}
