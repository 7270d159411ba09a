package sessions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^\s*INSERT\s+INTO\s+sessions\s*\(session_token,\s*user_id,\s*expires\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	getQ    = `(?s)^\s*SELECT\s+session_token,\s*user_id,\s*expires\s+FROM\s+sessions\s+WHERE\s+session_token\s*=\s*\$1\s*$`
	joinQ   = `(?s)^\s*SELECT\s+s\.session_token,.*FROM\s+sessions\s+s\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*s\.user_id\s+WHERE\s+s\.session_token\s*=\s*\$1\s*$`
	updateQ = `(?s)^\s*UPDATE\s+sessions\s+SET\s+expires\s*=\s*COALESCE\(\$2,\s*expires\),\s*user_id\s*=\s*COALESCE\(\$3,\s*user_id\)\s+WHERE\s+session_token\s*=\s*\$1\s*$`
	deleteQ = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+session_token\s*=\s*\$1\s*$`
	sweepQ  = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+expires\s*<\s*\$1\s*$`
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectExec(insertQ).
		WithArgs("tok", "u-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), models.Session{SessionToken: "tok", UserID: "u-1", Expires: exp}))

	mock.ExpectExec(insertQ).WillReturnError(errors.New("fk"))
	err := repo.Create(context.Background(), models.Session{SessionToken: "tok", UserID: "u-x", Expires: exp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: fk")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectQuery(getQ).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"session_token", "user_id", "expires"}).AddRow("tok", "u-1", exp))

	got, err := repo.Get(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.Expires.Equal(exp))

	mock.ExpectQuery(getQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(getQ).WithArgs("tok").WillReturnError(errors.New("db err"))
	_, err = repo.Get(context.Background(), "tok")
	assert.ErrorContains(t, err, "db error: db err")
}

func TestGetWithUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	now := time.Now()
	mock.ExpectQuery(joinQ).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{
			"session_token", "user_id", "expires",
			"id", "name", "email", "image", "user_type", "favorite_ids", "created_at", "updated_at",
		}).AddRow("tok", "u-1", exp, "u-1", "Ann", "ann@example.com", nil, "User", "[]", now, now))

	s, u, err := repo.GetWithUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.SessionToken)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "[]", u.FavoriteIDs)

	mock.ExpectQuery(joinQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	s, u, err = repo.GetWithUser(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Nil(t, s)
	assert.Nil(t, u)
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(2 * time.Hour)
	mock.ExpectExec(updateQ).
		WithArgs("tok", exp, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), models.SessionPatch{SessionToken: "tok", Expires: models.Some(exp)}))

	mock.ExpectExec(updateQ).
		WithArgs("tok", nil, "u-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), models.SessionPatch{SessionToken: "tok", UserID: models.Some("u-2")}))

	mock.ExpectExec(updateQ).
		WithArgs("gone", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), models.SessionPatch{SessionToken: "gone"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Delete(context.Background(), "tok"))

	mock.ExpectExec(deleteQ).WithArgs("tok").WillReturnError(errors.New("boom"))
	assert.ErrorContains(t, repo.Delete(context.Background(), "tok"), "db error: boom")
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cutoff := time.Now()
	mock.ExpectExec(sweepQ).WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
