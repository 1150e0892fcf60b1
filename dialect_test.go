package cleanblog

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabaseURI(t *testing.T) {
	tests := []struct {
		uri     string
		dialect string
		dsn     string
		wantErr bool
	}{
		{uri: "", dialect: "sqlite", dsn: sqliteDSN(DefaultDatabasePath)},
		{uri: "sqlite:///posts.db", dialect: "sqlite", dsn: sqliteDSN("posts.db")},
		{uri: "sqlite:////var/lib/blog/posts.db", dialect: "sqlite", dsn: sqliteDSN("/var/lib/blog/posts.db")},
		{uri: "blog.db", dialect: "sqlite", dsn: sqliteDSN("blog.db")},
		{uri: "postgres://u:p@localhost:5432/blog", dialect: "postgres", dsn: "postgres://u:p@localhost:5432/blog"},
		{uri: "postgresql://localhost/blog?sslmode=disable", dialect: "postgres", dsn: "postgresql://localhost/blog?sslmode=disable"},
		{uri: "sqlite:///", wantErr: true},
		{uri: "mysql://localhost/blog", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			d, dsn, err := parseDatabaseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d.name)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestSqlitePath(t *testing.T) {
	assert.Equal(t, "data/posts.db", sqlitePath(sqliteDSN("data/posts.db")))
	assert.Equal(t, "/abs/blog.db", sqlitePath(sqliteDSN("/abs/blog.db")))
}

func TestRebind(t *testing.T) {
	q := `UPDATE posts SET title = ?, body = ? WHERE id = ?`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `UPDATE posts SET title = $1, body = $2 WHERE id = $3`, postgresDialect.rebind(q))
}

func TestBoolArg(t *testing.T) {
	assert.Equal(t, 1, sqliteDialect.boolArg(true))
	assert.Equal(t, 0, sqliteDialect.boolArg(false))
	assert.Equal(t, true, postgresDialect.boolArg(true))
}

func TestIsUnique(t *testing.T) {
	assert.True(t, postgresDialect.isUnique(&pgconn.PgError{Code: "23505"}))
	assert.False(t, postgresDialect.isUnique(&pgconn.PgError{Code: "23503"}))
	assert.False(t, postgresDialect.isUnique(sql.ErrNoRows))
	assert.False(t, sqliteDialect.isUnique(nil))
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db, d: postgresDialect}, mock
}

func TestPostgresCreateUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE email = $1`)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password, name, is_admin) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("a@x.com", "digest", "A", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	u, err := s.CreateUser(context.Background(), "A", "a@x.com", "digest")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.True(t, u.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUserEmailTaken(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE email = $1`)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), "A", "a@x.com", "digest")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreatePostDuplicateTitle(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts (title, subtitle, date, body, img_url, author_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)).
		WithArgs("T", "S", "March 04, 2024", "B", "I", int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreatePost(context.Background(), Post{
		Title: "T", Subtitle: "S", Date: "March 04, 2024", Body: "B", ImgURL: "I", AuthorID: 1,
	})
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUserLockFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`)).
		WillReturnError(&pgconn.PgError{Code: "55P03"})
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), "A", "a@x.com", "digest")
	assert.ErrorContains(t, err, "lock users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeletePost(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM comments WHERE post_id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeletePost(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeletePostMissingRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM comments WHERE post_id = $1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.DeletePost(context.Background(), 9), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetAdmin(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_admin = $1 WHERE email = $2`)).
		WithArgs(true, "b@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetAdmin(context.Background(), "b@x.com", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
