package cleanblog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect captures what differs between the supported SQL backends.
type dialect struct {
	name       string
	driver     string
	schema     []string
	isUnique   func(error) bool
	rebindArgs bool
	// lockUsers serializes first-user detection. Empty when the backend
	// already serializes writers.
	lockUsers string
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    name TEXT NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0
)`,
		`CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    subtitle TEXT NOT NULL,
    date TEXT NOT NULL,
    body TEXT NOT NULL,
    img_url TEXT NOT NULL,
    author_id INTEGER NOT NULL REFERENCES users(id)
)`,
		`CREATE TABLE IF NOT EXISTS comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id)
)`,
	},
	isUnique: func(err error) bool {
		return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: "pgx",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(100) NOT NULL UNIQUE,
    password VARCHAR(250) NOT NULL,
    name VARCHAR(1000) NOT NULL,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE
)`,
		`CREATE TABLE IF NOT EXISTS posts (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(250) NOT NULL UNIQUE,
    subtitle VARCHAR(250) NOT NULL,
    date VARCHAR(250) NOT NULL,
    body TEXT NOT NULL,
    img_url VARCHAR(250) NOT NULL,
    author_id BIGINT NOT NULL REFERENCES users(id)
)`,
		`CREATE TABLE IF NOT EXISTS comments (
    id BIGSERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(id)
)`,
	},
	isUnique: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
	rebindArgs: true,
	lockUsers:  `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`,
}

// rebind rewrites '?' placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	if !d.rebindArgs {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// boolArg converts a Go bool into the column representation of the dialect.
func (d dialect) boolArg(v bool) any {
	if d.rebindArgs {
		return v
	}
	if v {
		return 1
	}
	return 0
}

// parseDatabaseURI picks a dialect and driver DSN for uri. An empty uri selects
// the default sqlite file.
func parseDatabaseURI(uri string) (dialect, string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return sqliteDialect, sqliteDSN(DefaultDatabasePath), nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		if _, err := url.Parse(uri); err != nil {
			return dialect{}, "", fmt.Errorf("parse postgres uri: %w", err)
		}
		return postgresDialect, uri, nil
	case strings.HasPrefix(uri, "sqlite:///"):
		path := strings.TrimPrefix(uri, "sqlite:///")
		if path == "" {
			return dialect{}, "", fmt.Errorf("sqlite uri %q has no path", uri)
		}
		return sqliteDialect, sqliteDSN(path), nil
	case strings.Contains(uri, "://"):
		return dialect{}, "", fmt.Errorf("unsupported database uri scheme in %q", uri)
	default:
		return sqliteDialect, sqliteDSN(uri), nil
	}
}

// sqliteDSN applies the connection pragmas to every pooled connection.
func sqliteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
}

// sqlitePath returns the filesystem path inside a DSN built by sqliteDSN.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
