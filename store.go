package cleanblog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = sql.ErrNoRows
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrDuplicateTitle is returned when a post title is already used by another post.
	ErrDuplicateTitle = errors.New("post title already exists")
)

// Store wraps the relational database holding users, posts, and comments.
type Store struct {
	db *sql.DB
	d  dialect
}

// NewStore opens the database named by uri and creates the schema if absent.
// An empty uri opens DefaultDatabasePath with sqlite; postgres:// URIs use pgx.
func NewStore(uri string) (*Store, error) {
	d, dsn, err := parseDatabaseURI(uri)
	if err != nil {
		return nil, err
	}
	if d.name == sqliteDialect.name {
		if err := os.MkdirAll(filepath.Dir(sqlitePath(dsn)), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == sqliteDialect.name {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	}
	s := &Store{db: db, d: d}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.name, err)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect names the backend in use ("sqlite" or "postgres").
func (s *Store) Dialect() string {
	return s.d.name
}

func (s *Store) ensureSchema() error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a new account. The first account ever created is an admin;
// concurrent first registrations yield at most one admin.
func (s *Store) CreateUser(ctx context.Context, name, email, digest string) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	if s.d.lockUsers != "" {
		if _, err := tx.ExecContext(ctx, s.d.lockUsers); err != nil {
			return User{}, fmt.Errorf("lock users: %w", err)
		}
	}

	var existing int
	err = tx.QueryRowContext(ctx, s.d.rebind(`SELECT 1 FROM users WHERE email = ?`), email).Scan(&existing)
	switch {
	case err == nil:
		return User{}, ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return User{}, fmt.Errorf("check email: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}
	u := User{Name: name, Email: email, Password: digest, IsAdmin: count == 0}

	err = tx.QueryRowContext(ctx,
		s.d.rebind(`INSERT INTO users (email, password, name, is_admin) VALUES (?, ?, ?, ?) RETURNING id`),
		u.Email, u.Password, u.Name, s.d.boolArg(u.IsAdmin)).Scan(&u.ID)
	if err != nil {
		if s.d.isUnique(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns the account with the given primary key.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	u := User{ID: id}
	err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT email, password, name, is_admin FROM users WHERE id = ?`), id).
		Scan(&u.Email, &u.Password, &u.Name, &u.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns the account registered with email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u := User{Email: email}
	err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT id, password, name, is_admin FROM users WHERE email = ?`), email).
		Scan(&u.ID, &u.Password, &u.Name, &u.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// SetAdmin grants or revokes post moderation for the account registered with email.
func (s *Store) SetAdmin(ctx context.Context, email string, admin bool) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`UPDATE users SET is_admin = ? WHERE email = ?`), s.d.boolArg(admin), email)
	if err != nil {
		return err
	}
	return expectRow(res)
}

const postColumns = `p.id, p.title, p.subtitle, p.date, p.body, p.img_url, p.author_id, COALESCE(u.name, '')`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Date, &p.Body, &p.ImgURL, &p.AuthorID, &p.AuthorName)
	return p, err
}

// CreatePost inserts p and returns it with its new ID.
func (s *Store) CreatePost(ctx context.Context, p Post) (Post, error) {
	err := s.db.QueryRowContext(ctx,
		s.d.rebind(`INSERT INTO posts (title, subtitle, date, body, img_url, author_id) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		p.Title, p.Subtitle, p.Date, p.Body, p.ImgURL, p.AuthorID).Scan(&p.ID)
	if err != nil {
		if s.d.isUnique(err) {
			return Post{}, ErrDuplicateTitle
		}
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// GetPost returns a single post by ID.
func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	row := s.db.QueryRowContext(ctx,
		s.d.rebind(`SELECT `+postColumns+` FROM posts p LEFT JOIN users u ON u.id = p.author_id WHERE p.id = ?`), id)
	return scanPost(row)
}

// ListPosts returns every post. Order is by ID only so the listing is stable.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts p LEFT JOIN users u ON u.id = p.author_id ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdatePost rewrites the editable fields of a post. Date and author are left alone.
func (s *Store) UpdatePost(ctx context.Context, id int64, f PostForm) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(`UPDATE posts SET title = ?, subtitle = ?, body = ?, img_url = ? WHERE id = ?`),
		f.Title, f.Subtitle, f.Body, f.ImgURL, id)
	if err != nil {
		if s.d.isUnique(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update post: %w", err)
	}
	return expectRow(res)
}

// DeletePost removes a post and its comments in one transaction.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Databases created without the foreign key still get their comments removed.
	if _, err := tx.ExecContext(ctx, s.d.rebind(`DELETE FROM comments WHERE post_id = ?`), id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.d.rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateComment inserts c and returns it with its new ID.
func (s *Store) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	err := s.db.QueryRowContext(ctx,
		s.d.rebind(`INSERT INTO comments (text, post_id, user_id) VALUES (?, ?, ?) RETURNING id`),
		c.Text, c.PostID, c.UserID).Scan(&c.ID)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// GetComment returns a single comment by ID.
func (s *Store) GetComment(ctx context.Context, id int64) (Comment, error) {
	c := Comment{ID: id}
	err := s.db.QueryRowContext(ctx,
		s.d.rebind(`SELECT c.text, c.post_id, c.user_id, COALESCE(u.name, '') FROM comments c LEFT JOIN users u ON u.id = c.user_id WHERE c.id = ?`), id).
		Scan(&c.Text, &c.PostID, &c.UserID, &c.UserName)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns every comment regardless of post.
func (s *Store) ListComments(ctx context.Context) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.text, c.post_id, c.user_id, COALESCE(u.name, '') FROM comments c LEFT JOIN users u ON u.id = c.user_id ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.PostID, &c.UserID, &c.UserName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment by ID.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
