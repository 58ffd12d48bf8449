package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/the-snesler/samnesler.com/internal/core/content"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Post Operations
// =============================================================================

// postRow represents a post row in the database.
type postRow struct {
	Slug        string  `db:"slug"`
	Title       string  `db:"title"`
	Summary     string  `db:"summary"`
	Tags        *string `db:"tags"`
	PublishedAt string  `db:"published_at"`
	Draft       bool    `db:"draft"`
	Markdown    string  `db:"markdown"`
	HTML        string  `db:"html"`
	UpdatedAt   string  `db:"updated_at"`
}

func (s *SQLiteStore) UpsertPost(ctx context.Context, post *content.Post) error {
	return upsertPost(ctx, s.db, post)
}

func (s *SQLiteStore) GetPostBySlug(ctx context.Context, slug string) (*content.Post, error) {
	return getPostBySlug(ctx, s.db, slug)
}

func (s *SQLiteStore) ListPosts(ctx context.Context, opts ListOptions) ([]content.Post, error) {
	return listPosts(ctx, s.db, opts)
}

func (s *SQLiteStore) ListVisiblePosts(ctx context.Context, opts ListOptions) ([]content.Post, error) {
	return listVisiblePosts(ctx, s.db, opts)
}

func (s *SQLiteStore) DeletePostsNotIn(ctx context.Context, slugs []string) (int64, error) {
	return deletePostsNotIn(ctx, s.db, slugs)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) UpsertPost(ctx context.Context, post *content.Post) error {
	return upsertPost(ctx, s.tx, post)
}

func (s *txSQLiteStore) GetPostBySlug(ctx context.Context, slug string) (*content.Post, error) {
	return getPostBySlug(ctx, s.tx, slug)
}

func (s *txSQLiteStore) ListPosts(ctx context.Context, opts ListOptions) ([]content.Post, error) {
	return listPosts(ctx, s.tx, opts)
}

func (s *txSQLiteStore) ListVisiblePosts(ctx context.Context, opts ListOptions) ([]content.Post, error) {
	return listVisiblePosts(ctx, s.tx, opts)
}

func (s *txSQLiteStore) DeletePostsNotIn(ctx context.Context, slugs []string) (int64, error) {
	return deletePostsNotIn(ctx, s.tx, slugs)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

func upsertPost(ctx context.Context, exec executor, post *content.Post) error {
	tagsJSON, err := json.Marshal(post.Tags)
	if err != nil {
		return NewStoreError("UpsertPost", "post", post.Slug, "failed to serialize tags", ErrInvalidData)
	}

	query := `
		INSERT INTO posts (
			slug, title, summary, tags, published_at, draft, markdown, html, updated_at
		) VALUES (
			:slug, :title, :summary, :tags, :published_at, :draft, :markdown, :html, :updated_at
		)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			tags = excluded.tags,
			published_at = excluded.published_at,
			draft = excluded.draft,
			markdown = excluded.markdown,
			html = excluded.html,
			updated_at = excluded.updated_at`

	row := map[string]any{
		"slug":         post.Slug,
		"title":        post.Title,
		"summary":      post.Summary,
		"tags":         string(tagsJSON),
		"published_at": post.PublishedAt.UTC().Format(time.RFC3339),
		"draft":        post.Draft,
		"markdown":     post.Markdown,
		"html":         post.HTML,
		"updated_at":   time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("UpsertPost", "post", post.Slug, err.Error(), err)
	}

	return nil
}

func getPostBySlug(ctx context.Context, exec executor, slug string) (*content.Post, error) {
	query := `SELECT * FROM posts WHERE slug = ?`

	var row postRow
	err := exec.GetContext(ctx, &row, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetPostBySlug", "post", slug, "post not found", ErrNotFound)
		}
		return nil, NewStoreError("GetPostBySlug", "post", slug, err.Error(), err)
	}

	return rowToPost(&row)
}

func listPosts(ctx context.Context, exec executor, opts ListOptions) ([]content.Post, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM posts ORDER BY published_at DESC, slug ASC LIMIT ? OFFSET ?`

	var rows []postRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListPosts", "post", "", err.Error(), err)
	}

	return rowsToPosts(rows)
}

func listVisiblePosts(ctx context.Context, exec executor, opts ListOptions) ([]content.Post, error) {
	opts = opts.Normalize()
	query := `
		SELECT * FROM posts
		WHERE draft = 0 AND published_at <= ?
		ORDER BY published_at DESC, slug ASC
		LIMIT ? OFFSET ?`

	now := time.Now().UTC().Format(time.RFC3339)
	var rows []postRow
	err := exec.SelectContext(ctx, &rows, query, now, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListVisiblePosts", "post", "", err.Error(), err)
	}

	return rowsToPosts(rows)
}

// deletePostsNotIn removes posts whose slug is absent from the given set.
// Used by the sync worker after a content directory scan. An empty set
// deletes everything.
func deletePostsNotIn(ctx context.Context, exec executor, slugs []string) (int64, error) {
	query := `DELETE FROM posts`
	args := []any{}

	if len(slugs) > 0 {
		placeholders := strings.Repeat("?,", len(slugs))
		placeholders = placeholders[:len(placeholders)-1]
		query += ` WHERE slug NOT IN (` + placeholders + `)`
		for _, s := range slugs {
			args = append(args, s)
		}
	}

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, NewStoreError("DeletePostsNotIn", "post", "", err.Error(), err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// =============================================================================
// Row Conversion Functions
// =============================================================================

// rowToPost converts a database row to a content.Post.
func rowToPost(row *postRow) (*content.Post, error) {
	publishedAt, _ := time.Parse(time.RFC3339, row.PublishedAt)

	var tags []string
	if row.Tags != nil && *row.Tags != "" && *row.Tags != "null" {
		if err := json.Unmarshal([]byte(*row.Tags), &tags); err != nil {
			return nil, NewStoreError("rowToPost", "post", row.Slug, "failed to parse tags", ErrInvalidData)
		}
	}

	return &content.Post{
		Slug:        row.Slug,
		Title:       row.Title,
		Summary:     row.Summary,
		Tags:        tags,
		PublishedAt: publishedAt,
		Draft:       row.Draft,
		Markdown:    row.Markdown,
		HTML:        row.HTML,
	}, nil
}

func rowsToPosts(rows []postRow) ([]content.Post, error) {
	posts := make([]content.Post, 0, len(rows))
	for _, row := range rows {
		post, err := rowToPost(&row)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}
