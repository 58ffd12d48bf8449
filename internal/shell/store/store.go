package store

import (
	"context"

	"github.com/the-snesler/samnesler.com/internal/core/content"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for blog posts. Posts are
// authored as markdown files on disk; the store holds the rendered copies
// the site serves from, refreshed by the content sync worker.
type Store interface {
	// Post operations
	UpsertPost(ctx context.Context, post *content.Post) error
	GetPostBySlug(ctx context.Context, slug string) (*content.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]content.Post, error)
	ListVisiblePosts(ctx context.Context, opts ListOptions) ([]content.Post, error)
	DeletePostsNotIn(ctx context.Context, slugs []string) (int64, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
