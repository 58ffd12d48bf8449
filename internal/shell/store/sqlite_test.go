package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-snesler/samnesler.com/internal/core/content"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testPost(slug string, publishedAt time.Time) *content.Post {
	return &content.Post{
		Slug:        slug,
		Title:       "Post " + slug,
		Summary:     "About " + slug,
		Tags:        []string{"go", "docker"},
		PublishedAt: publishedAt,
		Markdown:    "# Hello\n\nBody of " + slug,
		HTML:        "<h1>Hello</h1>\n<p>Body of " + slug + "</p>",
	}
}

// =============================================================================
// Post CRUD Tests
// =============================================================================

func TestUpsertPost_InsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	post := testPost("first", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.UpsertPost(ctx, post))

	got, err := store.GetPostBySlug(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "Post first", got.Title)
	assert.Equal(t, []string{"go", "docker"}, got.Tags)
	assert.Equal(t, post.PublishedAt, got.PublishedAt)
	assert.Equal(t, post.HTML, got.HTML)
	assert.False(t, got.Draft)
}

func TestUpsertPost_UpdatesExisting(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	post := testPost("first", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.UpsertPost(ctx, post))

	post.Title = "Revised Title"
	post.HTML = "<p>revised</p>"
	require.NoError(t, store.UpsertPost(ctx, post))

	got, err := store.GetPostBySlug(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "Revised Title", got.Title)
	assert.Equal(t, "<p>revised</p>", got.HTML)

	posts, err := store.ListPosts(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestGetPostBySlug_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetPostBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "GetPostBySlug", storeErr.Op)
	assert.Equal(t, "missing", storeErr.ID)
}

func TestListPosts_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testPost("older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testPost("newer", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.UpsertPost(ctx, older))
	require.NoError(t, store.UpsertPost(ctx, newer))

	posts, err := store.ListPosts(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Slug)
	assert.Equal(t, "older", posts[1].Slug)
}

func TestListPosts_Pagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, slug := range []string{"a", "b", "c"} {
		require.NoError(t, store.UpsertPost(ctx, testPost(slug, base.Add(time.Duration(i)*time.Hour))))
	}

	posts, err := store.ListPosts(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Slug)
	assert.Equal(t, "a", posts[1].Slug)
}

func TestListVisiblePosts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	visible := testPost("visible", time.Now().UTC().Add(-time.Hour))
	future := testPost("future", time.Now().UTC().Add(24*time.Hour))
	draft := testPost("draft", time.Now().UTC().Add(-time.Hour))
	draft.Draft = true

	require.NoError(t, store.UpsertPost(ctx, visible))
	require.NoError(t, store.UpsertPost(ctx, future))
	require.NoError(t, store.UpsertPost(ctx, draft))

	posts, err := store.ListVisiblePosts(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "visible", posts[0].Slug)
}

func TestDeletePostsNotIn(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, slug := range []string{"keep", "drop-a", "drop-b"} {
		require.NoError(t, store.UpsertPost(ctx, testPost(slug, base)))
	}

	deleted, err := store.DeletePostsNotIn(ctx, []string{"keep"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	posts, err := store.ListPosts(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "keep", posts[0].Slug)
}

func TestDeletePostsNotIn_EmptySetDeletesAll(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPost(ctx, testPost("only", time.Now().UTC())))

	deleted, err := store.DeletePostsNotIn(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.UpsertPost(ctx, testPost("tx-post", time.Now().UTC()))
	})
	require.NoError(t, err)

	_, err = store.GetPostBySlug(ctx, "tx-post")
	assert.NoError(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	wantErr := assert.AnError
	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.UpsertPost(ctx, testPost("tx-post", time.Now().UTC())); err != nil {
			return err
		}
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, err = store.GetPostBySlug(ctx, "tx-post")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOptions_Normalize(t *testing.T) {
	opts := ListOptions{Limit: -5, Offset: -1}.Normalize()
	assert.Equal(t, 100, opts.Limit)
	assert.Equal(t, 0, opts.Offset)

	opts = ListOptions{Limit: 5000}.Normalize()
	assert.Equal(t, 1000, opts.Limit)
}
