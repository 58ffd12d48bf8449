package workers

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-snesler/samnesler.com/internal/shell/store"
)

const postHello = `---
title: Hello
published: 2024-03-01T12:00:00Z
---

First post.
`

const postSecond = `---
title: Second
published: 2024-04-01T12:00:00Z
---

Second post.
`

func setupSyncStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunCycle_PopulatesStore(t *testing.T) {
	s := setupSyncStore(t)
	fsys := fstest.MapFS{
		"hello.md":  {Data: []byte(postHello)},
		"second.md": {Data: []byte(postSecond)},
	}

	sync := NewContentSync(s, fsys, DefaultContentSyncConfig(), nil)
	sync.RunCycle(context.Background())

	posts, err := s.ListPosts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Slug)
	assert.Equal(t, "hello", posts[1].Slug)
	assert.Contains(t, posts[1].HTML, "<p>First post.</p>")
}

func TestRunCycle_PrunesRemovedPosts(t *testing.T) {
	s := setupSyncStore(t)
	fsys := fstest.MapFS{
		"hello.md":  {Data: []byte(postHello)},
		"second.md": {Data: []byte(postSecond)},
	}

	sync := NewContentSync(s, fsys, DefaultContentSyncConfig(), nil)
	sync.RunCycle(context.Background())

	delete(fsys, "second.md")
	sync.RunCycle(context.Background())

	posts, err := s.ListPosts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Slug)
}

func TestRunCycle_SkipsUnparseableFiles(t *testing.T) {
	s := setupSyncStore(t)
	fsys := fstest.MapFS{
		"hello.md": {Data: []byte(postHello)},
		"bad.md":   {Data: []byte("---\npublished: 2024-01-01T00:00:00Z\n---\n\nno title\n")},
	}

	sync := NewContentSync(s, fsys, DefaultContentSyncConfig(), nil)
	sync.RunCycle(context.Background())

	posts, err := s.ListPosts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Slug)
}

func TestStartStop(t *testing.T) {
	s := setupSyncStore(t)
	fsys := fstest.MapFS{
		"hello.md": {Data: []byte(postHello)},
	}

	sync := NewContentSync(s, fsys, ContentSyncConfig{Interval: time.Hour}, nil)
	sync.Start()
	sync.Stop()

	posts, err := s.ListPosts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
