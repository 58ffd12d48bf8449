package content

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePost = `---
title: Hello, Compose
summary: Notes on multi-service manifests.
tags: [docker, teaching]
published: 2024-03-01T10:00:00Z
---

# Hello

Some **bold** text and an image:

![diagram](/images/diagram.png)
`

func TestParsePost(t *testing.T) {
	post, err := ParsePost("hello-compose.md", []byte(samplePost))
	require.NoError(t, err)

	assert.Equal(t, "hello-compose", post.Slug)
	assert.Equal(t, "Hello, Compose", post.Title)
	assert.Equal(t, "Notes on multi-service manifests.", post.Summary)
	assert.Equal(t, []string{"docker", "teaching"}, post.Tags)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), post.PublishedAt)
	assert.Contains(t, post.HTML, "<strong>bold</strong>")
	assert.Contains(t, post.HTML, "<img")
}

func TestParsePost_SlugFromFrontmatter(t *testing.T) {
	source := "---\ntitle: T\nslug: custom-slug\n---\nbody\n"
	post, err := ParsePost("file.md", []byte(source))
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", post.Slug)
}

func TestParsePost_MissingTitle(t *testing.T) {
	_, err := ParsePost("x.md", []byte("---\nsummary: no title\n---\nbody\n"))
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestVisible(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.True(t, Post{PublishedAt: past}.Visible())
	assert.False(t, Post{PublishedAt: past, Draft: true}.Visible())
	assert.False(t, Post{PublishedAt: future}.Visible())
}

func TestLoadDir_SortsNewestFirstAndSkipsBadFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"old.md":         {Data: []byte("---\ntitle: Old\npublished: 2023-01-01T00:00:00Z\n---\nold\n")},
		"new.md":         {Data: []byte("---\ntitle: New\npublished: 2024-01-01T00:00:00Z\n---\nnew\n")},
		"bad.md":         {Data: []byte("---\nsummary: missing title\n---\nnope\n")},
		"not-a-post.txt": {Data: []byte("ignored")},
	}

	posts, errs := LoadDir(fsys)
	require.Len(t, posts, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, "new", posts[0].Slug)
	assert.Equal(t, "old", posts[1].Slug)
}

func TestFilterVisible(t *testing.T) {
	posts := []Post{
		{Slug: "a", PublishedAt: time.Now().Add(-time.Hour)},
		{Slug: "b", PublishedAt: time.Now().Add(-time.Hour), Draft: true},
	}
	visible := FilterVisible(posts)
	require.Len(t, visible, 1)
	assert.Equal(t, "a", visible[0].Slug)
}
