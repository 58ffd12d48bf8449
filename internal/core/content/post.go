// Package content loads blog posts from markdown files with YAML
// frontmatter and renders them to HTML.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrInvalidFrontmatter = errors.New("invalid post frontmatter")
	ErrMissingTitle       = errors.New("post must have a title")
)

// =============================================================================
// Post
// =============================================================================

// Post is one blog entry.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Draft       bool      `json:"draft,omitempty"`
	Markdown    string    `json:"-"`
	HTML        string    `json:"html,omitempty"`
}

// Visible reports whether the post should appear on the site and in feeds.
func (p Post) Visible() bool {
	return !p.Draft && !p.PublishedAt.After(time.Now())
}

// postMeta is the frontmatter schema.
type postMeta struct {
	Title     string    `yaml:"title"`
	Summary   string    `yaml:"summary"`
	Slug      string    `yaml:"slug"`
	Tags      []string  `yaml:"tags"`
	Published time.Time `yaml:"published"`
	Draft     bool      `yaml:"draft"`
}

// =============================================================================
// Rendering
// =============================================================================

// engine renders post bodies. Raw HTML passes through here; the feed layer
// sanitizes before syndication.
var engine = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// RenderMarkdown converts a markdown body to HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// Loading
// =============================================================================

// ParsePost parses one markdown document into a Post. The slug falls back to
// the file name (without extension) when the frontmatter omits it.
func ParsePost(name string, source []byte) (Post, error) {
	var meta postMeta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Post{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidFrontmatter, err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return Post{}, fmt.Errorf("%s: %w", name, ErrMissingTitle)
	}

	slug := strings.TrimSpace(meta.Slug)
	if slug == "" {
		slug = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	rendered, err := RenderMarkdown(string(body))
	if err != nil {
		return Post{}, err
	}

	return Post{
		Slug:        slug,
		Title:       strings.TrimSpace(meta.Title),
		Summary:     strings.TrimSpace(meta.Summary),
		Tags:        meta.Tags,
		PublishedAt: meta.Published,
		Draft:       meta.Draft,
		Markdown:    string(body),
		HTML:        rendered,
	}, nil
}

// LoadDir loads all markdown posts from a filesystem, newest first.
// Files that fail to parse are skipped and reported in the returned error
// slice; the good posts still load.
func LoadDir(fsys fs.FS) ([]Post, []error) {
	var posts []Post
	var errs []error

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, []error{err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		source, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		post, err := ParsePost(entry.Name(), source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		posts = append(posts, post)
	}

	SortByDate(posts)
	return posts, errs
}

// SortByDate orders posts newest first, slug as tiebreak.
func SortByDate(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}

// FilterVisible returns only posts that should appear publicly.
func FilterVisible(posts []Post) []Post {
	visible := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Visible() {
			visible = append(visible, p)
		}
	}
	return visible
}
