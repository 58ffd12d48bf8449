package api

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/the-snesler/samnesler.com/internal/core/content"
	"github.com/the-snesler/samnesler.com/internal/shell/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"displayDate": func(t time.Time) string { return t.Format("January 2, 2006") },
}).ParseFS(templateFS, "templates/*.html"))

// =============================================================================
// Page View Models
// =============================================================================

type indexView struct {
	SiteTitle string
	Posts     []content.Post
}

type postView struct {
	SiteTitle string
	Post      content.Post
	Body      template.HTML
}

// =============================================================================
// Page Handlers
// =============================================================================

func (h *Handler) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListVisiblePosts(r.Context(), store.DefaultListOptions())
	if err != nil {
		h.logger.Error("failed to render index", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderPage(w, "index.html", indexView{
		SiteTitle: h.site.Title,
		Posts:     posts,
	})
}

func (h *Handler) handlePostPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.store.GetPostBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("failed to render post", "slug", slug, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !post.Visible() {
		http.NotFound(w, r)
		return
	}

	h.renderPage(w, "post.html", postView{
		SiteTitle: h.site.Title,
		Post:      *post,
		// Post HTML is rendered from our own markdown files, not user input.
		Body: template.HTML(post.HTML),
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to execute template", "template", name, "error", err)
	}
}
