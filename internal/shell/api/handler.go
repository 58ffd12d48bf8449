// Package api provides the HTTP surface of the site: rendered blog pages,
// the RSS feed, and the JSON API backing the converter and playground pages.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/the-snesler/samnesler.com/internal/core/content"
	"github.com/the-snesler/samnesler.com/internal/core/converter"
	"github.com/the-snesler/samnesler.com/internal/core/feed"
	"github.com/the-snesler/samnesler.com/internal/core/playground"
	"github.com/the-snesler/samnesler.com/internal/core/transcode"
	"github.com/the-snesler/samnesler.com/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the site.
type Handler struct {
	store  store.Store
	conv   *converter.Orchestrator
	engine *playground.Engine
	site   feed.Site
	logger *slog.Logger
}

// NewHandler creates a new handler. The orchestrator services one-shot
// conversions; the engine holds the simulated playground state.
func NewHandler(s store.Store, conv *converter.Orchestrator, engine *playground.Engine, site feed.Site, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if conv == nil {
		conv = converter.NewOrchestrator()
	}
	if engine == nil {
		engine = playground.NewEngine()
	}
	return &Handler{
		store:  s,
		conv:   conv,
		engine: engine,
		site:   site,
		logger: l,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// Rendered pages and syndication
	r.Get("/", h.handleIndexPage)
	r.Get("/posts/{slug}", h.handlePostPage)
	r.Get("/feed.xml", h.handleFeed)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.jsonContentType)

		// Post routes
		r.Get("/posts", h.handleListPosts)
		r.Get("/posts/{slug}", h.handleGetPost)

		// Converter routes
		r.Post("/convert", h.handleConvert)
		r.Get("/convert/examples", h.handleConvertExamples)

		// Playground routes
		r.Route("/playground", func(r chi.Router) {
			r.Post("/images/pull", h.handlePullImage)
			r.Post("/images/build", h.handleBuildImage)
			r.Get("/images", h.handleListImages)

			r.Route("/containers", func(r chi.Router) {
				r.Post("/", h.handleRunContainer)
				r.Get("/", h.handleListContainers)
				r.Post("/{id}/start", h.handleStartContainer)
				r.Post("/{id}/stop", h.handleStopContainer)
				r.Delete("/{id}", h.handleRemoveContainer)
			})
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.store.ListPosts(r.Context(), store.ListOptions{Limit: 1}); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Post Handlers
// =============================================================================

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListVisiblePosts(r.Context(), store.DefaultListOptions())
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list posts", "internal_error")
		return
	}

	resp := ListPostsResponse{Posts: make([]PostResponse, 0, len(posts))}
	for i := range posts {
		p := postToResponse(&posts[i])
		p.HTML = "" // listing omits bodies
		resp.Posts = append(resp.Posts, p)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.store.GetPostBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "post not found", "not_found")
			return
		}
		h.logger.Error("failed to get post", "slug", slug, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get post", "internal_error")
		return
	}
	if !post.Visible() {
		h.writeError(w, http.StatusNotFound, "post not found", "not_found")
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post))
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListVisiblePosts(r.Context(), store.DefaultListOptions())
	if err != nil {
		h.logger.Error("failed to build feed", "error", err)
		http.Error(w, "failed to build feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(feed.BuildRSS(h.site, posts, time.Now().UTC())))
}

// =============================================================================
// Converter Handlers
// =============================================================================

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	output, err := h.conv.Convert(converter.Direction(req.Direction), req.Source)
	if err != nil {
		if errors.Is(err, converter.ErrUnknownDirection) {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		h.writeError(w, http.StatusUnprocessableEntity, conversionErrorMessage(err), "conversion_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ConvertResponse{
		Direction: req.Direction,
		Output:    output,
	})
}

func (h *Handler) handleConvertExamples(w http.ResponseWriter, r *http.Request) {
	resp := ExamplesResponse{
		Simple:  h.examplePair(converter.ExampleSimple),
		Complex: h.examplePair(converter.ExampleComplex),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// examplePair derives the command side of an example manifest so both
// editors can be preloaded consistently.
func (h *Handler) examplePair(manifest string) ExamplePairResponse {
	commands, err := h.conv.Convert(converter.DirectionManifestToCommands, manifest)
	if err != nil {
		h.logger.Error("failed to derive example commands", "error", err)
		commands = ""
	}
	return ExamplePairResponse{Manifest: manifest, Commands: commands}
}

// =============================================================================
// Playground Handlers
// =============================================================================

func (h *Handler) handlePullImage(w http.ResponseWriter, r *http.Request) {
	var req PullImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	img, err := h.engine.PullImage(req.Reference)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	h.writeJSON(w, http.StatusAccepted, imageToResponse(img))
}

func (h *Handler) handleBuildImage(w http.ResponseWriter, r *http.Request) {
	var req BuildImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	img, err := h.engine.BuildImage(req.Tag)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	h.writeJSON(w, http.StatusAccepted, imageToResponse(img))
}

func (h *Handler) handleListImages(w http.ResponseWriter, r *http.Request) {
	images := h.engine.ListImages()
	resp := ListImagesResponse{Images: make([]ImageResponse, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, imageToResponse(img))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRunContainer(w http.ResponseWriter, r *http.Request) {
	var req RunContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	c, err := h.engine.RunContainer(req.Image, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, playground.ErrImageNotFound):
			h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
		case errors.Is(err, playground.ErrImageNotReady), errors.Is(err, playground.ErrNameInUse):
			h.writeError(w, http.StatusConflict, err.Error(), "conflict")
		default:
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, containerToResponse(c))
}

func (h *Handler) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers := h.engine.ListContainers()
	resp := ListContainersResponse{Containers: make([]ContainerResponse, 0, len(containers))}
	for _, c := range containers {
		resp.Containers = append(resp.Containers, containerToResponse(c))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStartContainer(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.StartContainer(chi.URLParam(r, "id"))
	if err != nil {
		h.writeContainerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, containerToResponse(c))
}

func (h *Handler) handleStopContainer(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.StopContainer(chi.URLParam(r, "id"))
	if err != nil {
		h.writeContainerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, containerToResponse(c))
}

func (h *Handler) handleRemoveContainer(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RemoveContainer(chi.URLParam(r, "id")); err != nil {
		h.writeContainerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeContainerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playground.ErrContainerNotFound):
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, playground.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, err.Error(), "invalid_transition")
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error(), "internal_error")
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// conversionErrorMessage unwraps transcode errors into a message fit for
// the response body, falling back to a generic one.
func conversionErrorMessage(err error) string {
	var tErr *transcode.TranscodeError
	if errors.As(err, &tErr) {
		return tErr.Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "conversion failed"
}

func postToResponse(p *content.Post) PostResponse {
	resp := PostResponse{
		Slug:        p.Slug,
		Title:       p.Title,
		Summary:     p.Summary,
		Tags:        p.Tags,
		PublishedAt: p.PublishedAt,
		HTML:        p.HTML,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

func imageToResponse(img playground.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		Reference: img.Reference,
		Status:    string(img.Status),
		CreatedAt: img.CreatedAt,
	}
}

func containerToResponse(c playground.Container) ContainerResponse {
	return ContainerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Image:     c.ImageRef,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		StartedAt: c.StartedAt,
		StoppedAt: c.StoppedAt,
	}
}

func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
