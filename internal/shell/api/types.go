package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// ConvertRequest is the request body for a one-shot conversion.
type ConvertRequest struct {
	Direction string `json:"direction"`
	Source    string `json:"source"`
}

// PullImageRequest is the request body for simulating an image pull.
type PullImageRequest struct {
	Reference string `json:"reference"`
}

// BuildImageRequest is the request body for simulating an image build.
type BuildImageRequest struct {
	Tag string `json:"tag"`
}

// RunContainerRequest is the request body for running a simulated container.
type RunContainerRequest struct {
	Image string `json:"image"`
	Name  string `json:"name,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// ConvertResponse is the response for a successful conversion.
type ConvertResponse struct {
	Direction string `json:"direction"`
	Output    string `json:"output"`
}

// ExamplePairResponse is one manifest/commands example pair.
type ExamplePairResponse struct {
	Manifest string `json:"manifest"`
	Commands string `json:"commands"`
}

// ExamplesResponse holds the preloadable converter examples.
type ExamplesResponse struct {
	Simple  ExamplePairResponse `json:"simple"`
	Complex ExamplePairResponse `json:"complex"`
}

// ImageResponse represents a simulated image.
type ImageResponse struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ContainerResponse represents a simulated container.
type ContainerResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

// ListImagesResponse is the response for listing simulated images.
type ListImagesResponse struct {
	Images []ImageResponse `json:"images"`
}

// ListContainersResponse is the response for listing simulated containers.
type ListContainersResponse struct {
	Containers []ContainerResponse `json:"containers"`
}

// PostResponse is the JSON shape of a blog post.
type PostResponse struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at"`
	HTML        string    `json:"html,omitempty"`
}

// ListPostsResponse is the response for listing posts.
type ListPostsResponse struct {
	Posts []PostResponse `json:"posts"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
