// Package playground is a simulated image/container lifecycle for the
// teaching demo. Nothing real runs: "pull" and "build" are timers, and
// containers are rows in a map with a strict status transition table.
package playground

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrImageNotReady     = errors.New("image is not ready")
	ErrContainerNotFound = errors.New("container not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNameInUse         = errors.New("container name already in use")
	ErrEmptyReference    = errors.New("image reference is empty")
)

// =============================================================================
// Statuses
// =============================================================================

type ImageStatus string

const (
	ImagePulling  ImageStatus = "pulling"
	ImageBuilding ImageStatus = "building"
	ImageReady    ImageStatus = "ready"
)

type ContainerStatus string

const (
	ContainerCreated ContainerStatus = "created"
	ContainerRunning ContainerStatus = "running"
	ContainerStopped ContainerStatus = "stopped"
	ContainerRemoved ContainerStatus = "removed"
)

// validTransitions defines the allowed container status transitions.
var validTransitions = map[ContainerStatus][]ContainerStatus{
	ContainerCreated: {ContainerRunning, ContainerRemoved},
	ContainerRunning: {ContainerStopped},
	ContainerStopped: {ContainerRunning, ContainerRemoved},
	ContainerRemoved: {}, // Terminal state
}

// ValidateTransition checks if a container status transition is valid.
func ValidateTransition(from, to ContainerStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// =============================================================================
// Types
// =============================================================================

// Image is a simulated image.
type Image struct {
	ID        string      `json:"id"`
	Reference string      `json:"reference"`
	Status    ImageStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Container is a simulated container.
type Container struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ImageRef  string          `json:"image"`
	Status    ContainerStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	StoppedAt *time.Time      `json:"stopped_at,omitempty"`
}

// =============================================================================
// Engine
// =============================================================================

// DefaultBuildDelay is how long a simulated pull or build takes.
const DefaultBuildDelay = 2 * time.Second

// Engine holds the simulated state. Safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	images     map[string]*Image     // keyed by reference
	containers map[string]*Container // keyed by ID
	buildDelay time.Duration
	onReady    func(Image)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBuildDelay overrides the simulated pull/build duration.
func WithBuildDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.buildDelay = d }
}

// WithReadyObserver registers a callback invoked when an image becomes
// ready.
func WithReadyObserver(fn func(Image)) EngineOption {
	return func(e *Engine) { e.onReady = fn }
}

// NewEngine creates an empty simulated engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		images:     make(map[string]*Image),
		containers: make(map[string]*Container),
		buildDelay: DefaultBuildDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// Image Operations
// =============================================================================

// PullImage starts a simulated pull. The image becomes ready after the
// build delay. Pulling an already-known reference restarts the simulation.
func (e *Engine) PullImage(reference string) (Image, error) {
	return e.addImage(reference, ImagePulling)
}

// BuildImage starts a simulated build for a tag.
func (e *Engine) BuildImage(tag string) (Image, error) {
	return e.addImage(tag, ImageBuilding)
}

func (e *Engine) addImage(reference string, status ImageStatus) (Image, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Image{}, ErrEmptyReference
	}

	e.mu.Lock()
	img := &Image{
		ID:        "sha256:" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Reference: reference,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	e.images[reference] = img
	e.mu.Unlock()

	time.AfterFunc(e.buildDelay, func() {
		e.mu.Lock()
		current, ok := e.images[reference]
		if !ok || current.ID != img.ID {
			e.mu.Unlock()
			return
		}
		current.Status = ImageReady
		ready := *current
		cb := e.onReady
		e.mu.Unlock()
		if cb != nil {
			cb(ready)
		}
	})

	return *img, nil
}

// ListImages returns copies of all images, oldest first.
func (e *Engine) ListImages() []Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Image, 0, len(e.images))
	for _, img := range e.images {
		out = append(out, *img)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Reference < out[j].Reference
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// =============================================================================
// Container Operations
// =============================================================================

// RunContainer creates and starts a container from a ready image. When name
// is empty a docker-style random name is fabricated.
func (e *Engine) RunContainer(imageRef, name string) (Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	img, ok := e.images[imageRef]
	if !ok {
		return Container{}, ErrImageNotFound
	}
	if img.Status != ImageReady {
		return Container{}, ErrImageNotReady
	}

	if name == "" {
		name = e.uniqueNameLocked()
	} else if e.nameTakenLocked(name) {
		return Container{}, ErrNameInUse
	}

	now := time.Now().UTC()
	c := &Container{
		ID:        strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Name:      name,
		ImageRef:  imageRef,
		Status:    ContainerRunning,
		CreatedAt: now,
		StartedAt: &now,
	}
	e.containers[c.ID] = c
	return *c, nil
}

// StartContainer transitions a stopped (or created) container to running.
func (e *Engine) StartContainer(id string) (Container, error) {
	return e.transition(id, ContainerRunning)
}

// StopContainer transitions a running container to stopped.
func (e *Engine) StopContainer(id string) (Container, error) {
	return e.transition(id, ContainerStopped)
}

// RemoveContainer removes a created or stopped container. Running containers
// must be stopped first.
func (e *Engine) RemoveContainer(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.containers[id]
	if !ok {
		return ErrContainerNotFound
	}
	if err := ValidateTransition(c.Status, ContainerRemoved); err != nil {
		return err
	}
	delete(e.containers, id)
	return nil
}

// ListContainers returns copies of all containers, oldest first.
func (e *Engine) ListContainers() []Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Container, 0, len(e.containers))
	for _, c := range e.containers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (e *Engine) transition(id string, to ContainerStatus) (Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.containers[id]
	if !ok {
		return Container{}, ErrContainerNotFound
	}
	if err := ValidateTransition(c.Status, to); err != nil {
		return Container{}, err
	}

	c.Status = to
	now := time.Now().UTC()
	switch to {
	case ContainerRunning:
		c.StartedAt = &now
		c.StoppedAt = nil
	case ContainerStopped:
		c.StoppedAt = &now
	}
	return *c, nil
}

// uniqueNameLocked fabricates a docker-style name not yet in use.
func (e *Engine) uniqueNameLocked() string {
	for retry := 0; ; retry++ {
		name := namesgenerator.GetRandomName(retry)
		if !e.nameTakenLocked(name) {
			return name
		}
	}
}

func (e *Engine) nameTakenLocked(name string) bool {
	for _, c := range e.containers {
		if c.Name == name {
			return true
		}
	}
	return false
}
