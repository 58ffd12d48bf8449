// Package converter owns the editor state for the manifest/command teaching
// widget: which buffer was edited last, when to re-derive the other buffer,
// and how transcoder failures surface to the user.
package converter

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/the-snesler/samnesler.com/internal/core/transcode"
)

// =============================================================================
// Directions and Editor State
// =============================================================================

// Direction selects which buffer is the conversion source.
type Direction string

const (
	DirectionManifestToCommands Direction = "manifest-to-commands"
	DirectionCommandsToManifest Direction = "commands-to-manifest"
)

// ActiveEditor identifies the buffer that was most recently edited.
type ActiveEditor string

const (
	EditorNone     ActiveEditor = "none"
	EditorManifest ActiveEditor = "manifest"
	EditorCommands ActiveEditor = "commands"
)

var ErrUnknownDirection = errors.New("unknown conversion direction")

// DefaultDebounce is the delay between the last edit and the derived
// conversion.
const DefaultDebounce = 300 * time.Millisecond

// fallbackErrorMessage is surfaced when a transcoder failure carries no
// message of its own.
const fallbackErrorMessage = "conversion failed"

// =============================================================================
// Transcoder Contract
// =============================================================================

// Transcoder is the bidirectional translation collaborator.
type Transcoder interface {
	ToCommands(manifest string) ([]string, error)
	ToManifest(commands []string, opts transcode.Options) (string, error)
}

// libTranscoder delegates to the transcode package.
type libTranscoder struct{}

func (libTranscoder) ToCommands(manifest string) ([]string, error) {
	return transcode.ToCommands(manifest)
}

func (libTranscoder) ToManifest(commands []string, opts transcode.Options) (string, error) {
	return transcode.ToManifest(commands, opts)
}

// =============================================================================
// Orchestrator
// =============================================================================

// Snapshot is a consistent copy of the orchestrator state.
type Snapshot struct {
	Manifest     string       `json:"manifest"`
	Commands     string       `json:"commands"`
	ActiveEditor ActiveEditor `json:"active_editor"`
	Error        string       `json:"error,omitempty"`
}

// Orchestrator owns a manifest buffer and a command buffer. Exactly one
// buffer is authoritative at any instant; edits to it re-derive the other
// buffer after a debounce delay. At most one debounce timer is live;
// scheduling a new one cancels the previous.
type Orchestrator struct {
	mu       sync.Mutex
	tr       Transcoder
	debounce time.Duration
	onUpdate func(Snapshot)

	manifest string
	commands string
	active   ActiveEditor
	errMsg   string

	timer *time.Timer
	gen   uint64 // increments on every edit and clear; stale timers no-op
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) { o.debounce = d }
}

// WithTranscoder overrides the translation collaborator.
func WithTranscoder(tr Transcoder) Option {
	return func(o *Orchestrator) { o.tr = tr }
}

// WithObserver registers a callback invoked after every applied state
// change, with a snapshot of the new state.
func WithObserver(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.onUpdate = fn }
}

// NewOrchestrator creates an orchestrator with empty buffers.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tr:       libTranscoder{},
		debounce: DefaultDebounce,
		active:   EditorNone,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// =============================================================================
// Edits
// =============================================================================

// SetManifest records an edit to the manifest buffer and schedules a
// debounced derivation of the command buffer.
func (o *Orchestrator) SetManifest(text string) {
	o.mu.Lock()
	o.manifest = text
	o.active = EditorManifest
	o.scheduleLocked(DirectionManifestToCommands, text)
	snap, notify := o.snapshotLocked()
	o.mu.Unlock()
	notify(snap)
}

// SetCommands records an edit to the command buffer and schedules a
// debounced derivation of the manifest buffer.
func (o *Orchestrator) SetCommands(text string) {
	o.mu.Lock()
	o.commands = text
	o.active = EditorCommands
	o.scheduleLocked(DirectionCommandsToManifest, text)
	snap, notify := o.snapshotLocked()
	o.mu.Unlock()
	notify(snap)
}

// LoadSimpleExample replaces the manifest buffer with the simple canned
// example and schedules a forward conversion.
func (o *Orchestrator) LoadSimpleExample() {
	o.SetManifest(ExampleSimple)
}

// LoadComplexExample replaces the manifest buffer with the complex canned
// example and schedules a forward conversion.
func (o *Orchestrator) LoadComplexExample() {
	o.SetManifest(ExampleComplex)
}

// Clear empties both buffers, resets the active editor and error, and
// cancels any pending conversion. No new conversion is scheduled until the
// next edit.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.manifest = ""
	o.commands = ""
	o.active = EditorNone
	o.errMsg = ""
	snap, notify := o.snapshotLocked()
	o.mu.Unlock()
	notify(snap)
}

// Snapshot returns a consistent copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Manifest:     o.manifest,
		Commands:     o.commands,
		ActiveEditor: o.active,
		Error:        o.errMsg,
	}
}

// =============================================================================
// Debounce
// =============================================================================

// scheduleLocked cancels any pending timer and starts a new one for the
// given conversion. Caller holds the mutex.
func (o *Orchestrator) scheduleLocked(direction Direction, source string) {
	o.gen++
	gen := o.gen
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		o.fire(gen, direction, source)
	})
}

// fire applies a debounced conversion unless it was superseded by a newer
// edit or a clear.
func (o *Orchestrator) fire(gen uint64, direction Direction, source string) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	o.applyConversionLocked(direction, source)
	snap, notify := o.snapshotLocked()
	o.mu.Unlock()
	notify(snap)
}

// =============================================================================
// Conversion
// =============================================================================

// Convert performs a one-shot synchronous conversion with the orchestrator's
// transcoder, without touching buffer state. Empty or whitespace-only input
// yields empty output and no error.
func (o *Orchestrator) Convert(direction Direction, source string) (string, error) {
	switch direction {
	case DirectionManifestToCommands, DirectionCommandsToManifest:
	default:
		return "", ErrUnknownDirection
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.convertLocked(direction, source)
}

// applyConversionLocked derives the destination buffer for an edit. On
// failure the destination keeps its prior value and the error message is
// set; on success the destination is replaced and the error cleared.
func (o *Orchestrator) applyConversionLocked(direction Direction, source string) {
	out, err := o.convertLocked(direction, source)
	if err != nil {
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = fallbackErrorMessage
		}
		o.errMsg = msg
		return
	}
	switch direction {
	case DirectionManifestToCommands:
		o.commands = out
	case DirectionCommandsToManifest:
		o.manifest = out
	}
	o.errMsg = ""
}

// convertLocked runs the transcoder for one direction and post-processes its
// output. Caller holds the mutex.
func (o *Orchestrator) convertLocked(direction Direction, source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	switch direction {
	case DirectionManifestToCommands:
		commands, err := o.tr.ToCommands(source)
		if err != nil {
			return "", err
		}
		return joinCommands(commands), nil

	case DirectionCommandsToManifest:
		blocks := splitCommands(source)
		volumes, runs := extractVolumeCreates(blocks)
		manifest, err := o.tr.ToManifest(runs, transcode.Options{ExternalVolumes: volumes})
		if err != nil {
			return "", err
		}
		stripped, err := stripVolumeAnnotations(manifest, volumes)
		if err != nil {
			// Annotation cleanup is cosmetic; keep the raw manifest when
			// the generated document does not parse back.
			stripped = manifest
		}
		return insertSectionBreaks(stripped), nil
	}

	return "", ErrUnknownDirection
}

// snapshotLocked builds a snapshot and the notification to run after the
// mutex is released. Caller holds the mutex.
func (o *Orchestrator) snapshotLocked() (Snapshot, func(Snapshot)) {
	snap := Snapshot{
		Manifest:     o.manifest,
		Commands:     o.commands,
		ActiveEditor: o.active,
		Error:        o.errMsg,
	}
	if o.onUpdate == nil {
		return snap, func(Snapshot) {}
	}
	return snap, o.onUpdate
}
