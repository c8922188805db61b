package types

// EventKind identifies a progress event emitted during an extract run.
type EventKind string

// Event kinds in emission order: package-start brackets open, per-file events
// follow, package-end closes the package's walk.
const (
	EventPackageStart EventKind = "package-start"
	EventFileAdded    EventKind = "file-added"
	EventFileModified EventKind = "file-modified"
	EventFileDeleted  EventKind = "file-deleted"
	EventFileSkipped  EventKind = "file-skipped"
	EventPackageEnd   EventKind = "package-end"
)

// Event is one entry in the progress stream. Path is set for file events and
// empty for package brackets. Force marks a file written over a pre-existing
// unmanaged file.
type Event struct {
	Kind    EventKind `json:"kind"`
	Package string    `json:"package"`
	Version string    `json:"version"`
	Path    string    `json:"path,omitempty"`
	Force   bool      `json:"force,omitempty"`
	DryRun  bool      `json:"dry_run,omitempty"`
}

// EventSink receives progress events synchronously during an extract run.
// Implementations must not retain the event past the call.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a plain function to an EventSink.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

// NopSink discards all events.
type NopSink struct{}

// Publish does nothing.
func (NopSink) Publish(Event) {}
