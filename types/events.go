// Package types defines the shared data model for the Foundry pipeline.
// It is a leaf package: nothing here depends on other Foundry packages.
package types

// EventType discriminates stream protocol events.
type EventType string

// Event type constants for the marker protocol.
const (
	EventProjectStart EventType = "project_start"
	EventFileStart    EventType = "file_start"
	EventFileContent  EventType = "file_content"
	EventFileEnd      EventType = "file_end"
	EventDependency   EventType = "dependency"
	EventProjectEnd   EventType = "project_end"
)

// IsTerminal returns true if this event type ends a generation stream.
func (e EventType) IsTerminal() bool {
	return e == EventProjectEnd
}

// StreamEvent is a structural occurrence recognized in the generation
// stream. Events are delivered to observers in acceptance order with a
// strictly monotonic Seq starting at 1.
//
// Field usage per type:
//   - project_start: Name
//   - file_start: Path, Language, Entry
//   - file_content: Path, Chunk
//   - file_end: Path
//   - dependency: Dependency, DepVersion
//   - project_end: none
type StreamEvent struct {
	Type EventType `json:"type"`
	Seq  int64     `json:"seq"`

	Name       string `json:"name,omitempty"`
	Path       string `json:"path,omitempty"`
	Chunk      string `json:"chunk,omitempty"`
	Language   string `json:"language,omitempty"`
	Entry      bool   `json:"entry,omitempty"`
	Dependency string `json:"dependency,omitempty"`
	DepVersion string `json:"dep_version,omitempty"`
}
