// Package adapter defines the downstream notification boundary.
//
// Adapters publish project completion events to external systems. The
// runtime owns adapter lifecycle; users provide configuration only.
package adapter

import "context"

// ProjectCompletedEvent is the payload published when a generation run
// finishes and its snapshot has settled.
type ProjectCompletedEvent struct {
	Version    string `json:"version"`
	EventType  string `json:"event_type"` // always "project_completed"
	SessionID  string `json:"session_id"`
	Project    string `json:"project"`
	Framework  string `json:"framework"`
	FileCount  int    `json:"file_count"`
	Outcome    string `json:"outcome"` // streamed, recovered, plain_text
	Timestamp  string `json:"timestamp"` // ISO 8601
	DurationMs int64  `json:"duration_ms"`
}

// Adapter publishes project completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ProjectCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
