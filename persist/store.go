// Package persist saves finished project snapshots to durable storage and
// loads them back for inspection and resumed sessions.
package persist

import (
	"context"
	"errors"

	"github.com/pithecene-io/foundry/types"
)

// ErrSnapshotNotFound is returned when no stored snapshot matches the
// requested session.
var ErrSnapshotNotFound = errors.New("persist: snapshot not found")

// Store is the persistence boundary for project snapshots.
type Store interface {
	// Save writes a complete snapshot. Saving the same session twice
	// appends a newer snapshot; Load returns the latest.
	Save(ctx context.Context, snap *types.ProjectSnapshot) error

	// Load reads the most recent snapshot for the session.
	Load(ctx context.Context, sessionID string) (*types.ProjectSnapshot, error)

	// Close releases underlying resources.
	Close() error
}
