package persist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/foundry/types"
)

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"project", "day", "session_id", "record_kind"}

// LodeStore persists snapshots to a Lode dataset, one meta record plus
// one record per file per Save.
type LodeStore struct {
	dataset lode.Dataset
}

// NewFSStore creates a store with filesystem storage rooted at root.
func NewFSStore(dataset, root string) (*LodeStore, error) {
	return NewStoreWithFactory(dataset, lode.NewFSFactory(root))
}

// NewMemoryStore creates an in-memory store for testing.
func NewMemoryStore(dataset string) (*LodeStore, error) {
	return NewStoreWithFactory(dataset, lode.NewMemoryFactory())
}

// NewStoreWithFactory creates a store over a custom Lode store factory.
func NewStoreWithFactory(dataset string, factory lode.StoreFactory) (*LodeStore, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("persist: create dataset: %w", err)
	}
	return &LodeStore{dataset: ds}, nil
}

// newLodeStore wraps an already-built dataset; used by the S3 constructor.
func newLodeStore(ds lode.Dataset) *LodeStore {
	return &LodeStore{dataset: ds}
}

// Save implements Store.
func (s *LodeStore) Save(ctx context.Context, snap *types.ProjectSnapshot) error {
	if snap == nil || snap.SessionID == "" {
		return fmt.Errorf("persist: snapshot requires a session id")
	}

	records := make([]any, 0, len(snap.Files)+1)
	records = append(records, toMetaRecordMap(snap))
	for _, f := range snap.Files {
		records = append(records, toFileRecordMap(snap, f))
	}

	if _, err := s.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return fmt.Errorf("persist: write snapshot: %w", err)
	}
	return nil
}

// Load implements Store. Snapshots are ordered by creation time, so the
// scan runs newest first and stops at the first snapshot carrying a meta
// record for the session.
func (s *LodeStore) Load(ctx context.Context, sessionID string) (*types.ProjectSnapshot, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("persist: session id required")
	}

	snapshots, err := s.dataset.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("persist: list snapshots: %w", err)
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		data, err := s.dataset.Read(ctx, snapshots[i].ID)
		if err != nil {
			return nil, fmt.Errorf("persist: read snapshot %s: %w", snapshots[i].ID, err)
		}
		result := assemble(data, sessionID)
		if result != nil {
			return result, nil
		}
	}
	return nil, ErrSnapshotNotFound
}

// Close implements Store. Lode datasets hold no resources needing an
// explicit release in the current API.
func (s *LodeStore) Close() error {
	return nil
}

// assemble rebuilds a project snapshot from one Lode snapshot's records,
// returning nil when the records belong to a different session or carry
// no meta record.
func assemble(data []any, sessionID string) *types.ProjectSnapshot {
	var result *types.ProjectSnapshot
	var files []types.VirtualFile

	for _, item := range data {
		record, ok := item.(map[string]any)
		if !ok || asString(record["session_id"]) != sessionID {
			continue
		}
		if meta, revision, ok := metaFromRecord(record); ok {
			result = &types.ProjectSnapshot{
				Version:   asString(record["version"]),
				SessionID: sessionID,
				Meta:      meta,
				Revision:  revision,
			}
			if ts, err := time.Parse(time.RFC3339Nano, asString(record["saved_at"])); err == nil {
				result.SavedAt = ts
			}
			continue
		}
		if f, ok := fileFromRecord(record); ok {
			files = append(files, f)
		}
	}

	if result == nil {
		return nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	result.Files = files
	return result
}

var _ Store = (*LodeStore)(nil)
