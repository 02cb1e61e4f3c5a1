package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/foundry/types"
)

func testSnapshot(sessionID, name string) *types.ProjectSnapshot {
	meta := types.NewProjectMeta()
	meta.Name = name
	meta.Framework = types.FrameworkReact
	meta.Dependencies["react"] = "18.2.0"

	return &types.ProjectSnapshot{
		Version:   types.Version,
		SessionID: sessionID,
		Meta:      meta,
		Files: []types.VirtualFile{
			{
				Path:         "/App.tsx",
				Name:         "App.tsx",
				Content:      "export default function App() {}",
				Language:     "tsx",
				FileType:     types.FileTypeComponent,
				IsEntryPoint: true,
				GeneratedBy:  types.ProvenanceLLM,
			},
			{
				Path:        "/styles.css",
				Name:        "styles.css",
				Content:     "body { margin: 0; }",
				Language:    "css",
				FileType:    types.FileTypeStyle,
				GeneratedBy: types.ProvenanceLLM,
			},
		},
		Revision: 7,
		SavedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestLodeStoreSaveLoad(t *testing.T) {
	store, err := NewMemoryStore("foundry-test")
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer store.Close()

	snap := testSnapshot("session-1", "Todo")
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SessionID != "session-1" {
		t.Errorf("SessionID = %s", loaded.SessionID)
	}
	if loaded.Meta.Name != "Todo" || loaded.Meta.Framework != types.FrameworkReact {
		t.Errorf("meta = %+v", loaded.Meta)
	}
	if loaded.Meta.Dependencies["react"] != "18.2.0" {
		t.Errorf("dependencies = %v", loaded.Meta.Dependencies)
	}
	if loaded.Revision != 7 {
		t.Errorf("Revision = %d, want 7", loaded.Revision)
	}
	if len(loaded.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(loaded.Files))
	}
	// GetFiles ordering is by path; /App.tsx sorts first.
	if loaded.Files[0].Path != "/App.tsx" || !loaded.Files[0].IsEntryPoint {
		t.Errorf("first file = %+v", loaded.Files[0])
	}
	if loaded.Files[0].GeneratedBy != types.ProvenanceLLM {
		t.Errorf("provenance = %s", loaded.Files[0].GeneratedBy)
	}
}

func TestLodeStoreLoadLatestWins(t *testing.T) {
	store, err := NewMemoryStore("foundry-test")
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer store.Close()

	first := testSnapshot("session-1", "Todo")
	if err := store.Save(context.Background(), first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := testSnapshot("session-1", "Todo")
	second.Revision = 12
	second.Files = second.Files[:1]
	if err := store.Save(context.Background(), second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Revision != 12 {
		t.Errorf("Revision = %d, want the newer snapshot's 12", loaded.Revision)
	}
	if len(loaded.Files) != 1 {
		t.Errorf("len(Files) = %d, want 1", len(loaded.Files))
	}
}

func TestLodeStoreLoadFiltersSessions(t *testing.T) {
	store, err := NewMemoryStore("foundry-test")
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), testSnapshot("session-a", "Alpha")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(context.Background(), testSnapshot("session-b", "Beta")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(context.Background(), "session-a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Meta.Name != "Alpha" {
		t.Errorf("Load(session-a) returned project %s", loaded.Meta.Name)
	}

	if _, err := store.Load(context.Background(), "session-missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestLodeStoreSaveRejectsEmptySession(t *testing.T) {
	store, err := NewMemoryStore("foundry-test")
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), &types.ProjectSnapshot{}); err == nil {
		t.Error("Save() without session id should fail")
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestDeriveDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2026, 3, 15, 2, 0, 0, 0, loc)
	if got := DeriveDay(ts); got != "2026-03-14" {
		t.Errorf("DeriveDay() = %s, want UTC day 2026-03-14", got)
	}
}
