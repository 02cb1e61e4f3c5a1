package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExporterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir)

	snap := testSnapshot("session-1", "Todo")
	if err := e.Export(snap); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "App.tsx"))
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if string(content) != "export default function App() {}" {
		t.Errorf("exported content = %q", content)
	}

	loaded, err := e.Import()
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if loaded.SessionID != snap.SessionID || loaded.Revision != snap.Revision {
		t.Errorf("manifest round trip lost fields: %+v", loaded)
	}
	if len(loaded.Files) != len(snap.Files) {
		t.Errorf("len(Files) = %d, want %d", len(loaded.Files), len(snap.Files))
	}
	if loaded.Meta.Dependencies["react"] != "18.2.0" {
		t.Errorf("dependencies = %v", loaded.Meta.Dependencies)
	}
}

func TestExporterNestedPaths(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir)

	snap := testSnapshot("session-1", "Todo")
	snap.Files[0].Path = "/components/ui/Button.tsx"
	if err := e.Export(snap); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "components", "ui", "Button.tsx")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}

func TestExporterRejectsTraversal(t *testing.T) {
	e := NewExporter(t.TempDir())
	snap := testSnapshot("session-1", "Todo")
	snap.Files[0].Path = "/../escape.txt"

	if err := e.Export(snap); err == nil {
		t.Error("Export() should reject paths escaping the root")
	}
}

func TestExporterImportMissingManifest(t *testing.T) {
	e := NewExporter(t.TempDir())
	if _, err := e.Import(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Import() error = %v, want ErrSnapshotNotFound", err)
	}
}
