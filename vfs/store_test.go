package vfs

import (
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/foundry/types"
)

func TestCreateFile(t *testing.T) {
	s := NewStore()

	err := s.CreateFile("/App.tsx", "export default null", WithEntryPoint(true))
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	vf, ok := s.Get("/App.tsx")
	if !ok {
		t.Fatal("file not found after create")
	}
	if vf.Name != "App.tsx" {
		t.Errorf("Name = %q, want App.tsx", vf.Name)
	}
	if vf.Language != "typescript" {
		t.Errorf("Language = %q, want typescript", vf.Language)
	}
	if vf.FileType != types.FileTypeComponent {
		t.Errorf("FileType = %q, want component", vf.FileType)
	}
	if !vf.IsEntryPoint {
		t.Error("IsEntryPoint = false")
	}
	if vf.GeneratedBy != types.ProvenanceLLM {
		t.Errorf("GeneratedBy = %q, want llm", vf.GeneratedBy)
	}
}

func TestCreateFileInvalidPath(t *testing.T) {
	s := NewStore()
	for _, path := range []string{"", "x", "/", "App.tsx"} {
		if err := s.CreateFile(path, "content"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("CreateFile(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after rejected creates, want 0", s.Len())
	}
}

func TestCreateFileReplacesExisting(t *testing.T) {
	s := NewStore()
	if err := s.CreateFile("/a.js", "first"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if err := s.CreateFile("/a.js", "second"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	vf, _ := s.Get("/a.js")
	if vf.Content != "second" {
		t.Errorf("Content = %q, want second", vf.Content)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestUpdateFile(t *testing.T) {
	s := NewStore()
	if err := s.UpdateFile("/missing.js", "x"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("UpdateFile on missing path error = %v, want ErrFileNotFound", err)
	}

	_ = s.CreateFile("/a.js", "original")
	if err := s.UpdateFile("/a.js", "edited"); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}

	vf, _ := s.Get("/a.js")
	if vf.Content != "edited" {
		t.Errorf("Content = %q, want edited", vf.Content)
	}
	if vf.GeneratedBy != types.ProvenanceUser {
		t.Errorf("GeneratedBy = %q after user edit, want user", vf.GeneratedBy)
	}
}

func TestDeleteFile(t *testing.T) {
	s := NewStore()
	_ = s.CreateFile("/a.js", "x")

	if err := s.DeleteFile("/a.js"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, ok := s.Get("/a.js"); ok {
		t.Error("file still present after delete")
	}
	if err := s.DeleteFile("/a.js"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("second delete error = %v, want ErrFileNotFound", err)
	}
}

func TestGetFilesSortedAndCopied(t *testing.T) {
	s := NewStore()
	_ = s.CreateFile("/c.js", "c")
	_ = s.CreateFile("/a.js", "a")
	_ = s.CreateFile("/b.js", "b")

	files := s.GetFiles()
	if len(files) != 3 {
		t.Fatalf("len = %d, want 3", len(files))
	}
	for i, want := range []string{"/a.js", "/b.js", "/c.js"} {
		if files[i].Path != want {
			t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, want)
		}
	}

	// Mutating the returned slice must not touch the store.
	files[0].Content = "mutated"
	if vf, _ := s.Get("/a.js"); vf.Content != "a" {
		t.Errorf("store content = %q after caller mutation, want a", vf.Content)
	}
}

func TestRevisionMonotonic(t *testing.T) {
	s := NewStore()
	r0 := s.Revision()

	_ = s.CreateFile("/a.js", "x")
	r1 := s.Revision()
	if r1 <= r0 {
		t.Errorf("revision %d not above %d after create", r1, r0)
	}

	s.SetProjectName("Todo")
	s.SetDependency("react", "18.2.0")
	r2 := s.Revision()
	if r2 <= r1 {
		t.Errorf("revision %d not above %d after meta writes", r2, r1)
	}

	s.Reset()
	if s.Revision() <= r2 {
		t.Error("revision did not advance on reset")
	}
	if s.Len() != 0 || s.Meta().Name != "" {
		t.Error("reset left state behind")
	}
}

func TestMetaIsACopy(t *testing.T) {
	s := NewStore()
	s.SetDependency("react", "18.2.0")

	meta := s.Meta()
	meta.Dependencies["react"] = "0.0.0"

	if s.Meta().Dependencies["react"] != "18.2.0" {
		t.Error("caller mutation leaked into store metadata")
	}
}

func TestSnapshotShape(t *testing.T) {
	s := NewStore()
	s.SetProjectName("Todo")
	_ = s.CreateFile("/App.tsx", "x", WithEntryPoint(true))

	savedAt := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	snap := s.Snapshot("sess-1", savedAt)
	if snap.Version != types.Version {
		t.Errorf("Version = %q", snap.Version)
	}
	if !snap.SavedAt.Equal(savedAt) {
		t.Errorf("SavedAt = %s", snap.SavedAt)
	}
	if snap.SessionID != "sess-1" || snap.Meta.Name != "Todo" || len(snap.Files) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Revision != s.Revision() {
		t.Errorf("Revision = %d, want %d", snap.Revision, s.Revision())
	}
}
