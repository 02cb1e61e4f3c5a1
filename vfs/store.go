// Package vfs implements the virtual file store: the canonical, in-memory
// table of project files and metadata, independent of any UI state.
//
// The store is the single shared mutable resource in the pipeline. All
// operations are synchronous and immediately consistent within the store;
// GetFiles always reflects every committed write at the time of the call,
// with no implicit buffering. External observers holding stale copies detect
// staleness via the monotonically increasing revision counter.
package vfs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pithecene-io/foundry/types"
)

// ErrInvalidPath is returned for paths that are missing, shorter than two
// characters, or not rooted at the path separator.
var ErrInvalidPath = errors.New("invalid virtual file path")

// ErrFileNotFound is returned when an operation targets a path with no entry.
var ErrFileNotFound = errors.New("virtual file not found")

// Store is the canonical mutable table of virtual files keyed by path.
// Thread-safe for concurrent access.
type Store struct {
	mu       sync.RWMutex
	files    map[string]*types.VirtualFile
	meta     types.ProjectMeta
	revision int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		files: make(map[string]*types.VirtualFile),
		meta:  types.NewProjectMeta(),
	}
}

// FileOption customizes a file entry at creation time.
type FileOption func(*types.VirtualFile)

// WithLanguage overrides the language inferred from the extension.
// An empty tag keeps the inferred value.
func WithLanguage(lang string) FileOption {
	return func(vf *types.VirtualFile) {
		if lang != "" {
			vf.Language = lang
		}
	}
}

// WithFileType overrides the category inferred from the extension.
func WithFileType(ft types.FileType) FileOption {
	return func(vf *types.VirtualFile) {
		if ft != "" {
			vf.FileType = ft
		}
	}
}

// WithEntryPoint marks the file as the runnable target's entry point.
func WithEntryPoint(entry bool) FileOption {
	return func(vf *types.VirtualFile) { vf.IsEntryPoint = entry }
}

// WithProvenance records which writer produced the file.
func WithProvenance(p types.Provenance) FileOption {
	return func(vf *types.VirtualFile) { vf.GeneratedBy = p }
}

// CreateFile inserts a file at path, replacing any existing entry. A stream
// may legally describe the same path twice; the later description wins.
func (s *Store) CreateFile(path, content string, opts ...FileOption) error {
	if !types.ValidPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	vf := &types.VirtualFile{
		Path:        path,
		Name:        types.BaseName(path),
		Content:     content,
		Language:    types.DetectLanguage(path),
		FileType:    types.DetectFileType(path),
		GeneratedBy: types.ProvenanceLLM,
	}
	for _, opt := range opts {
		opt(vf)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = vf
	s.revision++
	return nil
}

// UpdateFile replaces the content of an existing entry.
func (s *Store) UpdateFile(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vf, ok := s.files[path]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, path)
	}
	vf.Content = content
	vf.GeneratedBy = types.ProvenanceUser
	s.revision++
	return nil
}

// DeleteFile removes the entry at path.
func (s *Store) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, path)
	}
	delete(s.files, path)
	s.revision++
	return nil
}

// Get returns a copy of the entry at path.
func (s *Store) Get(path string) (types.VirtualFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vf, ok := s.files[path]
	if !ok {
		return types.VirtualFile{}, false
	}
	return *vf, true
}

// GetFiles returns copies of all entries, sorted by path for deterministic
// ordering.
func (s *Store) GetFiles() []types.VirtualFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.VirtualFile, 0, len(s.files))
	for _, vf := range s.files {
		out = append(out, *vf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Meta returns a deep copy of the project metadata.
func (s *Store) Meta() types.ProjectMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Clone()
}

// SetProjectName sets the project display name.
func (s *Store) SetProjectName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Name = name
	s.revision++
}

// SetFramework sets the framework tag.
func (s *Store) SetFramework(fw types.Framework) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Framework = fw
	s.revision++
}

// SetDescription sets the project description.
func (s *Store) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Description = desc
	s.revision++
}

// SetDependency records a runtime dependency. Re-declaring a name replaces
// its version.
func (s *Store) SetDependency(name, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Dependencies[name] = version
	s.revision++
}

// SetDevDependency records a development-only dependency.
func (s *Store) SetDevDependency(name, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.DevDependencies[name] = version
	s.revision++
}

// Revision returns the current revision counter. It increments on every
// mutation, so equal revisions imply an identical observable state.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Reset clears all files and metadata for a new generation cycle. The
// revision counter keeps increasing so stale consumers still notice.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*types.VirtualFile)
	s.meta = types.NewProjectMeta()
	s.revision++
}

// Snapshot flattens the store into the persistence-boundary shape.
func (s *Store) Snapshot(sessionID string, savedAt time.Time) *types.ProjectSnapshot {
	return &types.ProjectSnapshot{
		Version:   types.Version,
		SessionID: sessionID,
		Meta:      s.Meta(),
		Files:     s.GetFiles(),
		Revision:  s.Revision(),
		SavedAt:   savedAt,
	}
}
