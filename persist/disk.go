package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/foundry/types"
)

// ManifestName is the snapshot manifest written next to exported files.
const ManifestName = "project.msgpack"

// Exporter materializes a project snapshot as a real directory tree,
// one file per virtual file plus a msgpack manifest. Useful for handing
// a generated project to external tooling.
type Exporter struct {
	root string
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{root: dir}
}

// Export writes all files in the snapshot under the export root and a
// manifest carrying the full snapshot. Virtual paths are rooted, so they
// are joined relative to the export root after cleaning.
func (e *Exporter) Export(snap *types.ProjectSnapshot) error {
	if snap == nil {
		return errors.New("persist: nil snapshot")
	}
	if err := os.MkdirAll(e.root, 0o755); err != nil {
		return fmt.Errorf("persist: create export root: %w", err)
	}

	for _, f := range snap.Files {
		target, err := e.resolve(f.Path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("persist: create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("persist: write %s: %w", f.Path, err)
		}
	}

	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persist: encode manifest: %w", err)
	}
	manifest := filepath.Join(e.root, ManifestName)
	if err := os.WriteFile(manifest, payload, 0o644); err != nil {
		return fmt.Errorf("persist: write manifest: %w", err)
	}
	return nil
}

// Import reads the manifest back into a snapshot.
func (e *Exporter) Import() (*types.ProjectSnapshot, error) {
	payload, err := os.ReadFile(filepath.Join(e.root, ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("persist: read manifest: %w", err)
	}
	var snap types.ProjectSnapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("persist: decode manifest: %w", err)
	}
	return &snap, nil
}

// resolve maps a virtual path onto the export root, rejecting traversal
// out of it.
func (e *Exporter) resolve(virtualPath string) (string, error) {
	rel := filepath.Clean(strings.TrimPrefix(virtualPath, "/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("persist: refusing to export path %q", virtualPath)
	}
	return filepath.Join(e.root, rel), nil
}
