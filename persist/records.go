package persist

import (
	"time"

	"github.com/pithecene-io/foundry/types"
)

// Record discriminator values.
const (
	RecordKindMeta = "project_meta"
	RecordKindFile = "file"
)

// DeriveDay formats the day partition key (UTC) from a timestamp.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// toMetaRecordMap converts project metadata to a record map. Lode's
// HiveLayout requires records as map[string]any so partition keys can be
// read off the record itself.
func toMetaRecordMap(snap *types.ProjectSnapshot) map[string]any {
	deps := make(map[string]any, len(snap.Meta.Dependencies))
	for name, version := range snap.Meta.Dependencies {
		deps[name] = version
	}
	devDeps := make(map[string]any, len(snap.Meta.DevDependencies))
	for name, version := range snap.Meta.DevDependencies {
		devDeps[name] = version
	}
	return map[string]any{
		"record_kind":      RecordKindMeta,
		"version":          snap.Version,
		"session_id":       snap.SessionID,
		"name":             snap.Meta.Name,
		"framework":        string(snap.Meta.Framework),
		"description":      snap.Meta.Description,
		"dependencies":     deps,
		"dev_dependencies": devDeps,
		"revision":         snap.Revision,
		"saved_at":         snap.SavedAt.UTC().Format(time.RFC3339Nano),

		// Partition keys.
		"project": partitionName(snap.Meta.Name),
		"day":     DeriveDay(snap.SavedAt),
	}
}

// toFileRecordMap converts one virtual file to a record map.
func toFileRecordMap(snap *types.ProjectSnapshot, f types.VirtualFile) map[string]any {
	return map[string]any{
		"record_kind":  RecordKindFile,
		"session_id":   snap.SessionID,
		"path":         f.Path,
		"name":         f.Name,
		"content":      f.Content,
		"language":     f.Language,
		"file_type":    string(f.FileType),
		"entry_point":  f.IsEntryPoint,
		"generated_by": string(f.GeneratedBy),

		// Partition keys.
		"project": partitionName(snap.Meta.Name),
		"day":     DeriveDay(snap.SavedAt),
	}
}

// partitionName keeps the project partition key non-empty; unnamed
// projects share a single partition.
func partitionName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}

// fileFromRecord rebuilds a virtual file from a stored record map.
// Returns false when the record is not a file record.
func fileFromRecord(record map[string]any) (types.VirtualFile, bool) {
	if record["record_kind"] != RecordKindFile {
		return types.VirtualFile{}, false
	}
	return types.VirtualFile{
		Path:         asString(record["path"]),
		Name:         asString(record["name"]),
		Content:      asString(record["content"]),
		Language:     asString(record["language"]),
		FileType:     types.FileType(asString(record["file_type"])),
		IsEntryPoint: asBool(record["entry_point"]),
		GeneratedBy:  types.Provenance(asString(record["generated_by"])),
	}, true
}

// metaFromRecord rebuilds project metadata from a stored record map.
// Returns false when the record is not a meta record.
func metaFromRecord(record map[string]any) (types.ProjectMeta, int64, bool) {
	if record["record_kind"] != RecordKindMeta {
		return types.ProjectMeta{}, 0, false
	}
	meta := types.NewProjectMeta()
	meta.Name = asString(record["name"])
	meta.Framework = types.Framework(asString(record["framework"]))
	meta.Description = asString(record["description"])
	for name, version := range asMap(record["dependencies"]) {
		meta.Dependencies[name] = asString(version)
	}
	for name, version := range asMap(record["dev_dependencies"]) {
		meta.DevDependencies[name] = asString(version)
	}
	return meta, asInt64(record["revision"]), true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
