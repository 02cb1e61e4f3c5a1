package types

import (
	"path"
	"strings"
)

// Provenance identifies which writer produced a virtual file.
type Provenance string

// Provenance constants.
const (
	ProvenanceLLM      Provenance = "llm"
	ProvenanceUser     Provenance = "user"
	ProvenanceFallback Provenance = "fallback"
)

// FileType categorizes a virtual file for consumers (editors, bundler).
type FileType string

// File type constants.
const (
	FileTypeComponent FileType = "component"
	FileTypeStyle     FileType = "style"
	FileTypeMarkup    FileType = "markup"
	FileTypeScript    FileType = "script"
	FileTypeConfig    FileType = "config"
	FileTypeOther     FileType = "other"
)

// VirtualFile is one entry in the virtual file store. Path is the unique key
// within a project and always begins with the root separator.
type VirtualFile struct {
	Path         string     `json:"path" msgpack:"path"`
	Name         string     `json:"name" msgpack:"name"`
	Content      string     `json:"content" msgpack:"content"`
	Language     string     `json:"language" msgpack:"language"`
	FileType     FileType   `json:"file_type" msgpack:"file_type"`
	IsEntryPoint bool       `json:"is_entry_point" msgpack:"is_entry_point"`
	GeneratedBy  Provenance `json:"generated_by" msgpack:"generated_by"`
}

// ValidPath reports whether p is acceptable as a virtual file path:
// at least two characters and rooted at the path separator.
func ValidPath(p string) bool {
	return len(p) >= 2 && strings.HasPrefix(p, "/")
}

// BaseName derives the display name from a virtual path.
func BaseName(p string) string {
	return path.Base(p)
}

// languageByExt maps file extensions to language tags.
var languageByExt = map[string]string{
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".css":  "css",
	".scss": "scss",
	".html": "html",
	".htm":  "html",
	".json": "json",
	".md":   "markdown",
	".svg":  "svg",
	".vue":  "vue",
	".svelte": "svelte",
	".yaml": "yaml",
	".yml":  "yaml",
}

// DetectLanguage infers a language tag from the path extension.
// Returns "plaintext" for unknown extensions.
func DetectLanguage(p string) string {
	if lang, ok := languageByExt[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "plaintext"
}

// DetectFileType infers a file category from the path extension.
func DetectFileType(p string) FileType {
	switch strings.ToLower(path.Ext(p)) {
	case ".tsx", ".jsx", ".vue", ".svelte":
		return FileTypeComponent
	case ".css", ".scss":
		return FileTypeStyle
	case ".html", ".htm", ".svg", ".md":
		return FileTypeMarkup
	case ".ts", ".js", ".mjs":
		return FileTypeScript
	case ".json", ".yaml", ".yml", ".toml":
		return FileTypeConfig
	default:
		return FileTypeOther
	}
}
