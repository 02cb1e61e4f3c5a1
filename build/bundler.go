// Package build compiles a virtual file snapshot into a previewable
// artifact under single-flight and layered-timeout guarantees.
package build

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pithecene-io/foundry/types"
)

// Bundler produces a previewable artifact from a point-in-time file
// snapshot. Implementations must respect context cancellation; the
// orchestrator abandons bundles that outlive their phase budget.
type Bundler interface {
	Bundle(ctx context.Context, files []types.VirtualFile, meta types.ProjectMeta) (*types.BuildResult, error)
}

// relativeImportPattern matches ES import / require statements referencing
// sibling files ("./x", "../x"). Used for unresolved-import diagnostics.
var relativeImportPattern = regexp.MustCompile(
	`(?:import\s+(?:[^'"]*?\s+from\s+)?|require\()\s*['"](\.{1,2}/[^'"]+)['"]`)

// PreviewBundler assembles a self-contained HTML document from the file
// set. Compile problems surface as diagnostics, never as errors: a preview
// with a diagnostic banner beats no preview.
type PreviewBundler struct{}

// NewPreviewBundler creates the default bundler.
func NewPreviewBundler() *PreviewBundler {
	return &PreviewBundler{}
}

// Bundle implements Bundler.
//
// An empty input set is a valid build that yields an informational page.
func (b *PreviewBundler) Bundle(ctx context.Context, files []types.VirtualFile, meta types.ProjectMeta) (*types.BuildResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &types.BuildResult{Success: true}

	if len(files) == 0 {
		result.HTML = emptyPreview(meta.Name)
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	entry := resolveEntry(files)
	if entry == nil {
		result.Errors = append(result.Errors, types.Diagnostic{
			Message: "no entry point found; using the first file",
		})
		entry = &files[0]
	}

	result.Errors = append(result.Errors, importDiagnostics(files)...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if entry.FileType == types.FileTypeMarkup {
		result.HTML = stitchMarkup(*entry, files)
	} else {
		result.HTML = sourcePreview(*entry, files, meta)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// resolveEntry picks the runnable target: the flagged entry point first,
// then /index.html, then any markup file, then the first file by path.
func resolveEntry(files []types.VirtualFile) *types.VirtualFile {
	for i := range files {
		if files[i].IsEntryPoint {
			return &files[i]
		}
	}
	for i := range files {
		if files[i].Path == "/index.html" {
			return &files[i]
		}
	}
	for i := range files {
		if files[i].FileType == types.FileTypeMarkup {
			return &files[i]
		}
	}
	if len(files) > 0 {
		return &files[0]
	}
	return nil
}

// importDiagnostics reports relative imports that resolve to no file in the
// snapshot. Extensions are matched loosely: "./App" resolves to /App.tsx.
func importDiagnostics(files []types.VirtualFile) []types.Diagnostic {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
		if ext := extensionOf(f.Path); ext != "" {
			known[strings.TrimSuffix(f.Path, ext)] = true
		}
	}

	var diags []types.Diagnostic
	for _, f := range files {
		if f.FileType != types.FileTypeScript && f.FileType != types.FileTypeComponent {
			continue
		}
		for _, m := range relativeImportPattern.FindAllStringSubmatch(f.Content, -1) {
			target := resolveRelative(f.Path, m[1])
			if !known[target] {
				diags = append(diags, types.Diagnostic{
					Message: fmt.Sprintf("unresolved import %q", m[1]),
					File:    f.Path,
				})
			}
		}
	}
	return diags
}

func extensionOf(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[i:]
	}
	return ""
}

// resolveRelative joins a relative specifier onto the importing file's
// directory, normalizing "." and ".." segments.
func resolveRelative(fromPath, specifier string) string {
	dir := fromPath[:strings.LastIndex(fromPath, "/")]
	parts := strings.Split(dir+"/"+specifier, "/")
	var out []string
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	return "/" + strings.Join(out, "/")
}

// stitchMarkup inlines referenced styles and scripts into an HTML entry so
// the preview renders standalone in an isolated context.
func stitchMarkup(entry types.VirtualFile, files []types.VirtualFile) string {
	doc := entry.Content
	for _, f := range files {
		if f.Path == entry.Path {
			continue
		}
		ref := strings.TrimPrefix(f.Path, "/")
		switch f.FileType {
		case types.FileTypeStyle:
			for _, pattern := range linkPatterns(ref, f.Path) {
				doc = strings.ReplaceAll(doc, pattern, "<style>\n"+f.Content+"\n</style>")
			}
		case types.FileTypeScript:
			for _, pattern := range scriptPatterns(ref, f.Path) {
				doc = strings.ReplaceAll(doc, pattern, "<script>\n"+f.Content+"\n</script>")
			}
		}
	}
	return doc
}

func linkPatterns(ref, abs string) []string {
	return []string{
		`<link rel="stylesheet" href="` + ref + `">`,
		`<link rel="stylesheet" href="./` + ref + `">`,
		`<link rel="stylesheet" href="` + abs + `">`,
	}
}

func scriptPatterns(ref, abs string) []string {
	return []string{
		`<script src="` + ref + `"></script>`,
		`<script src="./` + ref + `"></script>`,
		`<script src="` + abs + `"></script>`,
	}
}

// sourcePreview renders a non-markup entry point as an annotated source
// view with a manifest of the full file set. Consumers with a richer
// runtime (an in-browser sandbox) replace this bundler via the interface.
func sourcePreview(entry types.VirtualFile, files []types.VirtualFile, meta types.ProjectMeta) string {
	var sb strings.Builder
	title := meta.Name
	if title == "" {
		title = "Generated project"
	}

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title>\n</head>\n<body>\n<h1>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</h1>\n<ul class=\"manifest\">\n")

	sorted := make([]types.VirtualFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, f := range sorted {
		sb.WriteString("<li>")
		sb.WriteString(html.EscapeString(f.Path))
		if f.IsEntryPoint {
			sb.WriteString(" (entry)")
		}
		sb.WriteString("</li>\n")
	}

	sb.WriteString("</ul>\n<pre class=\"entry\" data-path=\"")
	sb.WriteString(html.EscapeString(entry.Path))
	sb.WriteString("\">\n")
	sb.WriteString(html.EscapeString(entry.Content))
	sb.WriteString("\n</pre>\n</body>\n</html>\n")
	return sb.String()
}

// emptyPreview is the informational page for a build with no files.
func emptyPreview(projectName string) string {
	title := projectName
	if title == "" {
		title = "Empty project"
	}
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\"><title>" +
		html.EscapeString(title) +
		"</title></head>\n<body>\n<p>No files generated yet.</p>\n</body>\n</html>\n"
}
