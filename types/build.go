package types

// Diagnostic is a single build problem, reported as data rather than raised
// as an error. File and Line are optional.
type Diagnostic struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// BuildResult is the previewable artifact produced by one orchestrated
// build. It is ephemeral: recomputed on every build and superseded by the
// next one.
//
// Success reflects whether the orchestration produced an artifact, not
// whether the diagnostics list is empty; a preview with compile errors is
// still a successful result. Consumers decide how to render degraded output.
type BuildResult struct {
	Success    bool         `json:"success"`
	HTML       string       `json:"html"`
	Errors     []Diagnostic `json:"errors"`
	DurationMs int64        `json:"duration_ms"`
}

// HasDiagnostics reports whether the build carried any diagnostics.
func (r *BuildResult) HasDiagnostics() bool {
	return r != nil && len(r.Errors) > 0
}
