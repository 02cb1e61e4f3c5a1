package types

import "time"

// Framework tags the project's runtime framework.
type Framework string

// Framework constants. The tag is advisory; the bundler treats unknown
// frameworks as static.
const (
	FrameworkStatic Framework = "static"
	FrameworkReact  Framework = "react"
	FrameworkVue    Framework = "vue"
	FrameworkSvelte Framework = "svelte"
)

// ProjectMeta holds project-level metadata. Created once per project and
// updated on load/import.
type ProjectMeta struct {
	Name            string            `json:"name" msgpack:"name"`
	Framework       Framework         `json:"framework" msgpack:"framework"`
	Description     string            `json:"description" msgpack:"description"`
	Dependencies    map[string]string `json:"dependencies" msgpack:"dependencies"`
	DevDependencies map[string]string `json:"dev_dependencies" msgpack:"dev_dependencies"`
}

// NewProjectMeta returns a ProjectMeta with initialized dependency maps.
func NewProjectMeta() ProjectMeta {
	return ProjectMeta{
		Framework:       FrameworkStatic,
		Dependencies:    make(map[string]string),
		DevDependencies: make(map[string]string),
	}
}

// Clone returns a deep copy. Callers receive copies so the canonical maps
// cannot be mutated from outside the store.
func (m ProjectMeta) Clone() ProjectMeta {
	out := m
	out.Dependencies = make(map[string]string, len(m.Dependencies))
	for k, v := range m.Dependencies {
		out.Dependencies[k] = v
	}
	out.DevDependencies = make(map[string]string, len(m.DevDependencies))
	for k, v := range m.DevDependencies {
		out.DevDependencies[k] = v
	}
	return out
}

// ProjectSnapshot is the flattened shape exchanged across the persistence
// boundary: metadata plus the full file list at a given store revision.
type ProjectSnapshot struct {
	Version   string        `json:"version" msgpack:"version"`
	SessionID string        `json:"session_id" msgpack:"session_id"`
	Meta      ProjectMeta   `json:"meta" msgpack:"meta"`
	Files     []VirtualFile `json:"files" msgpack:"files"`
	Revision  int64         `json:"revision" msgpack:"revision"`
	SavedAt   time.Time     `json:"saved_at" msgpack:"saved_at"`
}
