// Package files models the shared virtual file tree of a room.
package files

import (
	"fmt"
	"sort"

	"paircode/internal/model"
)

// DefaultPath is where a room without usable starter content gets its empty file
const DefaultPath = "src/App.tsx"

// ExtensionFor maps a task language to a source file extension
func ExtensionFor(language string) string {
	switch language {
	case "typescript", "":
		return "tsx"
	case "javascript":
		return "jsx"
	case "python":
		return "py"
	default:
		return language
	}
}

// StarterFiles expands a task template into path/content pairs.
// Explicit task files win; otherwise a single src/App.<ext> is synthesized.
func StarterFiles(task *model.Task) map[string]string {
	if task == nil {
		return FallbackFiles()
	}
	out := make(map[string]string)
	for _, f := range task.Files {
		if f.Path == "" {
			continue
		}
		out[f.Path] = f.Content
	}
	if len(out) > 0 {
		return out
	}

	path := "src/App." + ExtensionFor(task.Language)
	if task.StarterCode != "" {
		out[path] = task.StarterCode
	} else {
		out[path] = fmt.Sprintf("// %s\n// %s\n\n", task.Title, task.Description)
	}
	return out
}

// FallbackFiles is the single empty file every editable room gets at minimum
func FallbackFiles() map[string]string {
	return map[string]string{DefaultPath: ""}
}

// Registry is a snapshot of a room's files plus the active pointer
type Registry struct {
	Files  map[string]string
	Active string
}

// NewRegistry builds a registry and normalises the active pointer
func NewRegistry(files map[string]string, active string) *Registry {
	if files == nil {
		files = make(map[string]string)
	}
	r := &Registry{Files: files, Active: active}
	r.Active = r.ActivePath()
	return r
}

// Paths lists file paths in display order
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ActivePath returns the active file, or the first path when the pointer is stale
func (r *Registry) ActivePath() string {
	if _, ok := r.Files[r.Active]; ok {
		return r.Active
	}
	if paths := r.Paths(); len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// Switch moves the active pointer; unknown paths are ignored
func (r *Registry) Switch(path string) bool {
	if _, ok := r.Files[path]; !ok {
		return false
	}
	r.Active = path
	return true
}

// Update upserts content at path
func (r *Registry) Update(path, content string) {
	r.Files[path] = content
	if r.Active == "" {
		r.Active = path
	}
}

// Content returns the content of the active file
func (r *Registry) Content() string {
	return r.Files[r.ActivePath()]
}

// Empty reports whether the registry holds no files
func (r *Registry) Empty() bool {
	return len(r.Files) == 0
}

// Wire converts the registry into its API form
func (r *Registry) Wire() *model.Files {
	return &model.Files{Files: r.Files, Paths: r.Paths(), ActiveFile: r.ActivePath()}
}
