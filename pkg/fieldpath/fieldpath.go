// Package fieldpath builds and splits the dotted canonical paths that address
// a field inside a form schema and its value tree.
package fieldpath

import "strings"

// Separator joins path segments.
const Separator = "."

// Join appends name to parent. An empty parent yields name unchanged so root
// fields are addressed by their bare name.
func Join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + Separator + name
}

// Split breaks a path into its segments. The empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Parent returns everything before the last segment, or "" for root paths.
func Parent(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Base returns the last segment of path.
func Base(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return path
	}
	return path[idx+len(Separator):]
}

// ValidName reports whether name can be used as a single path segment.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.Contains(name, Separator)
}
