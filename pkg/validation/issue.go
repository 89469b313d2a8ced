// Package validation checks field values against their descriptors. Failures
// are returned as data, never as Go errors: a single field yields at most one
// Issue, and a whole tree yields a flat ErrorMap keyed by canonical path.
package validation

import "sort"

// Code identifies the kind of failure behind an Issue.
type Code string

const (
	CodeRequiredMissing      Code = "required_missing"
	CodePatternMismatch      Code = "pattern_mismatch"
	CodeBelowMinimum         Code = "below_minimum"
	CodeAboveMaximum         Code = "above_maximum"
	CodeUnsupportedFieldKind Code = "unsupported_field_kind"
	CodeUploadFailed         Code = "upload_failed"
)

// UploadFailedMessage is stored for a file field whose transport failed.
const UploadFailedMessage = "File upload failed"

// Issue is the structured form of one failure.
type Issue struct {
	Path    string         `json:"path"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// ErrorMap maps a canonical field path to its message. Groups never appear as
// keys.
type ErrorMap map[string]string

// Clone returns an independent copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Set records msg at path, or removes the entry when msg is empty.
func (m ErrorMap) Set(path, msg string) {
	if msg == "" {
		delete(m, path)
		return
	}
	m[path] = msg
}

// Paths returns the keys in lexical order.
func (m ErrorMap) Paths() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Result is the outcome of ValidateTree.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors ErrorMap `json:"errors"`
	Issues []Issue  `json:"issues,omitempty"`
}
