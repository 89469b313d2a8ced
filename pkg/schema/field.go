// Package schema defines the declarative field vocabulary a form is built
// from, the catalog of named schemas, and the loaders that read them from
// JSON, YAML, or OpenAPI documents.
package schema

import (
	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Option is one choice of a select, multiselect, or buttons field.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// UploadEndpoint describes where a file field sends its payload. Only the HTTP
// upload transport reads it.
type UploadEndpoint struct {
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Field describes one node of a form schema. Exactly one of Options and
// Children is populated, depending on Kind; scalar kinds carry neither.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Kind     Kind   `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty"`
	// Pattern is matched against the whole value.
	Pattern string `json:"validator,omitempty" yaml:"validator,omitempty"`
	// Min and Max hold numbers for number fields and dates for date/datetime
	// fields, kept as authored.
	Min          string          `json:"min,omitempty" yaml:"min,omitempty"`
	Max          string          `json:"max,omitempty" yaml:"max,omitempty"`
	Options      []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	Children     []Field         `json:"children,omitempty" yaml:"children,omitempty"`
	ErrorMessage string          `json:"error,omitempty" yaml:"error,omitempty"`
	Placeholder  string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Step         string          `json:"step,omitempty" yaml:"step,omitempty"`
	Upload       *UploadEndpoint `json:"upload,omitempty" yaml:"upload,omitempty"`
}

// Label returns the title, falling back to the name.
func (f Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// HasMin reports whether a lower bound is set.
func (f Field) HasMin() bool {
	return f.Min != ""
}

// HasMax reports whether an upper bound is set.
func (f Field) HasMax() bool {
	return f.Max != ""
}

// OptionTitle returns the title for an option id, or the id itself.
func (f Field) OptionTitle(id string) string {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt.Title
		}
	}
	return id
}

// HasOption reports whether id is one of the field's options.
func (f Field) HasOption(id string) bool {
	for _, opt := range f.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// Find locates the field addressed by path within fields, returning it along
// with its parent path.
func Find(fields []Field, path string) (Field, string, bool) {
	segments := fieldpath.Split(path)
	if len(segments) == 0 {
		return Field{}, "", false
	}
	parent := ""
	current := fields
	for i, segment := range segments {
		field, ok := child(current, segment)
		if !ok {
			return Field{}, "", false
		}
		if i == len(segments)-1 {
			return field, parent, true
		}
		if !field.Kind.IsGroup() {
			return Field{}, "", false
		}
		parent = fieldpath.Join(parent, field.Name)
		current = field.Children
	}
	return Field{}, "", false
}

// Walk visits every field depth first in declaration order, passing the
// field's parent path. Returning false from fn skips a group's children.
func Walk(fields []Field, parent string, fn func(field Field, parent string) bool) {
	for _, field := range fields {
		if !fn(field, parent) {
			continue
		}
		if field.Kind.IsGroup() {
			Walk(field.Children, fieldpath.Join(parent, field.Name), fn)
		}
	}
}

// LeafPaths lists the canonical path of every non-group field in declaration
// order.
func LeafPaths(fields []Field) []string {
	var out []string
	Walk(fields, "", func(field Field, parent string) bool {
		if !field.Kind.IsGroup() {
			out = append(out, fieldpath.Join(parent, field.Name))
		}
		return true
	})
	return out
}

func child(fields []Field, name string) (Field, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
