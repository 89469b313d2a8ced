package schema

import (
	"errors"
	"path"
	"strings"
)

// Document wraps a raw catalog payload with its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument validates and copies the payload.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Document{}, errors.New("schema: document " + src.Location() + " is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// baseName strips directories and extension from the location; single-schema
// documents without an id are registered under it.
func (d Document) baseName() string {
	loc := d.Location()
	if idx := strings.IndexAny(loc, "?#"); idx >= 0 {
		loc = loc[:idx]
	}
	base := path.Base(strings.ReplaceAll(loc, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
