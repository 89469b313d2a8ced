package render

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// ErrUnsupportedKind is matched by every UnsupportedKindError.
var ErrUnsupportedKind = errors.New("render: unsupported field kind")

// UnsupportedKindError reports a field whose kind has no widget. It concerns
// the render layer only; the form itself stays usable.
type UnsupportedKindError struct {
	Kind schema.Kind
	Path string
}

func (e *UnsupportedKindError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v %q", ErrUnsupportedKind, e.Kind)
	}
	return fmt.Sprintf("%v %q at %q", ErrUnsupportedKind, e.Kind, e.Path)
}

func (e *UnsupportedKindError) Unwrap() error {
	return ErrUnsupportedKind
}

// Issue converts the error into a validation issue for display.
func (e *UnsupportedKindError) Issue() validation.Issue {
	return validation.UnsupportedKind(e.Path, e.Kind)
}
