package schema

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Authoring defects reported by Check. They are programmer errors in the
// schema, not user input problems.
var (
	ErrEmptyName         = errors.New("schema: field name is required")
	ErrInvalidName       = errors.New("schema: field name must not contain " + fieldpath.Separator)
	ErrDuplicateName     = errors.New("schema: duplicate sibling field name")
	ErrUnknownKind       = errors.New("schema: unknown field kind")
	ErrGroupWithoutChild = errors.New("schema: group field requires children")
	ErrLeafWithChildren  = errors.New("schema: only group fields may have children")
	ErrMissingOptions    = errors.New("schema: choice field requires options")
	ErrUnexpectedOptions = errors.New("schema: only choice fields may have options")
	ErrInvalidPattern    = errors.New("schema: validator pattern does not compile")
)

// FieldError ties an authoring defect to the field path it was found at.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v at %q", e.Err, e.Path)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Check verifies the structural preconditions the interpreter relies on:
// sibling names are unique and dot free, every kind is known, options and
// children match the kind, and patterns compile. All violations are joined
// into the returned error.
func Check(fields []Field) error {
	var errs []error
	checkFields(fields, "", &errs)
	return errors.Join(errs...)
}

func checkFields(fields []Field, parent string, errs *[]error) {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		path := fieldpath.Join(parent, field.Name)
		report := func(err error) {
			*errs = append(*errs, &FieldError{Path: path, Err: err})
		}

		switch {
		case field.Name == "" || !fieldpath.ValidName(field.Name):
			if field.Name == "" {
				report(ErrEmptyName)
			} else {
				report(ErrInvalidName)
			}
		default:
			if _, dup := seen[field.Name]; dup {
				report(ErrDuplicateName)
			}
			seen[field.Name] = struct{}{}
		}

		if !field.Kind.Known() {
			report(fmt.Errorf("%w %q", ErrUnknownKind, field.Kind))
			continue
		}

		if field.Kind.IsGroup() {
			if len(field.Children) == 0 {
				report(ErrGroupWithoutChild)
			}
			checkFields(field.Children, path, errs)
		} else if len(field.Children) > 0 {
			report(ErrLeafWithChildren)
		}

		if field.Kind.HasOptions() && len(field.Options) == 0 {
			report(ErrMissingOptions)
		}
		if !field.Kind.HasOptions() && len(field.Options) > 0 {
			report(ErrUnexpectedOptions)
		}

		if field.Pattern != "" {
			if _, err := regexp.Compile(field.Pattern); err != nil {
				report(fmt.Errorf("%w: %v", ErrInvalidPattern, err))
			}
		}
	}
}
