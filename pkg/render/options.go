package render

import (
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Form is the per-request view a Renderer draws: the schema, the live values,
// and the current error map.
type Form struct {
	Schema schema.Schema
	Values state.Node
	Errors validation.ErrorMap
	// Action and Method describe where a browser posts the form. Empty Action
	// renders no submit target.
	Action string
	Method string
	// Hidden fields are emitted before the visible fields.
	Hidden []HiddenField
	// Notice is an optional message shown above the fields, such as a
	// submission result.
	Notice string
}

// Value resolves path in the form values.
func (f Form) Value(path string) any {
	value, _ := state.Resolve(f.Values, path)
	return value
}

// Error returns the message recorded for path.
func (f Form) Error(path string) string {
	return f.Errors[path]
}
