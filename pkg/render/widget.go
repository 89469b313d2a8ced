package render

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Input is what a widget needs to draw one field.
type Input struct {
	Field schema.Field
	// Path is the canonical dotted path of the field.
	Path  string
	Value any
	Error string
	// Nested holds the already rendered children of a group field.
	Nested []byte
}

// Widget renders one field kind.
type Widget interface {
	Render(ctx context.Context, in Input) ([]byte, error)
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func(ctx context.Context, in Input) ([]byte, error)

// Render calls f.
func (f WidgetFunc) Render(ctx context.Context, in Input) ([]byte, error) {
	return f(ctx, in)
}
