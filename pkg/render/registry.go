package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Registry maps field kinds to widgets. New kinds are supported by
// registering a widget, not by editing a switch.
type Registry struct {
	mu      sync.RWMutex
	widgets map[schema.Kind]Widget
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		widgets: make(map[schema.Kind]Widget),
	}
}

// Register adds a widget for kind. Duplicate kinds return an error.
func (r *Registry) Register(kind schema.Kind, widget Widget) error {
	if widget == nil {
		return fmt.Errorf("render: widget is required")
	}
	if kind == "" {
		return fmt.Errorf("render: widget kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.widgets[kind]; exists {
		return fmt.Errorf("render: widget for kind %q already registered", kind)
	}

	r.widgets[kind] = widget
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(kind schema.Kind, widget Widget) {
	if err := r.Register(kind, widget); err != nil {
		panic(err)
	}
}

// Get retrieves the widget for kind. A miss returns *UnsupportedKindError.
func (r *Registry) Get(kind schema.Kind) (Widget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	widget, ok := r.widgets[kind]
	if !ok {
		return nil, &UnsupportedKindError{Kind: kind}
	}
	return widget, nil
}

// Render dispatches in to the widget registered for its field kind.
func (r *Registry) Render(ctx context.Context, in Input) ([]byte, error) {
	widget, err := r.Get(in.Field.Kind)
	if err != nil {
		var unsupported *UnsupportedKindError
		if errors.As(err, &unsupported) {
			unsupported.Path = in.Path
		}
		return nil, err
	}
	return widget.Render(ctx, in)
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []schema.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]schema.Kind, 0, len(r.widgets))
	for kind := range r.widgets {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Has reports whether a widget is registered for kind.
func (r *Registry) Has(kind schema.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.widgets[kind]
	return ok
}
