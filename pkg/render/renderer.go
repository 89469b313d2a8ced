package render

import (
	"context"
)

// Renderer turns a whole form into a byte representation (HTML, text, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form Form) ([]byte, error)
}
