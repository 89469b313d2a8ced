// Package upload provides the transports a session hands selected files to.
// A transport resolves to the display value stored for the file field.
package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var (
	// ErrNoFile is returned when a File carries no name.
	ErrNoFile = errors.New("upload: file name is required")
	// ErrNoEndpoint is returned by HTTP when neither the field nor the
	// transport names an endpoint.
	ErrNoEndpoint = errors.New("upload: no endpoint configured")
	// ErrRejected wraps non-2xx responses.
	ErrRejected = errors.New("upload: rejected by endpoint")
)

// File is a user-selected file.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DisplayName returns the base name shown to users and stored in form state.
func (f File) DisplayName() string {
	name := strings.ReplaceAll(strings.TrimSpace(f.Name), "\\", "/")
	if name == "" {
		return ""
	}
	return path.Base(name)
}

// Uploader transfers a file for field and returns its display value.
type Uploader interface {
	Upload(ctx context.Context, field schema.Field, file File) (string, error)
}

// Func adapts a function to Uploader.
type Func func(ctx context.Context, field schema.Field, file File) (string, error)

// Upload calls f.
func (f Func) Upload(ctx context.Context, field schema.Field, file File) (string, error) {
	return f(ctx, field, file)
}

// Local keeps files in place and records only their display name.
type Local struct{}

// Upload returns the file's display name.
func (Local) Upload(ctx context.Context, _ schema.Field, file File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := file.DisplayName()
	if name == "" {
		return "", ErrNoFile
	}
	return name, nil
}
