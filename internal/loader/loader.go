// Package loader reads catalog documents from files, an fs.FS, or HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var (
	ErrNilSource         = errors.New("loader: source is nil")
	ErrEmptyLocation     = errors.New("loader: source location is empty")
	ErrNoFileSystem      = errors.New("loader: no fs.FS configured")
	ErrHTTPDisabled      = errors.New("loader: http sources are disabled")
	ErrUnsupportedSource = errors.New("loader: unsupported source kind")
)

// maxDocumentBytes caps remote catalog payloads.
const maxDocumentBytes = 4 << 20

const acceptCatalog = "application/json, application/yaml;q=0.9, */*;q=0.5"

// Loader implements schema.Loader by dispatching on the source kind.
type Loader struct {
	files   fs.FS
	client  *http.Client
	timeout time.Duration
}

var _ schema.Loader = (*Loader)(nil)

// New builds a Loader. URL sources stay disabled unless options carry a
// client or AllowHTTPFallback.
func New(options schema.LoaderOptions) *Loader {
	l := &Loader{files: options.FileSystem, timeout: options.RequestTimeout}
	if options.HTTPClient != nil {
		c := *options.HTTPClient
		if c.Timeout == 0 {
			c.Timeout = l.timeout
		}
		l.client = &c
	} else if options.AllowHTTPFallback {
		l.client = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load reads the payload behind src into a schema.Document.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, ErrNilSource
	}
	location := src.Location()
	if location == "" {
		return schema.Document{}, ErrEmptyLocation
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = os.ReadFile(location)
	case schema.SourceKindFS:
		if l.files == nil {
			return schema.Document{}, ErrNoFileSystem
		}
		data, err = fs.ReadFile(l.files, location)
	case schema.SourceKindURL:
		data, err = l.fetch(ctx, location)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedSource, src.Kind())
	}
	if err != nil {
		return schema.Document{}, err
	}
	return schema.NewDocument(src, data)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		return nil, ErrHTTPDisabled
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: build request: %w", err)
	}
	req.Header.Set("Accept", acceptCatalog)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("loader: fetch %s: status %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}
