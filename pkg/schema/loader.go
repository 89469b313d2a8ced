package schema

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// Loader fetches catalog documents from a Source. The implementation lives in
// internal/loader; construct one through the module root.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures source resolution. HTTP stays disabled unless a
// client is supplied or AllowHTTPFallback is set.
type LoaderOptions struct {
	FileSystem        fs.FS
	HTTPClient        *http.Client
	AllowHTTPFallback bool
	RequestTimeout    time.Duration
}

// LoaderOption mutates LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem enables SourceKindFS lookups against files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient enables URL sources with a caller supplied client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables URL sources with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// NewLoaderOptions applies options in order.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Load reads every source through loader and registers the parsed schemas in
// one catalog, in source order.
func Load(ctx context.Context, loader Loader, sources ...Source) (*Catalog, error) {
	if loader == nil {
		return nil, fmt.Errorf("schema: loader is required")
	}
	catalog := &Catalog{}
	for _, src := range sources {
		doc, err := loader.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("schema: load %s: %w", locationOf(src), err)
		}
		if err := parseInto(catalog, doc); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// LoadFS walks fsys and registers every JSON or YAML catalog document it
// finds. A nil fsys yields an empty catalog.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{}
	if fsys == nil {
		return catalog, nil
	}
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsCatalogFile(name) {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", name, err)
		}
		doc, err := NewDocument(SourceFromFS(name), data)
		if err != nil {
			return err
		}
		return parseInto(catalog, doc)
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadFile reads a single catalog document from disk.
func LoadFile(name string) (*Catalog, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	doc, err := NewDocument(SourceFromFile(name), data)
	if err != nil {
		return nil, err
	}
	catalog := &Catalog{}
	if err := parseInto(catalog, doc); err != nil {
		return nil, err
	}
	return catalog, nil
}

// IsCatalogFile reports whether name has a JSON or YAML extension.
func IsCatalogFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseInto(catalog *Catalog, doc Document) error {
	schemas, err := Parse(doc)
	if err != nil {
		return err
	}
	for _, s := range schemas {
		if err := catalog.Add(s); err != nil {
			return fmt.Errorf("%w (file %s)", err, doc.Location())
		}
	}
	return nil
}

func locationOf(src Source) string {
	if src == nil {
		return "<nil>"
	}
	return src.Location()
}
