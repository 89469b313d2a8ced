// Package formengine wires the schema loaders, the session interpreter, and
// the html renderer behind a few entry points.
package formengine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/schema/openapi"
	"github.com/goliatone/go-formengine/pkg/session"
)

// LoadCatalog merges the schemas found at every location into one catalog.
// A location is a catalog file, an OpenAPI document, an http(s) URL of either,
// or a directory walked for JSON and YAML files. Ids must be unique across
// locations.
func LoadCatalog(ctx context.Context, locations []string, options ...schema.LoaderOption) (*schema.Catalog, error) {
	loader := NewLoader(options...)
	catalog := &schema.Catalog{}
	for _, location := range locations {
		files, err := expand(location)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			loaded, err := loadLocation(ctx, loader, file)
			if err != nil {
				return nil, err
			}
			for _, s := range loaded.List() {
				if err := catalog.Add(s); err != nil {
					return nil, fmt.Errorf("formengine: %s: %w", file, err)
				}
			}
		}
	}
	return catalog, nil
}

// OpenSession returns a session with schemaID selected.
func OpenSession(catalog *schema.Catalog, schemaID string, options ...session.Option) (*session.Session, error) {
	s := session.New(catalog, options...)
	if err := s.Select(schemaID); err != nil {
		return nil, err
	}
	return s, nil
}

// RenderHTML draws the session's current schema, values, and errors.
func RenderHTML(ctx context.Context, s *session.Session, options ...html.Option) ([]byte, error) {
	renderer, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, render.Form{
		Schema: s.Schema(),
		Values: s.Values(),
		Errors: s.Errors(),
	})
}

// IsOpenAPI reports whether raw is a JSON or YAML document with a top-level
// "openapi" key.
func IsOpenAPI(raw []byte) bool {
	var probe map[string]any
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe["openapi"]
	return ok
}

func expand(location string) ([]string, error) {
	trimmed := strings.TrimSpace(location)
	info, err := os.Stat(trimmed)
	if err != nil || !info.IsDir() {
		return []string{trimmed}, nil
	}
	var files []string
	err = filepath.WalkDir(trimmed, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && schema.IsCatalogFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("formengine: walk %s: %w", trimmed, err)
	}
	return files, nil
}

func loadLocation(ctx context.Context, loader schema.Loader, location string) (*schema.Catalog, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("formengine: load %s: %w", location, err)
	}
	if IsOpenAPI(doc.Raw()) {
		return openapi.Catalog(ctx, doc.Raw())
	}
	schemas, err := schema.Parse(doc)
	if err != nil {
		return nil, err
	}
	catalog, err := schema.NewCatalog(schemas...)
	if err != nil {
		return nil, fmt.Errorf("formengine: %s: %w", location, err)
	}
	return catalog, nil
}
