// Package pongo implements template.TemplateRenderer on a pongo2 template set.
package pongo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formengine/pkg/render/template"
)

// ErrNoTemplates is returned by New when neither a directory nor an fs.FS is
// configured.
var ErrNoTemplates = errors.New("pongo: no template source configured")

const defaultExtension = ".tpl"

// Option configures an Engine.
type Option func(*Engine)

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		e.files = files
	}
}

// WithDir loads templates from a directory on disk. Templates found there win
// over the ones in WithFS.
func WithDir(dir string) Option {
	return func(e *Engine) {
		e.dir = strings.TrimSpace(dir)
	}
}

// WithExtension sets the suffix appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// WithGlobals exposes values to every template.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) {
		for key, value := range globals {
			if e.globals == nil {
				e.globals = make(pongo2.Context, len(globals))
			}
			e.globals[key] = value
		}
	}
}

// Engine renders templates and caches each parsed file.
type Engine struct {
	files   fs.FS
	dir     string
	ext     string
	globals pongo2.Context

	set    *pongo2.TemplateSet
	parsed sync.Map // path -> *pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine over the configured template sources.
func New(options ...Option) (*Engine, error) {
	e := &Engine{ext: defaultExtension}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}

	var loaders []pongo2.TemplateLoader
	if e.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(e.dir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir %s: %w", e.dir, err)
		}
		loaders = append(loaders, local)
	}
	if e.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(e.files))
	}
	if len(loaders) == 0 {
		return nil, ErrNoTemplates
	}

	e.set = pongo2.NewSet("formengine", loaders...)
	if e.globals != nil {
		e.set.Globals.Update(e.globals)
	}
	registerFilters()
	return e, nil
}

// RenderTemplate executes the template stored under name.
func (e *Engine) RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error) {
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tmpl, err := e.lookup(path)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data, path, out)
}

// RenderString parses and executes content without caching it.
func (e *Engine) RenderString(content string, data map[string]any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("pongo: parse inline template: %w", err)
	}
	return execute(tmpl, data, "inline template", out)
}

func (e *Engine) lookup(path string) (*pongo2.Template, error) {
	if cached, ok := e.parsed.Load(path); ok {
		return cached.(*pongo2.Template), nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %s: %w", path, err)
	}
	actual, _ := e.parsed.LoadOrStore(path, tmpl)
	return actual.(*pongo2.Template), nil
}

func execute(tmpl *pongo2.Template, data map[string]any, label string, out []io.Writer) (string, error) {
	rendered, err := tmpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("pongo: execute %s: %w", label, err)
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

var filtersOnce sync.Once

// pongo2 filters are process wide.
func registerFilters() {
	filtersOnce.Do(func() {
		filters := map[string]pongo2.FilterFunction{
			"trim":  filterTrim,
			"domid": filterDOMID,
		}
		for name, fn := range filters {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterDOMID turns a dotted field path into an element id.
func filterDOMID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue("field-" + strings.ReplaceAll(in.String(), ".", "-")), nil
}
