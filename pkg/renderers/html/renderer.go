// Package html renders forms as HTML fragments using pongo2 templates, one
// template per field kind.
package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/render"
	rendertemplate "github.com/goliatone/go-formengine/pkg/render/template"
	"github.com/goliatone/go-formengine/pkg/render/template/pongo"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	widgets          map[schema.Kind]render.Widget
	onUnsupported    func(*render.UnsupportedKindError)
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers a directory on disk over the template bundle, so a
// directory holding only field.tmpl overrides that one template.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = path
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidget registers widget for kind, replacing the built-in one if any.
func WithWidget(kind schema.Kind, widget render.Widget) Option {
	return func(cfg *config) {
		if widget == nil {
			return
		}
		if cfg.widgets == nil {
			cfg.widgets = make(map[schema.Kind]render.Widget)
		}
		cfg.widgets[kind] = widget
	}
}

// WithUnsupportedHandler is called for every field whose kind has no widget.
func WithUnsupportedHandler(fn func(*render.UnsupportedKindError)) Option {
	return func(cfg *config) {
		cfg.onUnsupported = fn
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	templates     rendertemplate.TemplateRenderer
	widgets       *render.Registry
	onUnsupported func(*render.UnsupportedKindError)
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithDir(cfg.templateDir),
			pongo.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	widgets := render.NewRegistry()
	for kind, widget := range cfg.widgets {
		if err := widgets.Register(kind, widget); err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
	}
	for kind, name := range builtinTemplates {
		if widgets.Has(kind) {
			continue
		}
		widgets.MustRegister(kind, templateWidget{templates: templates, name: name})
	}

	return &Renderer{
		templates:     templates,
		widgets:       widgets,
		onUnsupported: cfg.onUnsupported,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Widgets exposes the kind registry backing the renderer.
func (r *Renderer) Widgets() *render.Registry {
	return r.widgets
}

// Render draws the whole form.
func (r *Renderer) Render(ctx context.Context, form render.Form) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	fields, err := r.renderFields(ctx, form, form.Schema.Fields, "")
	if err != nil {
		return nil, err
	}

	method := form.Method
	if method == "" {
		method = http.MethodPost
	}
	hidden := make([]map[string]any, 0, len(form.Hidden))
	for _, field := range render.DedupeHidden(form.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	out, err := r.templates.RenderTemplate("form", map[string]any{
		"schema_id": form.Schema.ID,
		"title":     form.Schema.Label(),
		"action":    form.Action,
		"method":    method,
		"notice":    form.Notice,
		"hidden":    hidden,
		"fields":    string(fields),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render form: %w", err)
	}
	return []byte(out), nil
}

// RenderField draws a single field at path, including its label and error.
func (r *Renderer) RenderField(ctx context.Context, form render.Form, path string) ([]byte, error) {
	field, parent, ok := schema.Find(form.Schema.Fields, path)
	if !ok {
		return nil, fmt.Errorf("html renderer: unknown field %q", path)
	}
	return r.renderField(ctx, form, field, parent)
}

func (r *Renderer) renderFields(ctx context.Context, form render.Form, fields []schema.Field, parent string) ([]byte, error) {
	var buf bytes.Buffer
	for _, field := range fields {
		out, err := r.renderField(ctx, form, field, parent)
		if err != nil {
			return nil, err
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderField(ctx context.Context, form render.Form, field schema.Field, parent string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := fieldpath.Join(parent, field.Name)
	in := render.Input{
		Field: field,
		Path:  path,
		Error: form.Error(path),
	}
	if field.Kind.IsGroup() {
		nested, err := r.renderFields(ctx, form, field.Children, path)
		if err != nil {
			return nil, err
		}
		in.Nested = nested
	} else {
		in.Value = form.Value(path)
	}

	control, err := r.widgets.Render(ctx, in)
	var unsupported *render.UnsupportedKindError
	switch {
	case errors.As(err, &unsupported):
		if r.onUnsupported != nil {
			r.onUnsupported(unsupported)
		}
		fallback, ferr := r.templates.RenderTemplate("unsupported", widgetData(in))
		if ferr != nil {
			return nil, fmt.Errorf("html renderer: render fallback for %q: %w", path, ferr)
		}
		control = []byte(fallback)
	case err != nil:
		return nil, fmt.Errorf("html renderer: render %q: %w", path, err)
	}

	data := widgetData(in)
	data["control"] = string(control)
	out, err := r.templates.RenderTemplate("field", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: wrap %q: %w", path, err)
	}
	return []byte(out), nil
}
