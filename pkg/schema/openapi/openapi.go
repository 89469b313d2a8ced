// Package openapi derives form schemas from the request bodies of OpenAPI 3
// operations. Each operation with a request body becomes one schema keyed by
// its operationId.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/schema"
)

const (
	// OrderExtension sets a property's position among its siblings. Properties
	// without it follow, sorted by name.
	OrderExtension = "x-order"
	// UploadExtension carries {url, method, headers} for binary properties.
	UploadExtension = "x-upload"
	// WidgetExtension overrides the derived kind, e.g. "textarea" or "buttons".
	WidgetExtension = "x-widget"
)

// textareaMinLength is the maxLength above which strings render as textarea.
const textareaMinLength = 255

var (
	// ErrOperationNotFound is returned when no operation matches the id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without an object body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// Options controls document loading.
type Options struct {
	ExternalRefs bool
	Validate     bool
}

// Option mutates Options.
type Option func(*Options)

// WithExternalRefs allows $ref to point outside the document.
func WithExternalRefs(enabled bool) Option {
	return func(o *Options) {
		o.ExternalRefs = enabled
	}
}

// WithValidation runs the kin-openapi document validator before conversion.
func WithValidation(enabled bool) Option {
	return func(o *Options) {
		o.Validate = enabled
	}
}

type operation struct {
	id     string
	method string
	path   string
	op     *openapi3.Operation
}

// FromDocument converts the request body of operationID into a schema.
func FromDocument(ctx context.Context, raw []byte, operationID string, options ...Option) (schema.Schema, error) {
	ops, err := load(ctx, raw, options...)
	if err != nil {
		return schema.Schema{}, err
	}
	for _, candidate := range ops {
		if candidate.id == operationID {
			return convertOperation(candidate)
		}
	}
	return schema.Schema{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
}

// Operations lists the ids of operations whose request body converts to a
// schema, sorted.
func Operations(ctx context.Context, raw []byte, options ...Option) ([]string, error) {
	ops, err := load(ctx, raw, options...)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, candidate := range ops {
		if requestSchema(candidate.op) != nil {
			ids = append(ids, candidate.id)
		}
	}
	return ids, nil
}

// Catalog converts every operation with an object request body.
func Catalog(ctx context.Context, raw []byte, options ...Option) (*schema.Catalog, error) {
	ops, err := load(ctx, raw, options...)
	if err != nil {
		return nil, err
	}
	catalog := &schema.Catalog{}
	for _, candidate := range ops {
		if requestSchema(candidate.op) == nil {
			continue
		}
		converted, err := convertOperation(candidate)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(converted); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func load(ctx context.Context, raw []byte, options ...Option) ([]operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	opts := Options{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.ExternalRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	var ops []operation
	if spec.Paths == nil {
		return ops, nil
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			ops = append(ops, operation{id: id, method: method, path: path, op: op})
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].id < ops[j].id })
	return ops, nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	var ref *openapi3.SchemaRef
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			ref = mt.Schema
			break
		}
	}
	if ref == nil {
		for _, mt := range content {
			if mt != nil && mt.Schema != nil {
				ref = mt.Schema
				break
			}
		}
	}
	if ref == nil || ref.Value == nil || !ref.Value.Type.Is(openapi3.TypeObject) {
		return nil
	}
	return ref.Value
}

func convertOperation(candidate operation) (schema.Schema, error) {
	body := requestSchema(candidate.op)
	if body == nil {
		return schema.Schema{}, fmt.Errorf("%w: %q", ErrNoRequestBody, candidate.id)
	}
	title := candidate.op.Summary
	if title == "" {
		title = body.Title
	}
	out := schema.Schema{
		ID:     candidate.id,
		Title:  schema.SanitizeText(title),
		Fields: convertProperties(body, map[*openapi3.Schema]bool{body: true}),
	}
	if err := schema.Check(out.Fields); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: operation %q: %w", candidate.id, err)
	}
	return out, nil
}

func convertProperties(parent *openapi3.Schema, visiting map[*openapi3.Schema]bool) []schema.Field {
	required := make(map[string]bool, len(parent.Required))
	for _, name := range parent.Required {
		required[name] = true
	}

	var fields []schema.Field
	for _, name := range propertyOrder(parent.Properties) {
		ref := parent.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, ok := convertProperty(name, ref.Value, visiting)
		if !ok {
			continue
		}
		field.Required = required[name] && !field.Kind.IsGroup()
		fields = append(fields, field)
	}
	return fields
}

func convertProperty(name string, src *openapi3.Schema, visiting map[*openapi3.Schema]bool) (schema.Field, bool) {
	field := schema.Field{
		Name:    name,
		Title:   schema.SanitizeText(src.Title),
		Pattern: src.Pattern,
	}
	if field.Title == "" {
		field.Title = name
	}

	switch {
	case src.Type.Is(openapi3.TypeObject):
		// Recursive references end the branch.
		if visiting[src] {
			return schema.Field{}, false
		}
		visiting[src] = true
		defer delete(visiting, src)
		field.Kind = schema.KindGroup
		field.Children = convertProperties(src, visiting)
		field.Pattern = ""
		return field, len(field.Children) > 0

	case src.Type.Is(openapi3.TypeArray):
		if src.Items == nil || src.Items.Value == nil || len(src.Items.Value.Enum) == 0 {
			return schema.Field{}, false
		}
		field.Kind = schema.KindMultiselect
		field.Options = enumOptions(src.Items.Value.Enum)
		field.Pattern = ""
		if list, ok := src.Default.([]any); ok {
			defaults := make([]string, 0, len(list))
			for _, item := range list {
				defaults = append(defaults, fmt.Sprint(item))
			}
			field.Default = defaults
		}
		return field, true

	case src.Type.Is(openapi3.TypeBoolean):
		field.Kind = schema.KindButtons
		field.Options = []schema.Option{{ID: "true", Title: "Yes"}, {ID: "false", Title: "No"}}
		field.Pattern = ""
		if src.Default != nil {
			field.Default = fmt.Sprint(src.Default)
		}
		return field, true

	case src.Type.Is(openapi3.TypeInteger) || src.Type.Is(openapi3.TypeNumber):
		if len(src.Enum) > 0 {
			field.Kind = schema.KindSelect
			field.Options = enumOptions(src.Enum)
			field.Pattern = ""
		} else {
			field.Kind = schema.KindNumber
			if src.Min != nil {
				field.Min = formatFloat(*src.Min)
			}
			if src.Max != nil {
				field.Max = formatFloat(*src.Max)
			}
			if src.Type.Is(openapi3.TypeInteger) {
				field.Step = "1"
			}
		}

	case src.Type.Is(openapi3.TypeString) || src.Type == nil:
		if len(src.Enum) > 0 {
			field.Kind = schema.KindSelect
			field.Options = enumOptions(src.Enum)
			field.Pattern = ""
		} else {
			field.Kind = stringKind(src)
		}
		if field.Kind == schema.KindFile {
			field.Pattern = ""
			field.Upload = uploadEndpoint(src.Extensions[UploadExtension])
		}

	default:
		return schema.Field{}, false
	}

	if src.Default != nil {
		field.Default = fmt.Sprint(src.Default)
	}
	if widget, ok := src.Extensions[WidgetExtension].(string); ok {
		if kind, known := schema.ParseKind(widget); known && compatible(field.Kind, kind) {
			field.Kind = kind
		}
	}
	return field, true
}

func stringKind(src *openapi3.Schema) schema.Kind {
	switch strings.ToLower(src.Format) {
	case "email":
		return schema.KindEmail
	case "date":
		return schema.KindDate
	case "date-time":
		return schema.KindDatetime
	case "binary":
		return schema.KindFile
	case "tel", "phone":
		return schema.KindTel
	case "textarea":
		return schema.KindTextarea
	}
	if src.MaxLength != nil && *src.MaxLength > textareaMinLength {
		return schema.KindTextarea
	}
	return schema.KindText
}

// compatible keeps x-widget from changing a field's value shape.
func compatible(derived, requested schema.Kind) bool {
	switch {
	case derived == requested:
		return true
	case derived == schema.KindSelect || derived == schema.KindButtons:
		return requested == schema.KindSelect || requested == schema.KindButtons
	case derived.IsScalar() && derived != schema.KindFile:
		return requested.IsScalar() && requested != schema.KindFile && !requested.HasOptions()
	default:
		return false
	}
}

func enumOptions(values []any) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, value := range values {
		id := fmt.Sprint(value)
		if f, ok := value.(float64); ok {
			id = formatFloat(f)
		}
		out = append(out, schema.Option{ID: id, Title: id})
	}
	return out
}

func uploadEndpoint(raw any) *schema.UploadEndpoint {
	mapped, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	url, _ := mapped["url"].(string)
	if url == "" {
		return nil
	}
	endpoint := &schema.UploadEndpoint{URL: url}
	if method, ok := mapped["method"].(string); ok {
		endpoint.Method = strings.ToUpper(method)
	}
	if headers, ok := mapped["headers"].(map[string]any); ok && len(headers) > 0 {
		endpoint.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			endpoint.Headers[k] = fmt.Sprint(v)
		}
	}
	return endpoint
}

func propertyOrder(properties openapi3.Schemas) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	position := func(name string) (float64, bool) {
		ref := properties[name]
		if ref == nil || ref.Value == nil {
			return 0, false
		}
		switch v := ref.Value.Extensions[OrderExtension].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		default:
			return 0, false
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		pi, oki := position(names[i])
		pj, okj := position(names[j])
		switch {
		case oki && okj && pi != pj:
			return pi < pj
		case oki != okj:
			return oki
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
