package html

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/render"
	rendertemplate "github.com/goliatone/go-formengine/pkg/render/template"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// templateWidget renders a field through one named template.
type templateWidget struct {
	templates rendertemplate.TemplateRenderer
	name      string
}

func (w templateWidget) Render(_ context.Context, in render.Input) ([]byte, error) {
	out, err := w.templates.RenderTemplate(w.name, widgetData(in))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// builtinTemplates maps every built-in kind to its template.
var builtinTemplates = map[schema.Kind]string{
	schema.KindText:        "input",
	schema.KindEmail:       "input",
	schema.KindTel:         "input",
	schema.KindNumber:      "input",
	schema.KindDate:        "input",
	schema.KindDatetime:    "input",
	schema.KindTextarea:    "textarea",
	schema.KindSelect:      "select",
	schema.KindMultiselect: "multiselect",
	schema.KindButtons:     "buttons",
	schema.KindFile:        "file",
	schema.KindGroup:       "group",
}

func inputType(kind schema.Kind) string {
	switch kind {
	case schema.KindDatetime:
		return "datetime-local"
	case schema.KindEmail, schema.KindTel, schema.KindNumber, schema.KindDate:
		return string(kind)
	default:
		return "text"
	}
}

func widgetData(in render.Input) map[string]any {
	field := in.Field
	data := map[string]any{
		"name":        field.Name,
		"path":        in.Path,
		"id":          domID(in.Path),
		"kind":        field.Kind.String(),
		"input_type":  inputType(field.Kind),
		"title":       field.Label(),
		"required":    field.Required,
		"placeholder": field.Placeholder,
		"pattern":     field.Pattern,
		"step":        field.Step,
		"value":       displayValue(in.Value),
		"error":       in.Error,
		"nested":      string(in.Nested),
	}
	if field.Kind.IsNumeric() || field.Kind.IsTemporal() {
		data["min"] = field.Min
		data["max"] = field.Max
	}
	if field.Kind.HasOptions() {
		selected := selectedIDs(in.Value)
		options := make([]map[string]any, 0, len(field.Options))
		for _, opt := range field.Options {
			_, on := selected[opt.ID]
			options = append(options, map[string]any{
				"id":       opt.ID,
				"title":    opt.Title,
				"selected": on,
			})
		}
		data["options"] = options
	}
	return data
}

func domID(path string) string {
	return "field-" + strings.ReplaceAll(path, ".", "-")
}

func displayValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	case []string:
		return strings.Join(typed, ",")
	default:
		return ""
	}
}

func selectedIDs(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch typed := value.(type) {
	case string:
		if typed != "" {
			out[typed] = struct{}{}
		}
	case []string:
		for _, id := range typed {
			out[id] = struct{}{}
		}
	case []any:
		for _, id := range typed {
			if s, ok := id.(string); ok {
				out[s] = struct{}{}
			}
		}
	}
	return out
}
