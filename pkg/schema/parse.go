package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Parse decodes a catalog document in any of these layouts:
//
//	schemas: {<id>: [fields...]}              # ids sorted
//	schemas: {<id>: {title, fields}}          # ids sorted
//	schemas: [{id, title, fields}, ...]       # declaration order
//	{id, title, fields}                       # single schema, id defaults to the file name
//
// Field keys follow Field's tags; the loader also accepts "label", "kind",
// "value", "pattern", "resolution", and a "data" key that holds options,
// children, or the upload endpoint depending on the field kind.
func Parse(doc Document) ([]Schema, error) {
	raw, err := decodeDocument(doc.Raw(), doc.Location())
	if err != nil {
		return nil, err
	}

	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: %s: document root must be an object", doc.Location())
	}

	if listed, ok := root["schemas"]; ok {
		return decodeSchemas(listed, doc.Location())
	}
	if _, ok := root["fields"]; ok {
		s, err := decodeSchema(root, doc.baseName(), doc.Location())
		if err != nil {
			return nil, err
		}
		return []Schema{s}, nil
	}
	return nil, fmt.Errorf("schema: %s: expected a \"schemas\" or \"fields\" key", doc.Location())
}

func decodeDocument(data []byte, source string) (any, error) {
	if out, ok := decodeJSON(data); ok {
		return out, nil
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err == nil {
		return normaliseYAML(out), nil
	}
	return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}

// decodeJSON keeps numbers as json.Number so large integer bounds and
// defaults survive unchanged. Trailing content means the payload is not JSON.
func decodeJSON(data []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return out, true
}

// normaliseYAML converts map[any]any nodes (non-string keys) into
// map[string]any so the decoder only deals with one map shape.
func normaliseYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for k, v := range typed {
			typed[k] = normaliseYAML(v)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = normaliseYAML(v)
		}
		return out
	case []any:
		for i, v := range typed {
			typed[i] = normaliseYAML(v)
		}
		return typed
	default:
		return typed
	}
}

func decodeSchemas(raw any, source string) ([]Schema, error) {
	switch typed := raw.(type) {
	case []any:
		out := make([]Schema, 0, len(typed))
		for i, entry := range typed {
			mapped, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("schema: %s: schemas[%d] must be an object", source, i)
			}
			s, err := decodeSchema(mapped, "", source)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]any:
		ids := make([]string, 0, len(typed))
		for id := range typed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]Schema, 0, len(ids))
		for _, id := range ids {
			var (
				s   Schema
				err error
			)
			switch entry := typed[id].(type) {
			case []any:
				s.ID = id
				s.Fields, err = decodeFields(entry, "", source)
			case map[string]any:
				s, err = decodeSchema(entry, id, source)
			default:
				err = fmt.Errorf("schema: %s: schema %q must be a list of fields or an object", source, id)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: %s: \"schemas\" must be a list or an object", source)
	}
}

func decodeSchema(raw map[string]any, fallbackID, source string) (Schema, error) {
	s := Schema{
		ID:    firstString(raw, "id"),
		Title: SanitizeText(firstString(raw, "title", "label")),
	}
	if s.ID == "" {
		s.ID = fallbackID
	}
	if s.ID == "" {
		return Schema{}, fmt.Errorf("schema: %s: schema id is required", source)
	}
	list, ok := raw["fields"].([]any)
	if !ok {
		return Schema{}, fmt.Errorf("schema: %s: schema %q requires a fields list", source, s.ID)
	}
	fields, err := decodeFields(list, "", source)
	if err != nil {
		return Schema{}, err
	}
	s.Fields = fields
	return s, nil
}

func decodeFields(list []any, parent, source string) ([]Field, error) {
	out := make([]Field, 0, len(list))
	for i, entry := range list {
		mapped, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: %s: field %d under %q must be an object", source, i, parent)
		}
		field, err := decodeField(mapped, parent, source)
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func decodeField(raw map[string]any, parent, source string) (Field, error) {
	field := Field{
		Name:         firstString(raw, "name"),
		Title:        SanitizeText(firstString(raw, "title", "label")),
		Required:     asBool(raw["required"]),
		Pattern:      firstString(raw, "validator", "pattern"),
		Min:          firstString(raw, "min"),
		Max:          firstString(raw, "max"),
		ErrorMessage: firstString(raw, "error", "errorMessage"),
		Placeholder:  firstString(raw, "placeholder"),
		Step:         firstString(raw, "step", "resolution"),
	}
	path := fieldpath.Join(parent, field.Name)

	kind, _ := ParseKind(firstString(raw, "type", "kind"))
	field.Kind = kind

	if value, ok := firstValue(raw, "default", "value"); ok && value != nil {
		field.Default = normaliseDefault(kind, value)
	}

	var err error
	data := raw["data"]
	switch {
	case kind.IsGroup():
		children, _ := firstValue(raw, "children", "fields")
		if children == nil {
			children = data
		}
		if list, ok := children.([]any); ok {
			field.Children, err = decodeFields(list, path, source)
		}
	case kind.HasOptions():
		options, _ := firstValue(raw, "options")
		if options == nil {
			options = data
		}
		field.Options, err = decodeOptions(options, path, source)
	case kind == KindFile:
		upload, _ := firstValue(raw, "upload")
		if upload == nil {
			upload = data
		}
		field.Upload = decodeUpload(upload)
	default:
		if list, ok := raw["children"].([]any); ok && len(list) > 0 {
			// Kept so Check can report the authoring defect.
			field.Children, err = decodeFields(list, path, source)
		}
	}
	if err != nil {
		return Field{}, err
	}
	return field, nil
}

func decodeOptions(raw any, path, source string) ([]Option, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]Option, 0, len(list))
	for i, entry := range list {
		switch typed := entry.(type) {
		case map[string]any:
			opt := Option{
				ID:    firstString(typed, "id", "value"),
				Title: SanitizeText(firstString(typed, "title", "label")),
			}
			if opt.ID == "" {
				return nil, fmt.Errorf("schema: %s: option %d of %q requires an id", source, i, path)
			}
			if opt.Title == "" {
				opt.Title = opt.ID
			}
			out = append(out, opt)
		default:
			id := asString(typed)
			if id == "" {
				return nil, fmt.Errorf("schema: %s: option %d of %q requires an id", source, i, path)
			}
			out = append(out, Option{ID: id, Title: id})
		}
	}
	return out, nil
}

func decodeUpload(raw any) *UploadEndpoint {
	mapped, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	endpoint := &UploadEndpoint{
		URL:    firstString(mapped, "url"),
		Method: strings.ToUpper(firstString(mapped, "method")),
	}
	if headers, ok := mapped["headers"].(map[string]any); ok && len(headers) > 0 {
		endpoint.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			endpoint.Headers[k] = asString(v)
		}
	}
	if endpoint.URL == "" {
		return nil
	}
	return endpoint
}

func normaliseDefault(kind Kind, value any) any {
	list, ok := value.([]any)
	if !ok {
		return value
	}
	if !kind.IsMultiValued() {
		return list
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}

func firstValue(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func firstString(raw map[string]any, keys ...string) string {
	value, ok := firstValue(raw, keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(asString(value))
}

func asString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		if typed.Equal(typed.Truncate(24 * time.Hour)) {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

func asBool(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		return err == nil && parsed
	default:
		return false
	}
}
