package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/upload"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// noneOption is offered first on optional single-choice prompts and maps to "".
const noneOption = "(none)"

// Prompter asks for one field value. current is the value held by the session
// for the field's path. The returned value goes through session.OnFieldChange.
type Prompter func(ctx context.Context, driver PromptDriver, field schema.Field, current any) (any, error)

// Renderer fills forms from terminal prompts. Every answer is written through
// the session, so the session's per-field errors decide when to re-prompt.
type Renderer struct {
	driver            PromptDriver
	stdio             terminal.Stdio
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	sessionOptions    []session.Option
	custom            map[schema.Kind]Prompter
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver on the process
// streams, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		custom:       make(map[schema.Kind]Prompter),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, r.outputFormat)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.stdio, r.theme.PromptPrefix)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render runs a throwaway session over form.Schema, seeded with the non-empty
// form values, and returns the submitted values in the configured format.
func (r *Renderer) Render(ctx context.Context, form render.Form) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	catalog, err := schema.NewCatalog(form.Schema)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	s := session.New(catalog, r.sessionOptions...)
	if err := s.Select(form.Schema.ID); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	for _, path := range schema.LeafPaths(form.Schema.Fields) {
		value, ok := state.Resolve(form.Values, path)
		if !ok || validation.IsEmpty(value) {
			continue
		}
		if err := s.Change(path, value); err != nil {
			return nil, fmt.Errorf("tui: %w", err)
		}
	}

	artifact, err := r.Fill(ctx, s)
	if err != nil {
		return nil, err
	}
	return r.Serialize(artifact)
}

// Fill prompts for every field of the session's schema in declaration order,
// then submits. Fields the submit rejects are prompted again for as long as
// the user agrees to fix them.
func (r *Renderer) Fill(ctx context.Context, s *session.Session) (session.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return session.Artifact{}, err
	}
	if r.driver == nil {
		return session.Artifact{}, errors.New("tui: prompt driver is nil")
	}
	if s.SchemaID() == "" {
		return session.Artifact{}, fmt.Errorf("tui: %w", session.ErrNoSchema)
	}

	current := s.Schema()
	if err := r.info(ctx, current.Label()); err != nil {
		return session.Artifact{}, err
	}
	if err := r.promptFields(ctx, s, current.Fields, ""); err != nil {
		return session.Artifact{}, err
	}

	for {
		result := s.Submit()
		if result.OK {
			return *result.Artifact, nil
		}
		for _, path := range result.Errors.Paths() {
			if err := r.fail(ctx, fmt.Sprintf("%s: %s", path, result.Errors[path])); err != nil {
				return session.Artifact{}, err
			}
		}
		again, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: "Fix the fields above?",
			Default: true,
		})
		if err != nil {
			return session.Artifact{}, err
		}
		if !again {
			return session.Artifact{}, fmt.Errorf("%w: %d field(s)", ErrIncomplete, len(result.Errors))
		}
		for _, path := range result.Errors.Paths() {
			field, parent, ok := schema.Find(current.Fields, path)
			if !ok || field.Kind.IsGroup() {
				continue
			}
			if err := r.promptLeaf(ctx, s, field, parent); err != nil {
				return session.Artifact{}, err
			}
		}
	}
}

// Serialize encodes the artifact values in the configured output format after
// applying the submit transformer.
func (r *Renderer) Serialize(artifact session.Artifact) ([]byte, error) {
	values := artifact.Data()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.MarshalIndent(values, "", "  ")
	}
}

func (r *Renderer) promptFields(ctx context.Context, s *session.Session, fields []schema.Field, parent string) error {
	for _, field := range fields {
		if field.Kind.IsGroup() {
			if err := r.info(ctx, field.Label()); err != nil {
				return err
			}
			if err := r.promptFields(ctx, s, field.Children, fieldpath.Join(parent, field.Name)); err != nil {
				return err
			}
			continue
		}
		if err := r.promptLeaf(ctx, s, field, parent); err != nil {
			return err
		}
	}
	return nil
}

// promptLeaf asks until the session holds no error for the field.
func (r *Renderer) promptLeaf(ctx context.Context, s *session.Session, field schema.Field, parent string) error {
	path := fieldpath.Join(parent, field.Name)
	prompter := r.prompterFor(field.Kind)
	if prompter == nil && field.Kind != schema.KindFile {
		return r.fail(ctx, validation.UnsupportedKind(path, field.Kind).Message)
	}

	for {
		current, _ := s.Value(path)
		if prompter != nil {
			value, err := prompter(ctx, r.driver, field, current)
			if err != nil {
				return err
			}
			s.OnFieldChange(field, value, parent)
		} else if err := r.promptFile(ctx, s, field, parent); err != nil {
			return err
		}

		msg := s.Error(path)
		if msg == "" {
			return nil
		}
		if err := r.fail(ctx, msg); err != nil {
			return err
		}
	}
}

func (r *Renderer) prompterFor(kind schema.Kind) Prompter {
	if prompter, ok := r.custom[kind]; ok {
		return prompter
	}
	switch kind {
	case schema.KindText, schema.KindEmail, schema.KindTel, schema.KindNumber, schema.KindDate, schema.KindDatetime:
		return promptInput
	case schema.KindTextarea:
		return promptTextArea
	case schema.KindSelect, schema.KindButtons:
		return promptSelect
	case schema.KindMultiselect:
		return promptMultiSelect
	default:
		return nil
	}
}

func promptInput(ctx context.Context, driver PromptDriver, field schema.Field, current any) (any, error) {
	out, err := driver.Input(ctx, InputConfig{
		Message:     message(field),
		Default:     stringValue(current),
		Help:        hint(field),
		Placeholder: field.Placeholder,
	})
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(out), nil
}

func promptTextArea(ctx context.Context, driver PromptDriver, field schema.Field, current any) (any, error) {
	out, err := driver.TextArea(ctx, TextAreaConfig{
		Message: message(field),
		Default: stringValue(current),
		Help:    field.Placeholder,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func promptSelect(ctx context.Context, driver PromptDriver, field schema.Field, current any) (any, error) {
	ids, titles := optionLists(field)
	if !field.Required {
		ids = append([]string{""}, ids...)
		titles = append([]string{noneOption}, titles...)
	}
	idx, err := driver.Select(ctx, SelectConfig{
		Message:      message(field),
		Options:      titles,
		DefaultIndex: slices.Index(ids, stringValue(current)),
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(ids) {
		return "", nil
	}
	return ids[idx], nil
}

func promptMultiSelect(ctx context.Context, driver PromptDriver, field schema.Field, current any) (any, error) {
	ids, titles := optionLists(field)
	indices, err := driver.MultiSelect(ctx, SelectConfig{
		Message:  message(field),
		Options:  titles,
		Defaults: checkedIndices(ids, stringSlice(current)),
	})
	if err != nil {
		return nil, err
	}
	selected := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(ids) {
			selected = append(selected, ids[idx])
		}
	}
	return selected, nil
}

// promptFile asks for a local path and hands the file to the session's
// uploader. An empty answer clears the field.
func (r *Renderer) promptFile(ctx context.Context, s *session.Session, field schema.Field, parent string) error {
	for {
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: message(field),
			Help:    "Path to a local file",
		})
		if err != nil {
			return err
		}
		name := strings.TrimSpace(answer)
		if name == "" {
			s.OnFieldChange(field, "", parent)
			return nil
		}

		file, err := os.Open(name)
		if err != nil {
			if err := r.fail(ctx, fmt.Sprintf("cannot open %s: %v", name, err)); err != nil {
				return err
			}
			continue
		}
		outcome := r.upload(ctx, s, field, parent, file)
		if outcome == session.UploadSuperseded {
			return ErrSuperseded
		}
		return nil
	}
}

func (r *Renderer) upload(ctx context.Context, s *session.Session, field schema.Field, parent string, file *os.File) session.UploadOutcome {
	defer file.Close()
	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return s.OnFileSelected(ctx, field, upload.File{
		Name:        file.Name(),
		ContentType: mime.TypeByExtension(filepath.Ext(file.Name())),
		Size:        size,
		Body:        file,
	}, parent)
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	if msg == "" {
		return nil
	}
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func message(field schema.Field) string {
	if field.Required {
		return field.Label() + " *"
	}
	return field.Label()
}

func hint(field schema.Field) string {
	var parts []string
	switch {
	case field.Kind == schema.KindDate:
		parts = append(parts, "YYYY-MM-DD")
	case field.Kind == schema.KindDatetime:
		parts = append(parts, "YYYY-MM-DDTHH:MM")
	}
	if field.HasMin() {
		parts = append(parts, "min "+field.Min)
	}
	if field.HasMax() {
		parts = append(parts, "max "+field.Max)
	}
	return strings.Join(parts, ", ")
}

func optionLists(field schema.Field) ([]string, []string) {
	ids := make([]string, len(field.Options))
	titles := make([]string, len(field.Options))
	for i, opt := range field.Options {
		ids[i] = opt.ID
		titles[i] = opt.Title
		if titles[i] == "" {
			titles[i] = opt.ID
		}
	}
	return ids, titles
}

// checkedIndices lists the positions of ids that appear in selected.
func checkedIndices(ids, selected []string) []int {
	var out []int
	for i, id := range ids {
		if slices.Contains(selected, id) {
			out = append(out, i)
		}
	}
	return out
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(fieldpath.Join(prefix, key), val, out)
		}
	case []string:
		for _, val := range v {
			out.Add(prefix+"[]", val)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	default:
		out.Set(prefix, stringValue(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, fieldpath.Join(prefix, key), v[key])
		}
	case []string:
		fmt.Fprintf(b, "%s=%s\n", prefix, strings.Join(v, ", "))
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
