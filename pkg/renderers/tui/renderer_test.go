package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2/terminal"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/upload"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputConfigs []InputConfig
	onTextArea   func()
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	if s.onTextArea != nil {
		s.onTextArea()
	}
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newSession(t *testing.T, id string, options ...session.Option) *session.Session {
	t.Helper()
	s := session.New(testsupport.Catalog(), options...)
	if err := s.Select(id); err != nil {
		t.Fatalf("select %s: %v", id, err)
	}
	return s
}

func TestFill_RepromptsUntilFieldIsValid(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "not-an-email", "ada@example.com", "", "42"},
		textAreas: []string{"hello"},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	s := newSession(t, "basic")
	artifact, err := r.Fill(context.Background(), s)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"phone": "",
		"age":   "42",
		"bio":   "hello",
	}
	if diff := cmp.Diff(want, artifact.Data()); diff != "" {
		t.Fatalf("artifact mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{"Basic Form", "Please enter a valid email address"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := driver.inputConfigs[0].Message; got != "Full Name *" {
		t.Fatalf("expected required marker, got %q", got)
	}
	if got := driver.inputConfigs[4].Help; got != "min 18, max 100" {
		t.Fatalf("expected bounds hint, got %q", got)
	}
}

func TestFill_AdvancedSchemaWithUpload(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(resume, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	uploader := &testsupport.StubUploader{}
	driver := &stubDriver{
		inputs:    []string{"1990-05-01", "", resume, "Via Roma 1", "Rome", "00100"},
		selectIdx: []int{1, 2},
		multiIdx:  [][]int{{0, 2}},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	s := newSession(t, "advanced", session.WithUploader(uploader))
	artifact, err := r.Fill(context.Background(), s)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{
		"birthdate":   "1990-05-01",
		"appointment": "",
		"country":     "it",
		"interests":   []string{"sports", "travel"},
		"plan":        "pro",
		"resume":      "resume.pdf",
		"address": map[string]any{
			"street": "Via Roma 1",
			"city":   "Rome",
			"zip":    "00100",
		},
	}
	if diff := cmp.Diff(want, artifact.Data()); diff != "" {
		t.Fatalf("artifact mismatch (-want +got):\n%s", diff)
	}

	calls := uploader.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one upload, got %d", len(calls))
	}
	if calls[0].Size != int64(len("%PDF-1.4")) {
		t.Fatalf("unexpected upload size %d", calls[0].Size)
	}
	if diff := cmp.Diff([]string{"Advanced Form", "Address"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_UploadFailureReprompts(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(doc, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	catalog := schema.MustCatalog(schema.Schema{
		ID:     "upload",
		Fields: []schema.Field{{Name: "doc", Title: "Document", Kind: schema.KindFile}},
	})
	s := session.New(catalog, session.WithUploader(upload.Func(func(context.Context, schema.Field, upload.File) (string, error) {
		return "", errors.New("connection refused")
	})))
	if err := s.Select("upload"); err != nil {
		t.Fatalf("select: %v", err)
	}

	driver := &stubDriver{inputs: []string{filepath.Join(dir, "missing.txt"), doc, ""}}
	r, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	artifact, err := r.Fill(context.Background(), s)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"doc": ""}, artifact.Data()); diff != "" {
		t.Fatalf("artifact mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 3 {
		t.Fatalf("expected title, open error, upload error; got %q", driver.infoMessages)
	}
	if got := driver.infoMessages[2]; got != "! File upload failed" {
		t.Fatalf("unexpected upload message %q", got)
	}
}

func TestFill_SubmitRejectionPromptsFailingFields(t *testing.T) {
	var s *session.Session
	driver := &stubDriver{
		inputs:    []string{"Ada", "ada@example.com", "", "30", "Grace"},
		textAreas: []string{""},
		confirm:   []bool{true},
	}
	// Another writer clears the name after it was prompted.
	driver.onTextArea = func() {
		if err := s.Change("name", ""); err != nil {
			t.Errorf("change: %v", err)
		}
	}
	s = newSession(t, "basic")

	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	artifact, err := r.Fill(context.Background(), s)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if got := artifact.Data()["name"]; got != "Grace" {
		t.Fatalf("expected re-prompted name, got %v", got)
	}
	if diff := cmp.Diff([]string{"Basic Form", "name: Full Name is required"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_DeclinedFixReturnsIncomplete(t *testing.T) {
	var s *session.Session
	driver := &stubDriver{
		inputs:    []string{"Ada", "ada@example.com", "", ""},
		textAreas: []string{""},
		confirm:   []bool{false},
	}
	driver.onTextArea = func() {
		_ = s.Change("email", "broken")
	}
	s = newSession(t, "basic")

	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	_, err = r.Fill(context.Background(), s)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if _, ok := s.Artifact(); ok {
		t.Fatalf("expected no artifact after declined fix")
	}
}

func TestFill_RequiresSelectedSchema(t *testing.T) {
	r, err := New(WithPromptDriver(&stubDriver{}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	_, err = r.Fill(context.Background(), session.New(testsupport.Catalog()))
	if !errors.Is(err, session.ErrNoSchema) {
		t.Fatalf("expected ErrNoSchema, got %v", err)
	}
}

func TestFill_CustomPrompter(t *testing.T) {
	driver := &stubDriver{textAreas: []string{"bio"}}
	r, err := New(
		WithPromptDriver(driver),
		WithPrompter(schema.KindText, func(context.Context, PromptDriver, schema.Field, any) (any, error) {
			return "fixed", nil
		}),
		WithPrompter(schema.KindEmail, func(context.Context, PromptDriver, schema.Field, any) (any, error) {
			return "fixed@example.com", nil
		}),
		WithPrompter(schema.KindTel, func(context.Context, PromptDriver, schema.Field, any) (any, error) {
			return "", nil
		}),
		WithPrompter(schema.KindNumber, func(context.Context, PromptDriver, schema.Field, any) (any, error) {
			return "18", nil
		}),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	artifact, err := r.Fill(context.Background(), newSession(t, "basic"))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if got := artifact.Data()["name"]; got != "fixed" {
		t.Fatalf("expected custom prompter value, got %v", got)
	}
	if driver.inputPos != 0 {
		t.Fatalf("expected no driver input calls, got %d", driver.inputPos)
	}
}

func contactSchema() schema.Schema {
	return schema.Schema{
		ID:    "contact",
		Title: "Contact",
		Fields: []schema.Field{
			{Name: "name", Title: "Name", Kind: schema.KindText, Required: true},
			{Name: "tags", Title: "Tags", Kind: schema.KindMultiselect, Options: []schema.Option{
				{ID: "a", Title: "A"},
				{ID: "b", Title: "B"},
			}},
		},
	}
}

func TestRender_OutputFormats(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
		ctype  string
	}{
		{format: OutputFormatPrettyText, want: "name=Ada\ntags=b\n", ctype: "text/plain"},
		{format: OutputFormatFormURLEncoded, want: "name=Ada&tags%5B%5D=b", ctype: "application/x-www-form-urlencoded"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			driver := &stubDriver{inputs: []string{"Ada"}, multiIdx: [][]int{{1}}}
			r, err := New(WithPromptDriver(driver), WithOutputFormat(tt.format))
			if err != nil {
				t.Fatalf("new renderer: %v", err)
			}
			out, err := r.Render(context.Background(), render.Form{Schema: contactSchema()})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if string(out) != tt.want {
				t.Fatalf("unexpected output %q", out)
			}
			if r.ContentType() != tt.ctype {
				t.Fatalf("unexpected content type %q", r.ContentType())
			}
		})
	}
}

func TestRender_PrefillsAndTransformsJSON(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Grace"}, multiIdx: [][]int{{0}}}
	r, err := New(
		WithPromptDriver(driver),
		WithSessionOptions(session.WithClock(func() time.Time { return time.Unix(0, 0) })),
		WithSubmitTransformer(func(values map[string]any) (map[string]any, error) {
			values["source"] = "tui"
			return values, nil
		}),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := render.Form{
		Schema: contactSchema(),
		Values: state.FromInterface(map[string]any{"name": "Grace"}),
	}
	out, err := r.Render(context.Background(), form)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if got := driver.inputConfigs[0].Default; got != "Grace" {
		t.Fatalf("expected prefilled default, got %q", got)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := map[string]any{
		"name":   "Grace",
		"tags":   []any{"a"},
		"source": "tui",
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_TransformerError(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Ada"}, multiIdx: [][]int{{}}}
	r, err := New(
		WithPromptDriver(driver),
		WithSubmitTransformer(func(map[string]any) (map[string]any, error) {
			return nil, errors.New("boom")
		}),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := r.Render(context.Background(), render.Form{Schema: contactSchema()}); err == nil {
		t.Fatalf("expected transformer error")
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestSurveyDriver_InfoUsesConfiguredOutput(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer out.Close()

	driver := NewSurveyDriver(terminal.Stdio{Out: out}, "")
	if err := driver.Info(context.Background(), "hello"); err != nil {
		t.Fatalf("info: %v", err)
	}
	written, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(written) != "hello\n" {
		t.Fatalf("unexpected output %q", written)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.Input(ctx, InputConfig{Message: "name"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
