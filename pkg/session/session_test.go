package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/upload"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func profileFields() []schema.Field {
	return []schema.Field{
		{Name: "name", Title: "Name", Kind: schema.KindText, Required: true},
		{Name: "age", Title: "Age", Kind: schema.KindNumber, Min: "18", Max: "99"},
		{Name: "tags", Title: "Tags", Kind: schema.KindMultiselect, Options: []schema.Option{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}},
		{Name: "plan", Title: "Plan", Kind: schema.KindButtons, Default: "free", Options: []schema.Option{{ID: "free", Title: "Free"}, {ID: "pro", Title: "Pro"}}},
		{Name: "cv", Title: "CV", Kind: schema.KindFile},
		{Name: "address", Title: "Address", Kind: schema.KindGroup, Children: []schema.Field{
			{Name: "city", Title: "City", Kind: schema.KindText, Required: true},
			{Name: "zip", Title: "Zip", Kind: schema.KindText, Pattern: "[0-9]{5}"},
		}},
	}
}

func testCatalog() *schema.Catalog {
	return schema.MustCatalog(
		schema.Schema{ID: "profile", Title: "Profile", Fields: profileFields()},
		schema.Schema{ID: "feedback", Fields: []schema.Field{
			{Name: "comment", Title: "Comment", Kind: schema.KindTextarea, Required: true},
		}},
	)
}

func newSession(t *testing.T, options ...Option) *Session {
	t.Helper()
	s := New(testCatalog(), options...)
	if err := s.Select("profile"); err != nil {
		t.Fatalf("select: %v", err)
	}
	return s
}

func TestInitializeSeedsEveryLeaf(t *testing.T) {
	got := Initialize(profileFields()).Interface()
	want := map[string]any{
		"name": "",
		"age":  "",
		"tags": []string{},
		"plan": "free",
		"cv":   "",
		"address": map[string]any{
			"city": "",
			"zip":  "",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("initial state mismatch (-want +got):\n%s", diff)
	}

	leaves := schema.LeafPaths(profileFields())
	sort.Strings(leaves)
	if diff := cmp.Diff(leaves, state.Paths(Initialize(profileFields()))); diff != "" {
		t.Fatalf("state shape mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectUnknownSchema(t *testing.T) {
	s := New(testCatalog())
	if err := s.Select("missing"); !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if err := s.Change("name", "x"); !errors.Is(err, ErrNoSchema) {
		t.Fatalf("expected ErrNoSchema, got %v", err)
	}
}

func TestOnFieldChangeValidatesOnlyThatField(t *testing.T) {
	s := newSession(t)
	fields := s.Fields()

	s.OnFieldChange(fields[0], "", "")
	if got := s.Error("name"); got != "Name is required" {
		t.Fatalf("unexpected name error %q", got)
	}

	// Editing a sibling leaves the stale name error in place.
	s.OnFieldChange(fields[1], "20", "")
	if got := s.Error("name"); got != "Name is required" {
		t.Fatalf("sibling change must not revalidate name, got %q", got)
	}
	if got := s.Error("age"); got != "" {
		t.Fatalf("unexpected age error %q", got)
	}

	s.OnFieldChange(fields[0], "Ada", "")
	if diff := cmp.Diff(validation.ErrorMap{}, s.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeByPath(t *testing.T) {
	s := newSession(t)

	if err := s.Change("address.zip", "123"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := s.Error("address.zip"); got != "Invalid Zip" {
		t.Fatalf("unexpected zip error %q", got)
	}
	if v, _ := s.Value("address.zip"); v != "123" {
		t.Fatalf("unexpected zip value %#v", v)
	}

	if err := s.Change("address", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("groups are not assignable, got %v", err)
	}
	if err := s.Change("nope", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSubmitGroupErrorKeyedAtChild(t *testing.T) {
	s := newSession(t)
	_ = s.Change("name", "Ada")

	result := s.Submit()
	if result.OK || result.Artifact != nil {
		t.Fatalf("expected failure, got %+v", result)
	}
	want := validation.ErrorMap{"address.city": "City is required"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, s.Errors()); diff != "" {
		t.Fatalf("session errors mismatch (-want +got):\n%s", diff)
	}
	if v, _ := s.Value("name"); v != "Ada" {
		t.Fatalf("failed submit must keep values, got %#v", v)
	}
}

func TestSubmitReplacesStaleErrors(t *testing.T) {
	s := newSession(t)
	_ = s.Change("age", "5")
	_ = s.Change("age", "")
	_ = s.Change("name", "")
	_ = s.Change("name", "Ada")
	_ = s.Change("address.city", "Rome")
	_ = s.Change("age", "3")
	_ = s.Change("age", "30")

	result := s.Submit()
	if !result.OK {
		t.Fatalf("expected success, got %+v", result.Errors)
	}
	if len(s.Errors()) != 0 {
		t.Fatalf("successful submit clears errors, got %v", s.Errors())
	}
}

func TestSubmitArtifactIsIsolated(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newSession(t, WithClock(func() time.Time { return fixed }))
	_ = s.Change("name", "Ada")
	_ = s.Change("address.city", "Rome")
	_ = s.Change("tags", []string{"a"})

	result := s.Submit()
	if !result.OK {
		t.Fatalf("expected success, got %v", result.Errors)
	}
	if diff := cmp.Diff(s.Values().Interface(), result.Artifact.Values.Interface()); diff != "" {
		t.Fatalf("artifact differs from state (-want +got):\n%s", diff)
	}
	if result.Artifact.SchemaID != "profile" || !result.Artifact.SubmittedAt.Equal(fixed) {
		t.Fatalf("unexpected artifact metadata %+v", result.Artifact)
	}

	_ = s.Change("name", "Grace")
	_ = s.Change("tags", []string{"a", "b"})

	data := result.Artifact.Data()
	if data["name"] != "Ada" {
		t.Fatalf("artifact aliased live state: %v", data["name"])
	}
	if diff := cmp.Diff([]string{"a"}, data["tags"]); diff != "" {
		t.Fatalf("artifact tags mutated (-want +got):\n%s", diff)
	}
	stored, ok := s.Artifact()
	if !ok || stored.Data()["name"] != "Ada" {
		t.Fatalf("stored artifact mismatch: %+v", stored)
	}
}

func TestSelectResetsEverything(t *testing.T) {
	s := newSession(t)
	_ = s.Change("name", "Ada")
	_ = s.Change("address.city", "Rome")
	if !s.Submit().OK {
		t.Fatalf("expected success")
	}
	_ = s.Change("name", "")
	before := s.Generation()

	if err := s.Select("feedback"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"comment": ""}, s.Values().Interface()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if len(s.Errors()) != 0 {
		t.Fatalf("errors not cleared: %v", s.Errors())
	}
	if _, ok := s.Artifact(); ok {
		t.Fatalf("artifact not cleared")
	}
	if s.Generation() != before+1 {
		t.Fatalf("generation did not advance")
	}

	// Selecting the same schema again still starts from scratch.
	_ = s.Change("comment", "hi")
	_ = s.Select("feedback")
	if v, _ := s.Value("comment"); v != "" {
		t.Fatalf("reselect must reset, got %#v", v)
	}
}

func TestOnFileSelectedApplied(t *testing.T) {
	s := newSession(t)
	outcome, err := s.ChangeFile(context.Background(), "cv", upload.File{Name: "docs/cv.pdf"})
	if err != nil {
		t.Fatalf("change file: %v", err)
	}
	if outcome != UploadApplied {
		t.Fatalf("unexpected outcome %s", outcome)
	}
	if v, _ := s.Value("cv"); v != "cv.pdf" {
		t.Fatalf("unexpected stored value %#v", v)
	}

	if _, err := s.ChangeFile(context.Background(), "name", upload.File{Name: "x"}); !errors.Is(err, ErrNotFileField) {
		t.Fatalf("expected ErrNotFileField, got %v", err)
	}
}

func TestOnFileSelectedFailure(t *testing.T) {
	var logs bytes.Buffer
	failing := upload.Func(func(context.Context, schema.Field, upload.File) (string, error) {
		return "", errors.New("connection reset")
	})
	s := newSession(t, WithUploader(failing), WithLogger(log.New(&logs, "", 0)))

	field, parent, _ := schema.Find(s.Fields(), "cv")
	outcome := s.OnFileSelected(context.Background(), field, upload.File{Name: "a.pdf"}, parent)
	if outcome != UploadFailed {
		t.Fatalf("unexpected outcome %s", outcome)
	}
	if got := s.Error("cv"); got != validation.UploadFailedMessage {
		t.Fatalf("unexpected error %q", got)
	}
	if v, _ := s.Value("cv"); v != "" {
		t.Fatalf("failed upload must not write a value, got %#v", v)
	}
	if !strings.Contains(logs.String(), "connection reset") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestOnFileSelectedStaleGenerationDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := upload.Func(func(ctx context.Context, _ schema.Field, file upload.File) (string, error) {
		close(started)
		<-release
		return file.Name, nil
	})
	s := newSession(t, WithUploader(blocking))
	field, parent, _ := schema.Find(s.Fields(), "cv")

	done := make(chan UploadOutcome, 1)
	go func() {
		done <- s.OnFileSelected(context.Background(), field, upload.File{Name: "late.pdf"}, parent)
	}()

	<-started
	// The session stays usable while the upload is in flight.
	if err := s.Change("name", "Ada"); err != nil {
		t.Fatalf("change during upload: %v", err)
	}
	if err := s.Select("profile"); err != nil {
		t.Fatalf("select: %v", err)
	}
	close(release)

	if outcome := <-done; outcome != UploadSuperseded {
		t.Fatalf("unexpected outcome %s", outcome)
	}
	if v, _ := s.Value("cv"); v != "" {
		t.Fatalf("stale upload leaked into new state: %#v", v)
	}
	if got := s.Error("cv"); got != "" {
		t.Fatalf("stale upload left an error: %q", got)
	}
}

func TestFileUploadBoundToLookupGeneration(t *testing.T) {
	s := newSession(t)

	// Resolve the way ChangeFile does, then let a Select land before the
	// upload starts.
	s.mu.Lock()
	generation := s.generation
	field, parent, err := s.fileLocked("cv")
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Select("profile"); err != nil {
		t.Fatalf("select: %v", err)
	}

	outcome := s.onFileSelected(context.Background(), field, upload.File{Name: "old.pdf"}, parent, generation)
	if outcome != UploadSuperseded {
		t.Fatalf("unexpected outcome %s", outcome)
	}
	if v, _ := s.Value("cv"); v != "" {
		t.Fatalf("upload resolved before Select leaked into new state: %#v", v)
	}
}

func TestChangeFileSelectDuringUpload(t *testing.T) {
	var s *Session
	reselecting := upload.Func(func(_ context.Context, _ schema.Field, file upload.File) (string, error) {
		if err := s.Select("profile"); err != nil {
			return "", err
		}
		return file.Name, nil
	})
	s = newSession(t, WithUploader(reselecting))

	outcome, err := s.ChangeFile(context.Background(), "cv", upload.File{Name: "cv.pdf"})
	if err != nil {
		t.Fatalf("change file: %v", err)
	}
	if outcome != UploadSuperseded {
		t.Fatalf("unexpected outcome %s", outcome)
	}
	if v, _ := s.Value("cv"); v != "" {
		t.Fatalf("superseded upload was stored: %#v", v)
	}
}

func TestChangeFileAtStaleGeneration(t *testing.T) {
	s := newSession(t)
	seen := s.Generation()
	if err := s.Select("profile"); err != nil {
		t.Fatalf("select: %v", err)
	}

	outcome, err := s.ChangeFileAt(context.Background(), seen, "cv", upload.File{Name: "cv.pdf"})
	if !errors.Is(err, ErrStaleGeneration) {
		t.Fatalf("expected ErrStaleGeneration, got %v", err)
	}
	if outcome != UploadSuperseded {
		t.Fatalf("unexpected outcome %s", outcome)
	}

	outcome, err = s.ChangeFileAt(context.Background(), s.Generation(), "cv", upload.File{Name: "cv.pdf"})
	if err != nil || outcome != UploadApplied {
		t.Fatalf("current generation: outcome %s, err %v", outcome, err)
	}
}

func TestApplyChanges(t *testing.T) {
	s := newSession(t)
	generation := s.Generation()

	err := s.ApplyChanges(generation, map[string]any{
		"name":         "Ada",
		"age":          "12",
		"address.city": "Rome",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v, _ := s.Value("address.city"); v != "Rome" {
		t.Fatalf("unexpected city %#v", v)
	}
	want := validation.ErrorMap{"age": "Age must be at least 18"}
	if diff := cmp.Diff(want, s.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyChangesIsAllOrNothing(t *testing.T) {
	s := newSession(t)
	generation := s.Generation()

	tests := []struct {
		name       string
		generation uint64
		values     map[string]any
		wantErr    error
	}{
		{name: "unknown path", generation: generation, values: map[string]any{"name": "Ada", "nope": "x"}, wantErr: ErrUnknownField},
		{name: "group path", generation: generation, values: map[string]any{"name": "Ada", "address": "x"}, wantErr: ErrUnknownField},
		{name: "file field", generation: generation, values: map[string]any{"name": "Ada", "cv": "x.pdf"}, wantErr: ErrUnknownField},
		{name: "stale generation", generation: generation - 1, values: map[string]any{"name": "Ada"}, wantErr: ErrStaleGeneration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.ApplyChanges(tt.generation, tt.values); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if v, _ := s.Value("name"); v != "" {
				t.Fatalf("rejected batch wrote name: %#v", v)
			}
		})
	}
}

func TestCurrentPairsSchemaWithGeneration(t *testing.T) {
	s := newSession(t)
	if err := s.Select("feedback"); err != nil {
		t.Fatalf("select: %v", err)
	}
	current, generation := s.Current()
	if current.ID != "feedback" || generation != 2 {
		t.Fatalf("unexpected current %q at %d", current.ID, generation)
	}
}
