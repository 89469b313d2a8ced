// Package session interprets a form schema: it seeds state from defaults,
// applies edits with single-field validation, runs whole-form validation on
// submit, and reconciles file uploads against the schema generation that
// started them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/upload"
	"github.com/goliatone/go-formengine/pkg/validation"
)

var (
	// ErrUnknownSchema is returned by Select for ids missing from the catalog.
	ErrUnknownSchema = errors.New("session: unknown schema")
	// ErrUnknownField is returned when a path does not address a leaf field of
	// the selected schema.
	ErrUnknownField = errors.New("session: unknown field")
	// ErrNoSchema is returned by path based operations before Select.
	ErrNoSchema = errors.New("session: no schema selected")
	// ErrNotFileField is returned by ChangeFile for non-file fields.
	ErrNotFileField = errors.New("session: field is not a file field")
	// ErrStaleGeneration is returned by generation-bound operations after the
	// schema was selected again.
	ErrStaleGeneration = errors.New("session: stale generation")
)

// Session owns the form state, error map, and last artifact for one user.
// Operations are serialized; uploads run without holding the lock.
type Session struct {
	mu sync.Mutex

	catalog  *schema.Catalog
	uploader upload.Uploader
	now      func() time.Time
	logger   *log.Logger

	schema     schema.Schema
	store      *state.Store
	errs       validation.ErrorMap
	artifact   *Artifact
	generation uint64
}

// New constructs a Session over catalog. No schema is selected until Select.
func New(catalog *schema.Catalog, options ...Option) *Session {
	s := &Session{
		catalog:  catalog,
		uploader: upload.Local{},
		now:      time.Now,
		logger:   log.New(io.Discard, "", 0),
		store:    state.NewStore(state.EmptyGroup()),
		errs:     validation.ErrorMap{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Initialize builds the initial state for fields: each leaf holds its default,
// an empty list for multiselect, or "" otherwise. Groups nest their children
// under their own name.
func Initialize(fields []schema.Field) state.Node {
	children := make(map[string]state.Node, len(fields))
	for _, field := range fields {
		switch {
		case field.Kind.IsGroup():
			children[field.Name] = Initialize(field.Children)
		case field.Default != nil:
			children[field.Name] = state.Leaf(field.Default)
		case field.Kind.IsMultiValued():
			children[field.Name] = state.Leaf([]string{})
		default:
			children[field.Name] = state.Leaf("")
		}
	}
	return state.Group(children)
}

// Select switches to the schema registered under id. State is rebuilt from
// scratch, errors and the last artifact are dropped, and the generation moves
// on so in-flight uploads for the previous schema are discarded.
func (s *Session) Select(id string) error {
	selected, ok := s.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSchema, id)
	}
	if err := schema.Check(selected.Fields); err != nil {
		return fmt.Errorf("session: schema %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = selected
	s.store.Reset(Initialize(selected.Fields))
	s.errs = validation.ErrorMap{}
	s.artifact = nil
	s.generation++
	return nil
}

// OnFieldChange writes value at the field's path and re-validates that field
// alone. Siblings and ancestors keep whatever errors they had until Submit.
func (s *Session) OnFieldChange(field schema.Field, value any, parentPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeLocked(field, value, parentPath)
}

func (s *Session) changeLocked(field schema.Field, value any, parentPath string) {
	path := fieldpath.Join(parentPath, field.Name)
	s.store.Set(path, value)
	s.errs.Set(path, validation.Message(field, value))
}

// Change is OnFieldChange for callers that only know the canonical path.
func (s *Session) Change(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, parent, err := s.leafLocked(path)
	if err != nil {
		return err
	}
	s.changeLocked(field, value, parent)
	return nil
}

// OnFileSelected hands file to the uploader and stores the resulting display
// value through OnFieldChange. The session lock is released while the
// transport runs. A completion arriving after a schema switch is dropped, and
// a transport failure becomes the field's error rather than a returned error.
func (s *Session) OnFileSelected(ctx context.Context, field schema.Field, file upload.File, parentPath string) UploadOutcome {
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()
	return s.onFileSelected(ctx, field, file, parentPath, generation)
}

// onFileSelected runs the upload on behalf of generation. The caller must have
// resolved field under that same generation.
func (s *Session) onFileSelected(ctx context.Context, field schema.Field, file upload.File, parentPath string, generation uint64) UploadOutcome {
	path := fieldpath.Join(parentPath, field.Name)

	s.mu.Lock()
	uploader := s.uploader
	s.mu.Unlock()

	display, err := uploader.Upload(ctx, field, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		s.logger.Printf("session: dropped upload for %s from generation %d (now %d)", path, generation, s.generation)
		return UploadSuperseded
	}
	if err != nil {
		s.logger.Printf("session: upload for %s failed: %v", path, err)
		s.errs.Set(path, validation.UploadFailedMessage)
		return UploadFailed
	}
	s.changeLocked(field, display, parentPath)
	return UploadApplied
}

// ChangeFile is OnFileSelected addressed by canonical path. The upload is
// bound to the generation the path was resolved in.
func (s *Session) ChangeFile(ctx context.Context, path string, file upload.File) (UploadOutcome, error) {
	s.mu.Lock()
	generation := s.generation
	field, parent, err := s.fileLocked(path)
	s.mu.Unlock()
	if err != nil {
		return UploadFailed, err
	}
	return s.onFileSelected(ctx, field, file, parent, generation), nil
}

// ChangeFileAt is ChangeFile for a caller that saw the form at generation.
// It returns ErrStaleGeneration if the schema was selected again since.
func (s *Session) ChangeFileAt(ctx context.Context, generation uint64, path string, file upload.File) (UploadOutcome, error) {
	s.mu.Lock()
	if s.generation != generation {
		current := s.generation
		s.mu.Unlock()
		return UploadSuperseded, fmt.Errorf("%w: form generation %d, session at %d", ErrStaleGeneration, generation, current)
	}
	field, parent, err := s.fileLocked(path)
	s.mu.Unlock()
	if err != nil {
		return UploadFailed, err
	}
	return s.onFileSelected(ctx, field, file, parent, generation), nil
}

// ApplyChanges writes every path in values as Change would, in one critical
// section. Nothing is written when generation is not the current one or any
// path is not a leaf of the selected schema.
func (s *Session) ApplyChanges(generation uint64, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return fmt.Errorf("%w: form generation %d, session at %d", ErrStaleGeneration, generation, s.generation)
	}

	type resolved struct {
		field  schema.Field
		parent string
		value  any
	}
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	batch := make([]resolved, 0, len(paths))
	for _, path := range paths {
		field, parent, err := s.leafLocked(path)
		if err != nil {
			return err
		}
		if field.Kind == schema.KindFile {
			return fmt.Errorf("%w: %q is a file field", ErrUnknownField, path)
		}
		batch = append(batch, resolved{field: field, parent: parent, value: values[path]})
	}
	for _, change := range batch {
		s.changeLocked(change.field, change.value, change.parent)
	}
	return nil
}

// Submit validates the whole form. On success it returns a deep copy of the
// state as the artifact and clears the error map; on failure the error map is
// replaced by the fresh result. Entered values are kept either way.
func (s *Session) Submit() SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := validation.ValidateTree(s.schema.Fields, s.store.Root(), "")
	s.errs = result.Errors
	if !result.Valid {
		return SubmitResult{Errors: result.Errors.Clone()}
	}

	artifact := &Artifact{
		SchemaID:    s.schema.ID,
		Generation:  s.generation,
		SubmittedAt: s.now().UTC(),
		Values:      s.store.Snapshot(),
	}
	s.artifact = artifact
	copied := *artifact
	return SubmitResult{OK: true, Artifact: &copied, Errors: validation.ErrorMap{}}
}

// Values returns a copy of the current state.
func (s *Session) Values() state.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Value resolves one path in the current state.
func (s *Session) Value(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(path)
}

// Errors returns a copy of the error map.
func (s *Session) Errors() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs.Clone()
}

// Error returns the message recorded for path, or "".
func (s *Session) Error(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[path]
}

// Artifact returns the last successful submission since the schema was
// selected.
func (s *Session) Artifact() (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact == nil {
		return Artifact{}, false
	}
	return *s.artifact, true
}

// SchemaID returns the selected schema id, or "".
func (s *Session) SchemaID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.ID
}

// Schema returns the selected schema.
func (s *Session) Schema() schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Fields returns the root fields of the selected schema.
func (s *Session) Fields() []schema.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Fields
}

// Current returns the selected schema together with its generation.
func (s *Session) Current() (schema.Schema, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema, s.generation
}

// Generation counts schema selections.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) fileLocked(path string) (schema.Field, string, error) {
	field, parent, err := s.leafLocked(path)
	if err != nil {
		return schema.Field{}, "", err
	}
	if field.Kind != schema.KindFile {
		return schema.Field{}, "", fmt.Errorf("%w: %q", ErrNotFileField, path)
	}
	return field, parent, nil
}

func (s *Session) leafLocked(path string) (schema.Field, string, error) {
	if s.schema.ID == "" {
		return schema.Field{}, "", ErrNoSchema
	}
	field, parent, ok := schema.Find(s.schema.Fields, path)
	if !ok || field.Kind.IsGroup() {
		return schema.Field{}, "", fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	return field, parent, nil
}
