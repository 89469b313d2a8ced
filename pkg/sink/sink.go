// Package sink stores submitted artifacts: as JSON lines on a writer or as
// rows in SQLite.
package sink

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/goliatone/go-formengine/pkg/session"
)

// ErrNotFound is returned by Get for unknown record ids.
var ErrNotFound = errors.New("sink: record not found")

// Record is a stored submission.
type Record struct {
	ID          string         `json:"id"`
	SchemaID    string         `json:"schema"`
	Generation  uint64         `json:"generation"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Data        map[string]any `json:"data"`
}

// Sink persists artifacts.
type Sink interface {
	Store(ctx context.Context, artifact session.Artifact) (Record, error)
}

// Reader is implemented by sinks that can read records back.
type Reader interface {
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, params ListParams) ([]Record, error)
}

// ListParams filters List. Zero Limit means no limit.
type ListParams struct {
	SchemaID string
	Limit    int
}

// Multi stores into every sink in order and returns the first sink's record.
// The same id is used for all of them.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Store(ctx context.Context, artifact session.Artifact) (Record, error) {
	var first Record
	for i, s := range m {
		record, err := s.Store(withID(ctx, first.ID), artifact)
		if err != nil {
			return Record{}, fmt.Errorf("sink: store %d: %w", i, err)
		}
		if i == 0 {
			first = record
		}
	}
	return first, nil
}

// Discard drops artifacts but still assigns ids.
var Discard Sink = discard{}

type discard struct{}

func (discard) Store(ctx context.Context, artifact session.Artifact) (Record, error) {
	return newRecord(ctx, artifact), nil
}

type idKey struct{}

// withID makes sinks after the first reuse its id.
func withID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, idKey{}, id)
}

var (
	entropyMu sync.Mutex
	entropy   io.Reader = ulid.Monotonic(rand.Reader, 0)
)

func newID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func newRecord(ctx context.Context, artifact session.Artifact) Record {
	id, _ := ctx.Value(idKey{}).(string)
	if id == "" {
		id = newID(artifact.SubmittedAt)
	}
	return Record{
		ID:          id,
		SchemaID:    artifact.SchemaID,
		Generation:  artifact.Generation,
		SubmittedAt: artifact.SubmittedAt.UTC(),
		Data:        artifact.Data(),
	}
}
