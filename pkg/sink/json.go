package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/session"
)

// JSON writes one indented JSON document per record to w.
type JSON struct {
	mu     sync.Mutex
	w      io.Writer
	indent string
}

// JSONOption configures a JSON sink.
type JSONOption func(*JSON)

// WithIndent sets the indentation; "" writes compact lines.
func WithIndent(indent string) JSONOption {
	return func(j *JSON) {
		j.indent = indent
	}
}

// NewJSON constructs a JSON sink writing to w.
func NewJSON(w io.Writer, options ...JSONOption) *JSON {
	j := &JSON{w: w, indent: "  "}
	for _, opt := range options {
		if opt != nil {
			opt(j)
		}
	}
	return j
}

// Store implements Sink.
func (j *JSON) Store(ctx context.Context, artifact session.Artifact) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	record := newRecord(ctx, artifact)

	var (
		payload []byte
		err     error
	)
	if j.indent == "" {
		payload, err = json.Marshal(record)
	} else {
		payload, err = json.MarshalIndent(record, "", j.indent)
	}
	if err != nil {
		return Record{}, fmt.Errorf("sink: encode record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(append(payload, '\n')); err != nil {
		return Record{}, fmt.Errorf("sink: write record: %w", err)
	}
	return record, nil
}
