package session

import (
	"time"

	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Artifact is the immutable snapshot produced by a successful Submit. Values
// never aliases the live session state.
type Artifact struct {
	SchemaID    string     `json:"schema"`
	Generation  uint64     `json:"generation"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Values      state.Node `json:"values"`
}

// Data returns the values as a plain nested map, ready for JSON encoding.
func (a Artifact) Data() map[string]any {
	return a.Values.Map()
}

// SubmitResult reports the outcome of Submit. Artifact is set only when OK.
type SubmitResult struct {
	OK       bool
	Artifact *Artifact
	Errors   validation.ErrorMap
}

// UploadOutcome describes how an OnFileSelected call ended.
type UploadOutcome int

const (
	// UploadApplied means the display value was written through OnFieldChange.
	UploadApplied UploadOutcome = iota
	// UploadFailed means the transport failed and the field carries
	// validation.UploadFailedMessage.
	UploadFailed
	// UploadSuperseded means a schema switch happened while the upload was in
	// flight and the result was dropped.
	UploadSuperseded
)

func (o UploadOutcome) String() string {
	switch o {
	case UploadApplied:
		return "applied"
	case UploadFailed:
		return "failed"
	case UploadSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}
