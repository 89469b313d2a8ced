package session

import (
	"log"
	"time"

	"github.com/goliatone/go-formengine/pkg/upload"
)

// Option configures a Session.
type Option func(*Session)

// WithUploader sets the transport used by OnFileSelected. Defaults to
// upload.Local.
func WithUploader(uploader upload.Uploader) Option {
	return func(s *Session) {
		if uploader != nil {
			s.uploader = uploader
		}
	}
}

// WithClock overrides time.Now for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger receives upload failures and discarded completions.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
