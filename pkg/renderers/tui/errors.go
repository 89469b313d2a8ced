package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrIncomplete is returned by Fill when the user declines to fix the
	// fields a submit rejected.
	ErrIncomplete = errors.New("tui: form has unresolved errors")
	// ErrSuperseded is returned when the session switched schema while a file
	// prompt was uploading.
	ErrSuperseded = errors.New("tui: upload superseded by a schema switch")
	// ErrUnknownFormat is returned by New for an unsupported output format.
	ErrUnknownFormat = errors.New("tui: unknown output format")
)
