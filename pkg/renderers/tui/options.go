package tui

import (
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
)

// OutputFormat names the serialization Fill returns.
type OutputFormat string

const (
	OutputFormatJSON           OutputFormat = "json"
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText prints one key=value line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds the prefixes the survey driver and Info lines use.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// SubmitTransformer rewrites the submitted values ahead of Serialize.
type SubmitTransformer func(map[string]any) (map[string]any, error)

type Option func(*Renderer)

// WithPromptDriver replaces the survey driver; tests pass a scripted one.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithStdio points the default survey driver at other streams, such as
// stderr for prompts while the payload goes to stdout. Ignored when
// WithPromptDriver is used.
func WithStdio(stdio terminal.Stdio) Option {
	return func(r *Renderer) {
		r.stdio = stdio
	}
}

// WithOutputFormat picks the Fill serialization. Empty keeps JSON.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) { r.submitTransformer = fn }
}

func WithTheme(theme Theme) Option {
	return func(r *Renderer) { r.theme = theme }
}

// WithSessionOptions configures the session Render creates for each form.
// Fill callers own their session and ignore these.
func WithSessionOptions(options ...session.Option) Option {
	return func(r *Renderer) {
		r.sessionOptions = append(r.sessionOptions, options...)
	}
}

// WithPrompter replaces the prompt used for kind.
func WithPrompter(kind schema.Kind, prompter Prompter) Option {
	return func(r *Renderer) {
		if prompter != nil {
			r.custom[kind] = prompter
		}
	}
}
