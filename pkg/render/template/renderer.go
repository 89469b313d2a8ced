package template

import "io"

// TemplateRenderer executes named or inline templates against a data map.
// The rendered text is returned and also copied to every writer in out.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error)
	RenderString(content string, data map[string]any, out ...io.Writer) (string, error)
}
