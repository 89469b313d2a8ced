package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	formengine "github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "render [schema-id]",
		Short: "Render a form as HTML",
		Args:  cobra.ExactArgs(1),
		Run:   runRender,
	}

	cmd.Flags().String("values", "", "JSON or YAML file with values to prefill")
	cmd.Flags().String("templates", "", "Directory overriding the built-in templates")
	cmd.Flags().StringP("out", "o", "", "Output file (stdout if empty)")

	RootCmd.AddCommand(cmd)
}

func runRender(cmd *cobra.Command, args []string) {
	valuesFile, _ := cmd.Flags().GetString("values")
	templates, _ := cmd.Flags().GetString("templates")
	out, _ := cmd.Flags().GetString("out")

	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		exitErr("load schemas", err)
	}
	sess, err := formengine.OpenSession(catalog, args[0])
	if err != nil {
		exitErr("open session", err)
	}

	if valuesFile != "" {
		if err := prefill(sess, valuesFile); err != nil {
			exitErr("values", err)
		}
	}

	var options []html.Option
	if templates != "" {
		options = append(options, html.WithTemplatesDir(templates))
	}
	page, err := formengine.RenderHTML(cmd.Context(), sess, options...)
	if err != nil {
		exitErr("render", err)
	}

	if out == "" {
		fmt.Println(string(page))
		return
	}
	if err := os.WriteFile(out, page, 0o644); err != nil {
		exitErr("write", err)
	}
	fmt.Fprintf(os.Stderr, "form written to %s\n", out)
}

// prefill applies a nested values document field by field, so each value is
// validated the same way an interactive change would be.
func prefill(sess *session.Session, name string) error {
	raw, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	flat := map[string]any{}
	flattenValues("", doc, flat)
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := sess.Change(path, flat[path]); err != nil {
			return err
		}
	}
	return nil
}

func flattenValues(parent string, value map[string]any, out map[string]any) {
	for key, item := range value {
		path := fieldpath.Join(parent, key)
		switch typed := item.(type) {
		case map[string]any:
			flattenValues(path, typed, out)
		case []any:
			list := make([]string, 0, len(typed))
			for _, entry := range typed {
				list = append(list, fmt.Sprint(entry))
			}
			out[path] = list
		case nil:
			out[path] = ""
		case string:
			out[path] = typed
		default:
			out[path] = fmt.Sprint(typed)
		}
	}
}
