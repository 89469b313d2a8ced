// Package cli implements the formengine CLI commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	formengine "github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/sink"
)

var (
	schemaLocations []string
	dbPath          string
	formatFlag      string
)

// remoteTimeout bounds each http(s) schema location.
const remoteTimeout = 15 * time.Second

var errNoSchemas = errors.New("no schema locations: pass --schemas or set FORMENGINE_SCHEMAS")

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "formengine",
	Short: "Schema-driven forms for the terminal and the browser",
	Long:  "Load form schemas from catalog files or OpenAPI documents, fill them in a terminal, render them as HTML, or serve them over HTTP.",
}

func init() {
	RootCmd.PersistentFlags().StringSliceVarP(&schemaLocations, "schemas", "s", nil, "Catalog files, OpenAPI documents, directories or URLs (default: $FORMENGINE_SCHEMAS)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Submissions database path (default: $FORMENGINE_DB or ~/.formengine/submissions.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getSchemaLocations() []string {
	if len(schemaLocations) > 0 {
		return schemaLocations
	}
	var out []string
	for _, item := range strings.Split(os.Getenv("FORMENGINE_SCHEMAS"), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("FORMENGINE_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".formengine", "submissions.db")
}

func loadCatalog(ctx context.Context) (*schema.Catalog, error) {
	locations := getSchemaLocations()
	if len(locations) == 0 {
		return nil, errNoSchemas
	}
	return formengine.LoadCatalog(ctx, locations, schema.WithHTTPFallback(remoteTimeout))
}

func openStore() (*sink.SQLite, error) {
	return sink.NewSQLite(getDBPath())
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
