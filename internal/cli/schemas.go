package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type schemaSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the loaded schemas",
		Args:  cobra.NoArgs,
		Run:   runSchemas,
	}

	show := &cobra.Command{
		Use:   "show [schema-id]",
		Short: "Print one schema",
		Args:  cobra.ExactArgs(1),
		Run:   runSchemaShow,
	}

	cmd.AddCommand(show)
	RootCmd.AddCommand(cmd)
}

func runSchemas(cmd *cobra.Command, args []string) {
	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		exitErr("load schemas", err)
	}

	summaries := make([]schemaSummary, 0, catalog.Len())
	for _, s := range catalog.List() {
		summaries = append(summaries, schemaSummary{
			ID:     s.ID,
			Title:  s.Label(),
			Fields: schema.LeafPaths(s.Fields),
		})
	}

	if formatFlag == "text" {
		for _, s := range summaries {
			fmt.Printf("%s\t%s\t%d fields\n", s.ID, s.Title, len(s.Fields))
		}
		return
	}
	printJSON(summaries)
}

func runSchemaShow(cmd *cobra.Command, args []string) {
	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		exitErr("load schemas", err)
	}
	s, err := catalog.Lookup(args[0])
	if err != nil {
		exitErr("show", err)
	}

	if formatFlag == "text" {
		fmt.Println(s.Label())
		schema.Walk(s.Fields, "", func(field schema.Field, parent string) bool {
			required := ""
			if field.Required {
				required = " (required)"
			}
			fmt.Printf("  %s\t%s%s\n", fieldpath.Join(parent, field.Name), field.Kind, required)
			return true
		})
		return
	}
	printJSON(s)
}
