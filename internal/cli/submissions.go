package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/sink"
)

func init() {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List recorded submissions",
		Args:  cobra.NoArgs,
		Run:   runSubmissions,
	}

	cmd.Flags().String("schema", "", "Filter by schema id")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	get := &cobra.Command{
		Use:   "get [id]",
		Short: "Print one submission",
		Args:  cobra.ExactArgs(1),
		Run:   runSubmissionGet,
	}

	cmd.AddCommand(get)
	RootCmd.AddCommand(cmd)
}

func runSubmissions(cmd *cobra.Command, args []string) {
	schemaID, _ := cmd.Flags().GetString("schema")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.List(cmd.Context(), sink.ListParams{SchemaID: schemaID, Limit: limit})
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, r := range records {
			fmt.Printf("%s\t%s\t%s\n", r.ID, r.SchemaID, r.SubmittedAt.Format(time.RFC3339))
		}
		return
	}
	printJSON(records)
}

func runSubmissionGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	record, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	printJSON(record)
}
