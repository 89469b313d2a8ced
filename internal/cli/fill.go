package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	formengine "github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/upload"
)

func init() {
	cmd := &cobra.Command{
		Use:   "fill [schema-id]",
		Short: "Fill a form interactively in the terminal",
		Long:  "Prompt for every field of a schema, validate on each answer, and print the submitted values.",
		Args:  cobra.ExactArgs(1),
		Run:   runFill,
	}

	cmd.Flags().StringP("output", "o", "json", "Payload format: json, form or pretty")
	cmd.Flags().String("upload-url", "", "POST selected files to this URL instead of keeping the local name")
	cmd.Flags().String("upload-field", "file", "Multipart field name used with --upload-url")
	cmd.Flags().Bool("no-store", false, "Do not record the submission in the database")

	RootCmd.AddCommand(cmd)
}

func runFill(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")
	uploadURL, _ := cmd.Flags().GetString("upload-url")
	uploadField, _ := cmd.Flags().GetString("upload-field")
	noStore, _ := cmd.Flags().GetBool("no-store")

	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		exitErr("load schemas", err)
	}

	logger := log.New(os.Stderr, "formengine: ", log.LstdFlags)
	sess, err := formengine.OpenSession(catalog, args[0],
		session.WithUploader(uploaderFor(uploadURL, uploadField)),
		session.WithLogger(logger),
	)
	if err != nil {
		exitErr("open session", err)
	}

	// Prompts go to stderr so the payload on stdout can be piped.
	renderer, err := tui.New(
		tui.WithOutputFormat(tui.OutputFormat(strings.ToLower(output))),
		tui.WithStdio(terminal.Stdio{In: os.Stdin, Out: os.Stderr, Err: os.Stderr}),
	)
	if err != nil {
		exitErr("terminal", err)
	}

	artifact, err := renderer.Fill(cmd.Context(), sess)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(130)
	}
	if err != nil {
		exitErr("fill", err)
	}

	if !noStore {
		store, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer store.Close()
		record, err := store.Store(cmd.Context(), artifact)
		if err != nil {
			exitErr("store", err)
		}
		logger.Printf("stored submission %s", record.ID)
	}

	payload, err := renderer.Serialize(artifact)
	if err != nil {
		exitErr("serialize", err)
	}
	fmt.Println(string(payload))
}

// uploaderFor posts files to url, or to the endpoint a field declares, and
// keeps the local file name for everything else.
func uploaderFor(url, field string) upload.Uploader {
	remote := upload.NewHTTP(
		upload.WithEndpoint(schema.UploadEndpoint{URL: strings.TrimSpace(url)}),
		upload.WithFormField(field),
	)
	return upload.Func(func(ctx context.Context, f schema.Field, file upload.File) (string, error) {
		if f.Upload == nil && strings.TrimSpace(url) == "" {
			return upload.Local{}.Upload(ctx, f, file)
		}
		return remote.Upload(ctx, f, file)
	})
}
