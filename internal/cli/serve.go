package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/server"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/sink"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms over HTTP",
		Long:  "Expose the loaded schemas through the session API and record accepted submissions.",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: $FORMENGINE_ADDR or :8080)")
	cmd.Flags().String("upload-url", "", "Forward uploaded files to this URL")
	cmd.Flags().Int64("max-upload", 32<<20, "Maximum upload size in bytes")
	cmd.Flags().Bool("no-store", false, "Do not record submissions")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	uploadURL, _ := cmd.Flags().GetString("upload-url")
	maxUpload, _ := cmd.Flags().GetInt64("max-upload")
	noStore, _ := cmd.Flags().GetBool("no-store")

	if addr == "" {
		addr = os.Getenv("FORMENGINE_ADDR")
	}
	if addr == "" {
		addr = ":8080"
	}

	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		exitErr("load schemas", err)
	}

	logger := log.New(os.Stderr, "formengine: ", log.LstdFlags)
	var store sink.Sink = sink.Discard
	if !noStore {
		db, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer db.Close()
		store = db
	}

	srv, err := server.New(catalog,
		server.WithSink(store),
		server.WithLogger(logger),
		server.WithMaxUploadSize(maxUpload),
		server.WithSessionOptions(
			session.WithUploader(uploaderFor(uploadURL, "file")),
			session.WithLogger(logger),
		),
	)
	if err != nil {
		exitErr("server", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (%d schemas)", addr, catalog.Len())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			exitErr("listen", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			exitErr("shutdown", err)
		}
		logger.Printf("stopped")
	}
}
