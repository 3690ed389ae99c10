package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/connectors/filesystem"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// defaultPolicyDir is ingested when no paths are given.
const defaultPolicyDir = "./policies"

var (
	ingestRegion   string
	ingestStrict   bool
	ingestWatch    bool
	ingestDebounce time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Build the policy index from files",
	Long: `Reads policy files and rebuilds the whole index from them.

Paths may be files or directories; directories are read recursively and
hidden files are skipped. Without paths, ./policies is used.

Supported formats: plain text, Markdown, HTML, DOCX and PDF. Files that
cannot be read are reported and skipped unless --strict is set.

With --watch the index is rebuilt whenever the files change.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestRegion, "region", "", "tag every ingested chunk with this region")
	ingestCmd.Flags().BoolVar(&ingestStrict, "strict", false, "abort on the first unreadable file")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when files change")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", 2*time.Second, "quiet period before re-ingesting in watch mode")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{defaultPolicyDir}
	}

	src := filesystem.New(ingestRegion, paths...)
	defer src.Close()

	if err := ingestOnce(cmd, src); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndIngest(ctx, cmd, src, ingestDebounce)
}

// ingestOnce collects the files and replaces the index with them.
func ingestOnce(cmd *cobra.Command, src *filesystem.Source) error {
	ctx := cmd.Context()

	files, err := src.Collect(ctx)
	if err != nil {
		return fmt.Errorf("reading policy files: %w", err)
	}
	cmd.Printf("Ingesting %d files...\n", len(files))

	result, err := ingestService.Ingest(ctx, domain.IngestRequest{Files: files, Strict: ingestStrict})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printIngestResult(cmd, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	cmd.Println(result.Message)
	cmd.Printf("  Documents: %d\n", result.DocumentsProcessed)
	cmd.Printf("  Chunks:    %d\n", result.ChunksCreated)
	if len(result.Failures) > 0 {
		cmd.Printf("  Skipped %d files:\n", len(result.Failures))
		for _, f := range result.Failures {
			cmd.Printf("    %s: %s\n", f.File, f.Error)
		}
	}
}

// watchAndIngest re-runs ingestion after changes settle for debounce.
// A failed run is reported and the previous index keeps serving.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, src *filesystem.Source, debounce time.Duration) error {
	changes, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching policy files: %w", err)
	}
	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("%s %s", change.Type, change.Path)
			timer.Reset(debounce)
		case <-timer.C:
			if err := ingestOnce(cmd, src); err != nil {
				logger.Error("%v", err)
			}
		}
	}
}
