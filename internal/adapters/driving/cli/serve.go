package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// logFileName is written inside the storage directory while serving.
const logFileName = "policyqa.log"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the question answering API over HTTP.

Routes:
  GET  /healthz            index readiness
  POST /ask                answer a question
  POST /ingest             rebuild the index from uploaded files
  POST /feedback           record answer feedback
  GET  /docs/{doc_id}      document link
  GET  /webhooks/whatsapp  WhatsApp webhook verification
  POST /webhooks/whatsapp  WhatsApp inbound messages

Logs are also written to policyqa.log in the storage directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from settings, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if askService == nil || retrievalService == nil {
		return notConfigured("ask")
	}
	if settingsService == nil {
		return notConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	if addr == "" {
		addr = settings.Server.Addr
	}

	closeLog, err := teeLogFile(settings.Storage.Dir)
	if err != nil {
		return err
	}
	defer closeLog()

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ask:       askService,
		Retrieval: retrievalService,
		Ingest:    ingestService,
		Feedback:  feedbackService,
		Document:  documentService,
		Messenger: messenger,
	}, httpapi.Config{
		AllowedOrigins:      settings.Server.AllowedOrigins,
		WhatsAppVerifyToken: settings.WhatsApp.VerifyToken,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Serving on %s\n", addr)
	return server.Run(ctx, addr)
}

// teeLogFile mirrors log output into dir/policyqa.log until the returned
// function is called.
func teeLogFile(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	restore := logger.Tee(f)
	logger.SetTimestamps(true)
	return func() {
		logger.SetTimestamps(false)
		restore()
		f.Close()
	}, nil
}
