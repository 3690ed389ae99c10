// Package cli provides the policyqa command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var verbose bool

// Services wired by the entry point. A nil service means its setup failed;
// commands that need it report setupErr.
var (
	askService       driving.AskService
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	feedbackService  driving.FeedbackService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	messenger        driven.Messenger
	setupErr         error
)

// Services holds the application services the commands drive.
type Services struct {
	Ask       driving.AskService
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Feedback  driving.FeedbackService
	Document  driving.DocumentService
	Settings  driving.SettingsService
	Messenger driven.Messenger

	// SetupErr explains why model-backed services are missing, if they are.
	SetupErr error
}

// SetServices installs the services used by all commands.
func SetServices(s *Services) {
	askService = s.Ask
	retrievalService = s.Retrieval
	ingestService = s.Ingest
	feedbackService = s.Feedback
	documentService = s.Document
	settingsService = s.Settings
	messenger = s.Messenger
	setupErr = s.SetupErr
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "policyqa",
	Short: "Answer HR policy questions from your policy documents",
	Long: `policyqa indexes HR policy documents and answers questions about them
with citations, using retrieval-augmented generation.

Ingest policies first, then ask questions from the command line, serve the
HTTP API, or expose the assistant to AI tools over MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// notConfigured builds the error for a missing service.
func notConfigured(name string) error {
	err := errors.New(name + " service not configured")
	if setupErr != nil {
		return errors.Join(err, setupErr)
	}
	return err
}
