package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and configured models",
	Long: `Print the policyqa version, the Go runtime it was built with and,
when settings are available, the embedding and completion models in use.
Answers and the index both depend on these, so include this output when
reporting a problem.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("policyqa version %s (%s)\n", version, runtime.Version())
		if settingsService == nil {
			return
		}
		settings, err := settingsService.Get()
		if err != nil {
			return
		}
		cmd.Printf("  embedding:  %s/%s\n", settings.Embedding.Provider, settings.Embedding.Model)
		cmd.Printf("  completion: %s/%s\n", settings.LLM.Provider, settings.LLM.Model)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
