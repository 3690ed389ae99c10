package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect indexed policy documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show one indexed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

func init() {
	docsCmd.PersistentFlags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed. Run 'policyqa ingest' first.")
		return nil
	}

	cmd.Printf("Indexed documents (%d):\n\n", len(docs))
	for i := range docs {
		cmd.Printf("  %s (%d chunks)\n", docs[i].DocID, docs[i].Chunks)
		if docs[i].Region != "" {
			cmd.Printf("    Region: %s\n", docs[i].Region)
		}
		if docs[i].URL != "" {
			cmd.Printf("    URL:    %s\n", docs[i].URL)
		}
	}
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	doc, err := documentService.Describe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if docsJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("ID:     %s\n", doc.DocID)
	cmd.Printf("Title:  %s\n", doc.Title)
	cmd.Printf("Chunks: %d\n", doc.Chunks)
	if doc.Region != "" {
		cmd.Printf("Region: %s\n", doc.Region)
	}
	if doc.URL != "" {
		cmd.Printf("URL:    %s\n", doc.URL)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
