package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

var (
	askRegion   string
	askTopK     int
	askJSON     bool
	askFollowUp string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about HR policy",
	Long: `Answers a question from the indexed policy documents.

The answer cites the policy sections it relies on. Questions the policies
do not cover are answered with "I don't have that in policy".

Examples:
  policyqa ask "How many days of annual leave do I get?"
  policyqa ask --region EU -k 8 "What is the parental leave policy?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askRegion, "region", "", "only use policies for this region")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of policy chunks to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVar(&askFollowUp, "follow-up", "", "earlier conversation to take into account")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return notConfigured("ask")
	}

	req := domain.AskRequest{
		Question:        strings.Join(args, " "),
		TopK:            askTopK,
		FollowUpContext: askFollowUp,
	}
	if askRegion != "" {
		req.Filters = map[string]string{"region": askRegion}
	}

	result, err := askService.Ask(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	printAnswer(out, result, newAnswerStyles(isTerminal(out)))
	return nil
}

// printAnswer writes a human-readable answer.
func printAnswer(w io.Writer, result *domain.AskResult, st *answerStyles) {
	fmt.Fprintln(w, st.render(st.Answer, result.Answer))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", st.render(st.Heading, "Confidence:"), st.renderConfidence(string(result.Confidence)))

	if len(result.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.render(st.Heading, "Sources:"))
		for i, c := range result.Citations {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, st.render(st.Citation, citationLabel(c)))
			if c.URL != "" {
				fmt.Fprintf(w, "      %s\n", st.render(st.Link, c.URL))
			}
			if c.Snippet != "" {
				fmt.Fprintf(w, "      %s\n", st.render(st.Muted, fmt.Sprintf("%q", c.Snippet)))
			}
		}
	}

	if len(result.PolicyMatches) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", st.render(st.Heading, "Policies:"), strings.Join(result.PolicyMatches, ", "))
	}

	if len(result.FollowUpSuggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.render(st.Heading, "You could also ask:"))
		for _, s := range result.FollowUpSuggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	if result.Disclaimer != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.render(st.Warning, result.Disclaimer))
	}

	if result.Metadata.AnswerID != "" {
		fmt.Fprintln(w, st.render(st.Muted, fmt.Sprintf("answer id: %s (%d ms, %s)",
			result.Metadata.AnswerID, result.Metadata.LatencyMS, result.Metadata.Model)))
	}
}

// citationLabel formats "doc · section · p.N", skipping empty parts.
func citationLabel(c domain.Citation) string {
	parts := []string{c.DocID}
	if c.Section != "" {
		parts = append(parts, c.Section)
	}
	if c.Page != nil {
		parts = append(parts, fmt.Sprintf("p.%d", *c.Page))
	}
	return strings.Join(parts, " · ")
}
