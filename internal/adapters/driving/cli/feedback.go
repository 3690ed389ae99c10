package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

var (
	feedbackHelpful    bool
	feedbackNotHelpful bool
	feedbackComment    string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [answer-id]",
	Short: "Record whether an answer was helpful",
	Long: `Records feedback on an answer, identified by the answer id printed
with every answer.

Examples:
  policyqa feedback 3f2b... --helpful
  policyqa feedback 3f2b... --not-helpful --comment "wrong region"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackHelpful, "helpful", false, "the answer was helpful")
	feedbackCmd.Flags().BoolVar(&feedbackNotHelpful, "not-helpful", false, "the answer was not helpful")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "m", "", "optional comment")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if feedbackService == nil {
		return notConfigured("feedback")
	}

	if feedbackHelpful == feedbackNotHelpful {
		return errors.New("specify exactly one of --helpful or --not-helpful")
	}

	fb := domain.Feedback{
		AnswerID: args[0],
		Helpful:  feedbackHelpful,
		Comment:  feedbackComment,
	}
	if err := feedbackService.Submit(cmd.Context(), fb); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	cmd.Println("Feedback recorded. Thank you!")
	return nil
}
