package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Ensure FeedbackService implements the interface.
var _ driving.FeedbackService = (*FeedbackService)(nil)

// FeedbackService records verdicts on answers.
type FeedbackService struct {
	log driven.FeedbackLog
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(log driven.FeedbackLog) *FeedbackService {
	return &FeedbackService{log: log}
}

// Submit appends feedback to the log.
func (s *FeedbackService) Submit(ctx context.Context, feedback domain.Feedback) error {
	feedback.AnswerID = strings.TrimSpace(feedback.AnswerID)
	if feedback.AnswerID == "" {
		return fmt.Errorf("%w: answer_id is required", domain.ErrInvalidInput)
	}

	if err := s.log.Append(ctx, feedback); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	logger.Debug("Feedback for %s: helpful=%v", feedback.AnswerID, feedback.Helpful)
	return nil
}
