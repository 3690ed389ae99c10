package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// FeedbackLog appends answer feedback to durable storage.
type FeedbackLog interface {
	// Append records one feedback entry.
	Append(ctx context.Context, feedback domain.Feedback) error
}
