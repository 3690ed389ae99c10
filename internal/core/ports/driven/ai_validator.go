package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider described by config.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
