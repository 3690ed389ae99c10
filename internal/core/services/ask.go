package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AnswerSynthesizer turns retrieved chunks into an answer.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, results []domain.RetrievalResult, followUp string) (domain.SynthesisOutcome, error)
	ModelName() string
}

// AskConfig holds the settings the ask pipeline reads per request.
type AskConfig struct {
	// DefaultTopK applies when a request does not set top_k.
	DefaultTopK int

	// Regions restricts accepted region filters. Empty accepts any.
	Regions []string

	// DocsBaseURL is used to link citations to documents.
	DocsBaseURL string
}

// AskService runs the retrieve, compose, synthesize and enrich pipeline.
type AskService struct {
	retriever   driving.RetrievalService
	synthesizer AnswerSynthesizer
	config      AskConfig
	now         func() time.Time
}

// NewAskService creates a new ask service.
func NewAskService(retriever driving.RetrievalService, synthesizer AnswerSynthesizer, config AskConfig) *AskService {
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = domain.DefaultAppSettings().Retrieval.TopK
	}
	return &AskService{
		retriever:   retriever,
		synthesizer: synthesizer,
		config:      config,
		now:         time.Now,
	}
}

// Ask answers a question from the indexed policies.
func (s *AskService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	start := s.now()
	defer logger.Stage("Ask")()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if req.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, req.TopK)
	}

	k := req.TopK
	if k == 0 {
		k = s.config.DefaultTopK
	}

	filter, err := domain.FilterFromMap(req.Filters, s.config.Regions)
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.Retrieve(ctx, question, k, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	outcome, err := s.synthesizer.Synthesize(ctx, question, results, req.FollowUpContext)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	answer := outcome.Answer
	result := &domain.AskResult{
		Answer:              answer.Answer,
		Citations:           EnrichCitations(answer.Citations, s.config.DocsBaseURL),
		PolicyMatches:       answer.PolicyMatches,
		Confidence:          answer.Confidence,
		FollowUpSuggestions: answer.FollowUpSuggestions,
		Disclaimer:          answer.Disclaimer,
		Metadata: domain.AskMetadata{
			AnswerID:   uuid.NewString(),
			LatencyMS:  s.now().Sub(start).Milliseconds(),
			RetrieverK: len(results),
			Model:      s.synthesizer.ModelName(),
			Outcome:    outcome.Kind,
		},
	}

	logger.Debug("Answered %s: outcome=%s, retrieved=%d, latency=%dms",
		result.Metadata.AnswerID, outcome.Kind, len(results), result.Metadata.LatencyMS)
	return result, nil
}
