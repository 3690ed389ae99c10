package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// answerSchema is the JSON shape the completion must return.
var answerSchema = map[string]any{
	"type":     "object",
	"required": []any{"answer", "citations", "confidence"},
	"properties": map[string]any{
		"answer": map[string]any{"type": "string"},
		"citations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"doc_id"},
				"properties": map[string]any{
					"doc_id":  map[string]any{"type": "string"},
					"section": map[string]any{"type": []any{"string", "null"}},
					"snippet": map[string]any{"type": []any{"string", "null"}},
					"page":    map[string]any{"type": []any{"integer", "null"}},
					"url":     map[string]any{"type": []any{"string", "null"}},
				},
			},
		},
		"policy_matches": map[string]any{
			"type":  []any{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"confidence": map[string]any{
			"type": "string",
			"enum": []any{"low", "medium", "high"},
		},
		"follow_up_suggestions": map[string]any{
			"type":  []any{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"disclaimer": map[string]any{"type": []any{"string", "null"}},
	},
}

var compiledAnswerSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(answerSchema))
})

// Synthesizer asks the completion service for a grounded answer.
type Synthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewSynthesizer creates a synthesizer using the policy system prompt from prompts.
func NewSynthesizer(llm driven.LLMService, prompts driven.PromptStore) *Synthesizer {
	return &Synthesizer{
		llm:     llm,
		prompts: prompts,
	}
}

// Synthesize produces an answer from the retrieved results.
//
// No completion is requested when results is empty. A completion that
// does not match the answer schema is wrapped verbatim as a degraded
// outcome. Transport failures are returned as domain.ErrSynthesisUnavailable
// and rejected credentials as domain.ErrConfiguration.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question string, results []domain.RetrievalResult, followUp string,
) (domain.SynthesisOutcome, error) {
	defer logger.Stage("Synthesis")()

	if len(results) == 0 {
		logger.Debug("No context retrieved, skipping completion")
		return domain.Ungrounded(), nil
	}

	system, err := s.prompts.Load(driven.PromptPolicySystem)
	if err != nil {
		return domain.SynthesisOutcome{}, fmt.Errorf("%w: load prompt: %w", domain.ErrConfiguration, err)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: BuildUserMessage(question, ComposeContext(results), followUp)},
	}

	raw, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: 0,
		JSONMode:    true,
		Schema:      answerSchema,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSynthesisUnavailable) && !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", domain.ErrSynthesisUnavailable, err)
		}
		return domain.SynthesisOutcome{}, fmt.Errorf("completion: %w", err)
	}

	answer, err := ParseAnswer(raw)
	if err != nil {
		logger.Warn("Completion did not match the answer schema: %v", err)
		return domain.Degraded(raw), nil
	}

	logger.Debug("Parsed answer: confidence=%s, citations=%d", answer.Confidence, len(answer.Citations))
	return domain.Parsed(answer, raw), nil
}

// BuildUserMessage renders the user turn of the completion prompt.
func BuildUserMessage(question, contextBlock, followUp string) string {
	var b strings.Builder
	if followUp = strings.TrimSpace(followUp); followUp != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(followUp)
		b.WriteString("\n\n")
	}
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nUser question: ")
	b.WriteString(question)
	b.WriteString("\n\nJSON:")
	return b.String()
}

type wireCitation struct {
	DocID   string  `json:"doc_id"`
	Section *string `json:"section"`
	Snippet *string `json:"snippet"`
	Page    *int    `json:"page"`
	URL     *string `json:"url"`
}

type wireAnswer struct {
	Answer              string         `json:"answer"`
	Citations           []wireCitation `json:"citations"`
	PolicyMatches       []string       `json:"policy_matches"`
	Confidence          string         `json:"confidence"`
	FollowUpSuggestions []string       `json:"follow_up_suggestions"`
	Disclaimer          *string        `json:"disclaimer"`
}

// ParseAnswer validates completion text against the answer schema.
// Markdown code fences around the JSON are ignored.
func ParseAnswer(raw string) (domain.SynthesizedAnswer, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return domain.SynthesizedAnswer{}, errors.New("empty completion")
	}

	schema, err := compiledAnswerSchema()
	if err != nil {
		return domain.SynthesizedAnswer{}, fmt.Errorf("compile answer schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return domain.SynthesizedAnswer{}, fmt.Errorf("decode completion: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return domain.SynthesizedAnswer{}, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	var wire wireAnswer
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return domain.SynthesizedAnswer{}, fmt.Errorf("decode completion: %w", err)
	}

	answer := domain.SynthesizedAnswer{
		Answer:              wire.Answer,
		Citations:           make([]domain.Citation, 0, len(wire.Citations)),
		PolicyMatches:       nonNil(wire.PolicyMatches),
		Confidence:          domain.Confidence(wire.Confidence),
		FollowUpSuggestions: nonNil(wire.FollowUpSuggestions),
		Disclaimer:          deref(wire.Disclaimer),
	}
	for _, c := range wire.Citations {
		answer.Citations = append(answer.Citations, domain.Citation{
			DocID:   c.DocID,
			Section: deref(c.Section),
			Snippet: deref(c.Snippet),
			Page:    c.Page,
			URL:     deref(c.URL),
		})
	}
	if strings.TrimSpace(answer.Disclaimer) == "" {
		answer.Disclaimer = domain.StandardDisclaimer
	}
	return answer, nil
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the language tag line, e.g. ```json.
	if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.Contains(text[:i], "{") {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ModelName returns the completion model answers are produced with.
func (s *Synthesizer) ModelName() string {
	return s.llm.ModelName()
}
