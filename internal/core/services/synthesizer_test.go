package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

const validCompletion = `{
  "answer": "Employees accrue 20 days of annual leave.",
  "citations": [{"doc_id": "leave.md", "section": "Annual Leave", "snippet": "20 days", "page": null}],
  "policy_matches": ["Annual Leave"],
  "confidence": "high",
  "follow_up_suggestions": ["Ask about carry-over"],
  "disclaimer": ""
}`

func sampleResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{Chunk: domain.Chunk{DocID: "leave.md", Section: "Annual Leave", Text: "Employees accrue 20 days."}, Score: 0.9},
	}
}

func TestSynthesizer_Parsed(t *testing.T) {
	llm := &mockLLM{response: validCompletion}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	outcome, err := synth.Synthesize(context.Background(), "How much leave?", sampleResults(), "")

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeParsed, outcome.Kind)
	assert.Equal(t, validCompletion, outcome.Raw)
	assert.Equal(t, "Employees accrue 20 days of annual leave.", outcome.Answer.Answer)
	assert.Equal(t, domain.ConfidenceHigh, outcome.Answer.Confidence)
	require.Len(t, outcome.Answer.Citations, 1)
	assert.Equal(t, "leave.md", outcome.Answer.Citations[0].DocID)
	assert.Nil(t, outcome.Answer.Citations[0].Page)
	assert.Equal(t, domain.StandardDisclaimer, outcome.Answer.Disclaimer)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, llm.messages[0].Role)
	assert.Equal(t, "SYSTEM", llm.messages[0].Content)
	assert.Equal(t, driven.RoleUser, llm.messages[1].Role)
	assert.Equal(t,
		"Context:\n[leave.md | section: Annual Leave | page: none]\nEmployees accrue 20 days.\n\nUser question: How much leave?\n\nJSON:",
		llm.messages[1].Content)
	assert.Zero(t, llm.opts.Temperature)
	assert.True(t, llm.opts.JSONMode)
	assert.Equal(t, answerSchema, llm.opts.Schema)
}

func TestSynthesizer_FollowUpContext(t *testing.T) {
	llm := &mockLLM{response: validCompletion}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	_, err := synth.Synthesize(context.Background(), "And sick leave?", sampleResults(), "Q: How much leave?\nA: 20 days")

	require.NoError(t, err)
	assert.Contains(t, llm.messages[1].Content, "Conversation so far:\nQ: How much leave?\nA: 20 days\n\nContext:\n")
}

func TestSynthesizer_Ungrounded(t *testing.T) {
	llm := &mockLLM{response: validCompletion}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	outcome, err := synth.Synthesize(context.Background(), "Can I bring my dog?", nil, "")

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUngrounded, outcome.Kind)
	assert.Equal(t, "I don't have that in policy", outcome.Answer.Answer)
	assert.Equal(t, domain.ConfidenceLow, outcome.Answer.Confidence)
	assert.Equal(t, []string{"Contact HR for guidance on this topic."}, outcome.Answer.FollowUpSuggestions)
	assert.Empty(t, outcome.Answer.Citations)
	assert.Zero(t, llm.calls, "no completion is requested")
}

func TestSynthesizer_Degraded(t *testing.T) {
	raw := "Sorry, I think it's 20 days."
	llm := &mockLLM{response: raw}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	outcome, err := synth.Synthesize(context.Background(), "How much leave?", sampleResults(), "")

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDegraded, outcome.Kind)
	assert.Equal(t, raw, outcome.Answer.Answer)
	assert.Equal(t, domain.ConfidenceMedium, outcome.Answer.Confidence)
	assert.Equal(t, "Please verify with HR for official confirmation.", outcome.Answer.Disclaimer)
	assert.Empty(t, outcome.Answer.Citations)
	assert.NotNil(t, outcome.Answer.Citations)
	assert.Equal(t, 1, llm.calls, "exactly one attempt")
}

func TestSynthesizer_TransportError(t *testing.T) {
	llm := &mockLLM{err: errors.New("timeout")}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	_, err := synth.Synthesize(context.Background(), "How much leave?", sampleResults(), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
	assert.Equal(t, 1, llm.calls)
}

func TestSynthesizer_RejectedKey(t *testing.T) {
	llm := &mockLLM{err: fmt.Errorf("openai: %w: status 401", domain.ErrConfiguration)}
	synth := NewSynthesizer(llm, &mockPromptStore{prompt: "SYSTEM"})

	_, err := synth.Synthesize(context.Background(), "How much leave?", sampleResults(), "")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NotErrorIs(t, err, domain.ErrSynthesisUnavailable)
}

func TestSynthesizer_PromptError(t *testing.T) {
	synth := NewSynthesizer(&mockLLM{}, &mockPromptStore{err: errors.New("unreadable")})

	_, err := synth.Synthesize(context.Background(), "q", sampleResults(), "")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSynthesizer_ModelName(t *testing.T) {
	synth := NewSynthesizer(&mockLLM{model: "llama-3.1-70b-versatile"}, &mockPromptStore{})

	assert.Equal(t, "llama-3.1-70b-versatile", synth.ModelName())
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "plain json", raw: validCompletion},
		{name: "json fence", raw: "```json\n" + validCompletion + "\n```"},
		{name: "bare fence", raw: "```\n" + validCompletion + "\n```"},
		{name: "inline fence", raw: "```" + `{"answer":"a","citations":[],"confidence":"low"}` + "```"},
		{name: "null optional fields", raw: `{"answer":"a","citations":[{"doc_id":"x","section":null,"snippet":null,"url":null}],"confidence":"medium","policy_matches":null,"disclaimer":null}`},
		{name: "not json", raw: "hello", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "missing citations", raw: `{"answer":"a","confidence":"low"}`, wantErr: true},
		{name: "bad confidence", raw: `{"answer":"a","citations":[],"confidence":"certain"}`, wantErr: true},
		{name: "citation without doc_id", raw: `{"answer":"a","citations":[{"section":"s"}],"confidence":"low"}`, wantErr: true},
		{name: "string page", raw: `{"answer":"a","citations":[{"doc_id":"x","page":"two"}],"confidence":"low"}`, wantErr: true},
		{name: "array root", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := ParseAnswer(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, answer.Citations)
			assert.NotNil(t, answer.PolicyMatches)
			assert.NotNil(t, answer.FollowUpSuggestions)
			assert.NotEmpty(t, answer.Disclaimer)
		})
	}
}

func TestParseAnswer_KeepsDisclaimerAndPage(t *testing.T) {
	raw := `{"answer":"a","citations":[{"doc_id":"x.pdf","page":4,"url":"https://x"}],"confidence":"high","disclaimer":"Custom."}`

	answer, err := ParseAnswer(raw)

	require.NoError(t, err)
	assert.Equal(t, "Custom.", answer.Disclaimer)
	require.NotNil(t, answer.Citations[0].Page)
	assert.Equal(t, 4, *answer.Citations[0].Page)
	assert.Equal(t, "https://x", answer.Citations[0].URL)
}

// --- Mock implementations ---

type mockLLM struct {
	model    string
	response string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string          { return m.model }
func (m *mockLLM) Ping(context.Context) error { return m.err }
func (m *mockLLM) Close() error               { return nil }

type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompt, nil
}

func (m *mockPromptStore) Reload() {}
