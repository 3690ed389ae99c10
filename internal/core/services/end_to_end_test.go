package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/normalisers"
	"github.com/custodia-labs/policy-assistant/internal/postprocessors"
)

var keywords = []string{"leave", "days", "annual", "sick", "travel"}

// keywordVector counts keyword occurrences, enough for cosine ranking.
func keywordVector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(keywords)+1)
	for i, k := range keywords {
		v[i] = float32(strings.Count(text, k))
	}
	v[len(keywords)] = 0.1
	return v
}

func TestIngestThenAsk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sqlite.NewIndexStore(dir)
	require.NoError(t, err)
	pipeline, err := postprocessors.NewDefaultPipeline(domain.DefaultAppSettings().Chunking)
	require.NoError(t, err)
	embedder := &mockEmbedder{model: "all-minilm", fn: keywordVector}
	handle := NewIndexHandle(store, flat.Build)
	ingest := NewIngestService(normalisers.NewDefaultRegistry(), pipeline, embedder, store, flat.Build, handle, IngestConfig{})

	result, err := ingest.Ingest(ctx, domain.IngestRequest{Files: []domain.RawDocument{
		policyFile("leave.txt", "Leave Policy. Employees get 20 days annual leave."),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentsProcessed)
	require.Equal(t, 1, result.ChunksCreated)

	// A fresh handle reads the index back from disk, as after a restart.
	retrieval := NewRetrievalService(NewIndexHandle(store, flat.Build), embedder)

	results, err := retrieval.Retrieve(ctx, "How many annual leave days?", 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	chunk := results[0].Chunk
	assert.Equal(t, "leave.txt", chunk.DocID)
	assert.Equal(t, "Leave Policy. Employees get 20 days annual leave.", chunk.Section)
	assert.Greater(t, results[0].Score, 0.0)

	llm := &groundedLLM{}
	ask := NewAskService(retrieval, NewSynthesizer(llm, &mockPromptStore{prompt: "Answer in JSON."}), AskConfig{})

	answer, err := ask.Ask(ctx, domain.AskRequest{Question: "How many annual leave days?", TopK: 1})
	require.NoError(t, err)
	assert.Contains(t, answer.Answer, "20")
	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "leave.txt", answer.Citations[0].DocID)
	assert.Equal(t, domain.OutcomeParsed, answer.Metadata.Outcome)
	assert.Equal(t, 1, answer.Metadata.RetrieverK)
}

func TestIngestThenAsk_ReingestReplacesIndex(t *testing.T) {
	ctx := context.Background()

	store, err := sqlite.NewIndexStore(t.TempDir())
	require.NoError(t, err)
	pipeline, err := postprocessors.NewDefaultPipeline(domain.DefaultAppSettings().Chunking)
	require.NoError(t, err)
	embedder := &mockEmbedder{model: "all-minilm", fn: keywordVector}
	handle := NewIndexHandle(store, flat.Build)
	ingest := NewIngestService(normalisers.NewDefaultRegistry(), pipeline, embedder, store, flat.Build, handle, IngestConfig{})
	retrieval := NewRetrievalService(handle, embedder)

	_, err = ingest.Ingest(ctx, domain.IngestRequest{Files: []domain.RawDocument{
		policyFile("leave.txt", "Leave Policy. Employees get 20 days annual leave."),
	}})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, domain.IngestRequest{Files: []domain.RawDocument{
		policyFile("sick.txt", "Sick Pay. Sick days are paid from day four."),
	}})
	require.NoError(t, err)

	results, err := retrieval.Retrieve(ctx, "How many annual leave days?", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sick.txt", results[0].Chunk.DocID)
}

// --- Mock implementations ---

var contextHeader = regexp.MustCompile(`\[([^\]|]+) \| section: ([^|]+) \| page: [^\]]+\]\n(.+)`)

// groundedLLM answers with the first context passage of the prompt and
// cites it.
type groundedLLM struct {
	calls int
}

func (m *groundedLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.calls++
	prompt := messages[len(messages)-1].Content
	match := contextHeader.FindStringSubmatch(prompt)
	if match == nil {
		return `{"answer":"I could not find this in the policies.","citations":[],"policy_matches":[],` +
			`"confidence":"low","follow_up_suggestions":[],"disclaimer":""}`, nil
	}
	out, err := json.Marshal(domain.SynthesizedAnswer{
		Answer:              match[3],
		Citations:           []domain.Citation{{DocID: match[1], Section: match[2], Snippet: match[3]}},
		PolicyMatches:       []string{match[2]},
		Confidence:          domain.ConfidenceHigh,
		FollowUpSuggestions: []string{},
	})
	return string(out), err
}

func (m *groundedLLM) ModelName() string          { return "grounded" }
func (m *groundedLLM) Ping(context.Context) error { return nil }
func (m *groundedLLM) Close() error               { return nil }
