package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question        string `json:"question" jsonschema:"the HR policy question to answer"`
	Region          string `json:"region,omitempty" jsonschema:"restrict answers to policies for this region"`
	TopK            int    `json:"top_k,omitempty" jsonschema:"number of policy passages to retrieve"`
	FollowUpContext string `json:"follow_up_context,omitempty" jsonschema:"earlier turns of the conversation"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the text to search policies for"`
	Region   string `json:"region,omitempty" jsonschema:"restrict results to policies for this region"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved passage.
type ChunkOutput struct {
	ChunkID string  `json:"chunk_id"`
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title,omitempty"`
	Section string  `json:"section,omitempty"`
	Page    *int    `json:"page,omitempty"`
	Region  string  `json:"region,omitempty"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer an HR policy question with citations to the source policies",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the policy passages most relevant to a question",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.AskResult, error) {
	req := domain.AskRequest{
		Question:        input.Question,
		TopK:            input.TopK,
		FollowUpContext: input.FollowUpContext,
	}
	if input.Region != "" {
		req.Filters = map[string]string{"region": input.Region}
	}

	result, err := s.ports.Ask.Ask(ctx, req)
	if err != nil {
		return nil, domain.AskResult{}, err
	}
	return nil, *result, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.TopK
	if k < 0 {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if k == 0 {
		k = s.config.DefaultTopK
	}

	var filters map[string]string
	if input.Region != "" {
		filters = map[string]string{"region": input.Region}
	}
	filter, err := domain.FilterFromMap(filters, s.config.Regions)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Question, k, filter)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]ChunkOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		c := results[i].Chunk
		output.Results[i] = ChunkOutput{
			ChunkID: c.ID,
			DocID:   c.DocID,
			Title:   c.Title,
			Section: c.Section,
			Page:    c.Page,
			Region:  c.Region,
			Text:    c.Text,
			Score:   results[i].Score,
		}
	}

	return nil, output, nil
}
