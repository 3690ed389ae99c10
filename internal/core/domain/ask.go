package domain

// AskRequest is a question put to the policy corpus.
type AskRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters,omitempty"`

	// TopK overrides the configured default when positive.
	TopK int `json:"top_k,omitempty"`

	// FollowUpContext carries earlier turns of a conversation.
	FollowUpContext string `json:"follow_up_context,omitempty"`
}

// AskResult is the answer surfaced to callers.
type AskResult struct {
	Answer              string      `json:"answer"`
	Citations           []Citation  `json:"citations"`
	PolicyMatches       []string    `json:"policy_matches"`
	Confidence          Confidence  `json:"confidence"`
	FollowUpSuggestions []string    `json:"follow_up_suggestions"`
	Disclaimer          string      `json:"disclaimer"`
	Metadata            AskMetadata `json:"metadata"`
}

// AskMetadata describes how an answer was produced.
type AskMetadata struct {
	AnswerID   string      `json:"answer_id"`
	LatencyMS  int64       `json:"latency_ms"`
	RetrieverK int         `json:"retriever_k"`
	Model      string      `json:"model"`
	Outcome    OutcomeKind `json:"outcome"`
}
