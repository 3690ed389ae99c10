package domain

// Fixed answer texts.
const (
	// NoPolicyAnswer is the exact answer for questions the policies do not cover.
	NoPolicyAnswer = "I don't have that in policy"

	// StandardDisclaimer accompanies every answer that lacks one.
	StandardDisclaimer = "Please verify with HR for official confirmation."

	// ContactHRSuggestion is offered when no policy supports an answer.
	ContactHRSuggestion = "Contact HR for guidance on this topic."
)

// Confidence is the model's self-reported grounding level.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// IsValid returns true if the confidence level is recognised.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	default:
		return false
	}
}

// Citation points an answer at a supporting chunk.
type Citation struct {
	DocID   string `json:"doc_id"`
	Section string `json:"section"`
	Snippet string `json:"snippet"`
	Page    *int   `json:"page,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SynthesizedAnswer is the structured output of answer synthesis.
type SynthesizedAnswer struct {
	Answer              string     `json:"answer"`
	Citations           []Citation `json:"citations"`
	PolicyMatches       []string   `json:"policy_matches"`
	Confidence          Confidence `json:"confidence"`
	FollowUpSuggestions []string   `json:"follow_up_suggestions"`
	Disclaimer          string     `json:"disclaimer"`
}

// FallbackAnswer wraps raw completion text verbatim with neutral defaults.
func FallbackAnswer(raw string) SynthesizedAnswer {
	return SynthesizedAnswer{
		Answer:              raw,
		Citations:           []Citation{},
		PolicyMatches:       []string{},
		Confidence:          ConfidenceMedium,
		FollowUpSuggestions: []string{},
		Disclaimer:          StandardDisclaimer,
	}
}

// UngroundedAnswer is returned when no policy context supports a question.
func UngroundedAnswer() SynthesizedAnswer {
	return SynthesizedAnswer{
		Answer:              NoPolicyAnswer,
		Citations:           []Citation{},
		PolicyMatches:       []string{},
		Confidence:          ConfidenceLow,
		FollowUpSuggestions: []string{ContactHRSuggestion},
		Disclaimer:          StandardDisclaimer,
	}
}

// OutcomeKind tags how a SynthesizedAnswer was produced.
type OutcomeKind string

// Synthesis outcomes.
const (
	// OutcomeParsed means the completion matched the answer schema.
	OutcomeParsed OutcomeKind = "parsed"

	// OutcomeDegraded means the completion did not parse and the raw text was wrapped.
	OutcomeDegraded OutcomeKind = "degraded"

	// OutcomeUngrounded means retrieval returned nothing and no completion was requested.
	OutcomeUngrounded OutcomeKind = "ungrounded"
)

// SynthesisOutcome is the tagged result of synthesis.
type SynthesisOutcome struct {
	// Kind says which path produced Answer.
	Kind OutcomeKind

	// Answer is always well-formed, whatever the Kind.
	Answer SynthesizedAnswer

	// Raw is the completion text as received. Empty for OutcomeUngrounded.
	Raw string
}

// Parsed builds a parsed outcome.
func Parsed(answer SynthesizedAnswer, raw string) SynthesisOutcome {
	return SynthesisOutcome{Kind: OutcomeParsed, Answer: answer, Raw: raw}
}

// Degraded builds the fallback outcome for unparsable completion text.
func Degraded(raw string) SynthesisOutcome {
	return SynthesisOutcome{Kind: OutcomeDegraded, Answer: FallbackAnswer(raw), Raw: raw}
}

// Ungrounded builds the outcome for an empty retrieval.
func Ungrounded() SynthesisOutcome {
	return SynthesisOutcome{Kind: OutcomeUngrounded, Answer: UngroundedAnswer()}
}
