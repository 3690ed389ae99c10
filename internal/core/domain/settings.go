package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGroq is Groq's OpenAI-compatible cloud API.
	AIProviderGroq AIProvider = "groq"
)

// GroqBaseURL is the OpenAI-compatible endpoint for Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGroq:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGroq
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGroq:
		return "Groq (cloud, OpenAI-compatible)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name. It is recorded in the index.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts per embedding request during ingestion.
	BatchSize int

	// Workers bounds concurrent embedding requests during ingestion.
	Workers int

	// RequestsPerSecond paces embedding requests. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Groq).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Model == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings controls query-time retrieval.
type RetrievalSettings struct {
	// TopK is the default number of chunks retrieved per question.
	TopK int

	// Regions restricts the accepted region filter values. Empty accepts any.
	Regions []string
}

// ChunkingSettings controls the chunker.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters adjacent chunks share.
	Overlap int
}

// StorageSettings controls where the index and logs live.
type StorageSettings struct {
	// Dir holds index.db and feedback.tsv.
	Dir string
}

// DocsSettings controls citation links.
type DocsSettings struct {
	// BaseURL is joined with a doc_id to form citation URLs. Empty disables links.
	BaseURL string
}

// ServerSettings controls the HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// AllowedOrigins lists CORS origins. "*" allows any.
	AllowedOrigins []string
}

// WhatsAppSettings configures the WhatsApp Cloud API integration.
type WhatsAppSettings struct {
	// Token is the Bearer token for the send API.
	Token string

	// VerifyToken answers the webhook verification handshake.
	VerifyToken string

	// APIBaseURL is the Graph API base, including the version.
	APIBaseURL string
}

// IsConfigured returns true if replies can be sent.
func (w WhatsAppSettings) IsConfigured() bool {
	return w.Token != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Chunking  ChunkingSettings
	Storage   StorageSettings
	Docs      DocsSettings
	Server    ServerSettings
	WhatsApp  WhatsAppSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM API key is left empty; it must come from config or GROQ_API_KEY.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: 32,
			Workers:   4,
		},
		LLM: LLMSettings{
			Provider: AIProviderGroq,
			Model:    DefaultLLMModels()[AIProviderGroq],
		},
		Retrieval: RetrievalSettings{
			TopK: 5,
		},
		Chunking: ChunkingSettings{
			Size:    1200,
			Overlap: 150,
		},
		Storage: StorageSettings{
			Dir: "./storage/index",
		},
		Server: ServerSettings{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
		},
		WhatsApp: WhatsAppSettings{
			APIBaseURL: "https://graph.facebook.com/v19.0",
		},
	}
}

// Validate checks the settings needed to answer questions.
// Every failure wraps ErrConfiguration.
func (s AppSettings) Validate() error {
	var problems []string

	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", s.Embedding.Provider))
	} else if !providerSupports(AllEmbeddingProviders(), s.Embedding.Provider) {
		problems = append(problems, fmt.Sprintf("%s does not support embeddings", s.Embedding.Provider))
	}
	if s.Embedding.Model == "" {
		problems = append(problems, "embedding model is not set")
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		problems = append(problems, fmt.Sprintf("API key required for %s embeddings", s.Embedding.Provider))
	}

	if !s.LLM.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown llm provider %q", s.LLM.Provider))
	}
	if s.LLM.Model == "" {
		problems = append(problems, "llm model is not set")
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		problems = append(problems, fmt.Sprintf("API key required for %s", s.LLM.Provider))
	}

	if s.Retrieval.TopK <= 0 {
		problems = append(problems, "retrieval top_k must be positive")
	}
	if s.Chunking.Size <= 0 || s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		problems = append(problems, "chunking requires size > overlap >= 0")
	}
	if s.Storage.Dir == "" {
		problems = append(problems, "storage dir is not set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func providerSupports(providers []AIProvider, p AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.1-70b-versatile",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the chunk-then-annotate pipeline for the given chunking settings.
func PipelineConfigFor(chunking ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "provenance"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": chunking.Size,
				"overlap":    chunking.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the pipeline for the default chunking settings.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultAppSettings().Chunking)
}
