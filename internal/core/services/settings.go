package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

const defaultOllamaBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(driven.ConfigKeyEmbeddingProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(driven.ConfigKeyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(driven.ConfigKeyEmbeddingModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider, defaults.Embedding.Model)),
			BaseURL:           s.configStore.GetString(driven.ConfigKeyEmbeddingBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(driven.ConfigKeyEmbeddingAPIKey),
			BatchSize:         s.getInt(driven.ConfigKeyEmbeddingBatchSize, defaults.Embedding.BatchSize),
			Workers:           s.getInt(driven.ConfigKeyEmbeddingWorkers, defaults.Embedding.Workers),
			RequestsPerSecond: s.getFloat(driven.ConfigKeyEmbeddingRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(driven.ConfigKeyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider, defaults.LLM.Model)),
			BaseURL:  s.configStore.GetString(driven.ConfigKeyLLMBaseURL),
			APIKey:   s.configStore.GetString(driven.ConfigKeyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:    s.getInt(driven.ConfigKeyRetrievalTopK, defaults.Retrieval.TopK),
			Regions: s.configStore.GetStringSlice(driven.ConfigKeyRetrievalRegions),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(driven.ConfigKeyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(driven.ConfigKeyChunkOverlap, defaults.Chunking.Overlap),
		},
		Storage: domain.StorageSettings{
			Dir: s.getString(driven.ConfigKeyStorageDir, defaults.Storage.Dir),
		},
		Docs: domain.DocsSettings{
			BaseURL: s.configStore.GetString(driven.ConfigKeyDocsBaseURL),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(driven.ConfigKeyServerAddr, defaults.Server.Addr),
			AllowedOrigins: s.getStringSlice(driven.ConfigKeyServerAllowedOrigins, defaults.Server.AllowedOrigins),
		},
		WhatsApp: domain.WhatsAppSettings{
			Token:       s.configStore.GetString(driven.ConfigKeyWhatsAppToken),
			VerifyToken: s.configStore.GetString(driven.ConfigKeyWhatsAppVerifyToken),
			APIBaseURL:  s.getString(driven.ConfigKeyWhatsAppAPIBaseURL, defaults.WhatsApp.APIBaseURL),
		},
	}

	return settings, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(driven.ConfigKeyEmbeddingBaseURL, defaultOllamaBaseURL)
	}

	return s.save([]setting{
		{driven.ConfigKeyEmbeddingProvider, provider.String()},
		{driven.ConfigKeyEmbeddingModel, model},
		{driven.ConfigKeyEmbeddingBaseURL, baseURL},
		{driven.ConfigKeyEmbeddingAPIKey, apiKey},
	})
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(driven.ConfigKeyLLMBaseURL, defaultOllamaBaseURL)
	}

	return s.save([]setting{
		{driven.ConfigKeyLLMProvider, provider.String()},
		{driven.ConfigKeyLLMModel, model},
		{driven.ConfigKeyLLMBaseURL, baseURL},
		{driven.ConfigKeyLLMAPIKey, apiKey},
	})
}

// Validate checks that current settings can answer questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

type setting struct {
	key   string
	value any
}

func (s *SettingsService) save(values []setting) error {
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// defaultModel picks the provider's default model, falling back to fallback.
func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider, fallback string) string {
	if m, ok := models[provider]; ok {
		return m
	}
	return fallback
}
