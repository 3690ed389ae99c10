// Package env overlays environment variables on another config store.
//
// The variables are the deployment knobs of the policy assistant
// (GROQ_API_KEY, MODEL_NAME, STORAGE_DIR, ...). When a variable is set it
// wins over the file value; everything else is delegated unchanged.
package env

import (
	"os"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/config"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// LookupFunc reads one environment variable.
type LookupFunc func(name string) (string, bool)

// directVars maps config keys to the variable that overrides them.
var directVars = map[string]string{
	driven.ConfigKeyLLMProvider:          "LLM_PROVIDER",
	driven.ConfigKeyLLMModel:             "MODEL_NAME",
	driven.ConfigKeyEmbeddingProvider:    "EMBEDDING_PROVIDER",
	driven.ConfigKeyEmbeddingModel:       "EMBEDDING_MODEL",
	driven.ConfigKeyStorageDir:           "STORAGE_DIR",
	driven.ConfigKeyDocsBaseURL:          "DOCS_BASE_URL",
	driven.ConfigKeyServerAllowedOrigins: "ALLOWED_ORIGINS",
	driven.ConfigKeyRetrievalTopK:        "TOP_K",
	driven.ConfigKeyRetrievalRegions:     "REGION_FILTERS",
	driven.ConfigKeyWhatsAppToken:        "WHATSAPP_TOKEN",
	driven.ConfigKeyWhatsAppVerifyToken:  "WHATSAPP_VERIFY_TOKEN",
}

// apiKeyVars maps a provider to the variable holding its API key.
var apiKeyVars = map[domain.AIProvider]string{
	domain.AIProviderGroq:      "GROQ_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

const ollamaBaseURLVar = "OLLAMA_BASE_URL"

// Store is a driven.ConfigStore that reads environment variables first.
// Writes go to the underlying store; a set variable keeps shadowing them.
type Store struct {
	base   driven.ConfigStore
	lookup LookupFunc
}

// NewStore wraps base with the process environment.
func NewStore(base driven.ConfigStore) *Store {
	return NewStoreWithLookup(base, os.LookupEnv)
}

// NewStoreWithLookup wraps base with a custom variable source.
func NewStoreWithLookup(base driven.ConfigStore, lookup LookupFunc) *Store {
	return &Store{base: base, lookup: lookup}
}

// Var returns the name of the variable currently overriding key, or "".
func (s *Store) Var(key string) string {
	name := s.varFor(key)
	if name == "" {
		return ""
	}
	if v, ok := s.lookup(name); ok && v != "" {
		return name
	}
	return ""
}

// varFor resolves which variable applies to key. API keys and base URLs
// depend on the provider in effect.
func (s *Store) varFor(key string) string {
	if name, ok := directVars[key]; ok {
		return name
	}

	defaults := domain.DefaultAppSettings()
	switch key {
	case driven.ConfigKeyLLMAPIKey:
		return apiKeyVars[s.provider(driven.ConfigKeyLLMProvider, defaults.LLM.Provider)]
	case driven.ConfigKeyEmbeddingAPIKey:
		if s.provider(driven.ConfigKeyEmbeddingProvider, defaults.Embedding.Provider) == domain.AIProviderOpenAI {
			return apiKeyVars[domain.AIProviderOpenAI]
		}
	case driven.ConfigKeyLLMBaseURL:
		if s.provider(driven.ConfigKeyLLMProvider, defaults.LLM.Provider) == domain.AIProviderOllama {
			return ollamaBaseURLVar
		}
	case driven.ConfigKeyEmbeddingBaseURL:
		if s.provider(driven.ConfigKeyEmbeddingProvider, defaults.Embedding.Provider) == domain.AIProviderOllama {
			return ollamaBaseURLVar
		}
	}
	return ""
}

func (s *Store) provider(key string, fallback domain.AIProvider) domain.AIProvider {
	if p := s.GetString(key); p != "" {
		return domain.AIProvider(p)
	}
	return fallback
}

// Get retrieves a configuration value, preferring the environment.
// Environment values are always strings.
func (s *Store) Get(key string) (any, bool) {
	if name := s.Var(key); name != "" {
		v, _ := s.lookup(name)
		return v, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	val, _ := s.Get(key)
	return config.ToString(val)
}

// GetInt retrieves an integer configuration value.
func (s *Store) GetInt(key string) int {
	val, _ := s.Get(key)
	return config.ToInt(val)
}

// GetFloat retrieves a float configuration value.
func (s *Store) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	return config.ToFloat(val)
}

// GetBool retrieves a boolean configuration value.
func (s *Store) GetBool(key string) bool {
	val, _ := s.Get(key)
	return config.ToBool(val)
}

// GetStringSlice retrieves a string slice configuration value.
// Variables are split on commas.
func (s *Store) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	return config.ToStringSlice(val)
}

// Set writes to the underlying store.
func (s *Store) Set(key string, value any) error {
	return s.base.Set(key, value)
}

// Load reloads the underlying store.
func (s *Store) Load() error {
	return s.base.Load()
}

// Path returns the underlying configuration file path.
func (s *Store) Path() string {
	return s.base.Path()
}
