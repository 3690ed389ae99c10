package driven

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files), environment
// overrides and type conversion. Keys use dot notation ("llm.model").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetFloat retrieves a float configuration value.
	// Integers are widened. Returns 0 if key doesn't exist or isn't numeric.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice configuration value.
	// Returns nil if key doesn't exist or isn't a slice.
	GetStringSlice(key string) []string

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// Well-known configuration keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	ConfigKeyEmbeddingProvider  = "embedding.provider"
	ConfigKeyEmbeddingModel     = "embedding.model"
	ConfigKeyEmbeddingBaseURL   = "embedding.base_url"
	ConfigKeyEmbeddingAPIKey    = "embedding.api_key"
	ConfigKeyEmbeddingBatchSize = "embedding.batch_size"
	ConfigKeyEmbeddingWorkers   = "embedding.workers"
	ConfigKeyEmbeddingRPS       = "embedding.requests_per_second"

	ConfigKeyLLMProvider = "llm.provider"
	ConfigKeyLLMModel    = "llm.model"
	ConfigKeyLLMBaseURL  = "llm.base_url"
	ConfigKeyLLMAPIKey   = "llm.api_key"

	ConfigKeyRetrievalTopK    = "retrieval.top_k"
	ConfigKeyRetrievalRegions = "retrieval.regions"

	ConfigKeyChunkSize    = "chunking.size"
	ConfigKeyChunkOverlap = "chunking.overlap"

	ConfigKeyStorageDir = "storage.dir"

	ConfigKeyDocsBaseURL = "docs.base_url"

	ConfigKeyServerAddr           = "server.addr"
	ConfigKeyServerAllowedOrigins = "server.allowed_origins"

	ConfigKeyWhatsAppToken       = "whatsapp.token"
	ConfigKeyWhatsAppVerifyToken = "whatsapp.verify_token"
	ConfigKeyWhatsAppAPIBaseURL  = "whatsapp.api_base_url"
)
