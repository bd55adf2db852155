package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// TierModels names the model used at each capability tier. Fast is the
// cheap/low-latency model, Balanced the default, Deep the reasoning model
// reserved for high-complexity requests.
type TierModels struct {
	Fast     string `yaml:"fast" koanf:"fast"`
	Balanced string `yaml:"balanced" koanf:"balanced"`
	Deep     string `yaml:"deep" koanf:"deep"`
}

// BusConfig selects and configures the event bus backend.
type BusConfig struct {
	Type       string `yaml:"type" koanf:"type"` // "channel" or "nats"
	NATSUrl    string `yaml:"nats_url" koanf:"nats_url"`
	NATSToken  string `yaml:"nats_token" koanf:"nats_token"`
	BufferSize int    `yaml:"buffer_size" koanf:"buffer_size"`
}

// EngineConfig holds decision-engine tunables.
type EngineConfig struct {
	// LargeTransactionThreshold is the amount above which a request is
	// treated as a large transaction for scoring and fraud checks.
	LargeTransactionThreshold float64 `yaml:"large_transaction_threshold" koanf:"large_transaction_threshold"`
	// RetrievalTopK is the number of knowledge snippets fetched per query.
	RetrievalTopK int `yaml:"retrieval_top_k" koanf:"retrieval_top_k"`
	// SnippetMaxChars bounds each snippet when rendered into a prompt.
	SnippetMaxChars int `yaml:"snippet_max_chars" koanf:"snippet_max_chars"`
	// HistoryLimit is how many recent records the history analyzer reads.
	HistoryLimit int `yaml:"history_limit" koanf:"history_limit"`
	// EnrichmentTimeoutSecs bounds each enrichment call (retrieval,
	// history, extraction, predictions).
	EnrichmentTimeoutSecs int `yaml:"enrichment_timeout_secs" koanf:"enrichment_timeout_secs"`
	// InferenceTimeoutSecs bounds a single reasoning call.
	InferenceTimeoutSecs int `yaml:"inference_timeout_secs" koanf:"inference_timeout_secs"`
	// MaxTokens is the completion budget for reasoning calls.
	MaxTokens int `yaml:"max_tokens" koanf:"max_tokens"`
}

// Config is the top-level invoisaic configuration, corresponding to .invoisaic.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Models            TierModels   `yaml:"models" koanf:"models"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Port              int          `yaml:"port" koanf:"port"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Engine            EngineConfig `yaml:"engine" koanf:"engine"`
	Bus               BusConfig    `yaml:"bus" koanf:"bus"`
}
