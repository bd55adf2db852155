package config

// TierPreset describes the tier and embedding models for a provider.
type TierPreset struct {
	Fast           string
	Balanced       string
	Deep           string
	EmbeddingModel string
}

// tierPresets maps each provider to its default tier model lineup.
// Providers without native embeddings fall back to OpenAI embeddings.
var tierPresets = map[ProviderType]TierPreset{
	ProviderAnthropic: {
		Fast:           "claude-3-5-haiku-latest",
		Balanced:       "claude-sonnet-4-5",
		Deep:           "claude-opus-4-1",
		EmbeddingModel: "text-embedding-3-small",
	},
	ProviderOpenAI: {
		Fast:           "gpt-4o-mini",
		Balanced:       "gpt-4o",
		Deep:           "o1",
		EmbeddingModel: "text-embedding-3-small",
	},
	ProviderOllama: {
		Fast:           "llama3",
		Balanced:       "llama3",
		Deep:           "llama3:70b",
		EmbeddingModel: "nomic-embed-text",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	preset := tierPresets[ProviderOpenAI]
	return &Config{
		Provider: ProviderOpenAI,
		Models: TierModels{
			Fast:     preset.Fast,
			Balanced: preset.Balanced,
			Deep:     preset.Deep,
		},
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".invoisaic",
		Port:              8460,
		RequestsPerMinute: 60,
		Engine: EngineConfig{
			LargeTransactionThreshold: 10000,
			RetrievalTopK:             5,
			SnippetMaxChars:           600,
			HistoryLimit:              50,
			EnrichmentTimeoutSecs:     10,
			InferenceTimeoutSecs:      60,
			MaxTokens:                 2048,
		},
		Bus: BusConfig{
			Type:       "channel",
			BufferSize: 256,
		},
	}
}

// GetPreset returns the default tier models for the given provider.
// Returns the OpenAI preset if the provider is not recognised.
func GetPreset(provider ProviderType) TierPreset {
	if preset, ok := tierPresets[provider]; ok {
		return preset
	}
	return tierPresets[ProviderOpenAI]
}
