package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (INVOISAIC_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: INVOISAIC_PROVIDER -> provider,
	// INVOISAIC_ENGINE_MAX_TOKENS -> engine.max_tokens, etc.
	if err := k.Load(env.Provider("INVOISAIC_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "INVOISAIC_"))
		for _, prefix := range []string{"engine_", "bus_", "models_"} {
			if strings.HasPrefix(key, prefix) {
				return strings.TrimSuffix(prefix, "_") + "." + strings.TrimPrefix(key, prefix)
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderOllama:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, ollama", c.Provider)
	}

	if c.Models.Fast == "" || c.Models.Balanced == "" || c.Models.Deep == "" {
		return fmt.Errorf("models.fast, models.balanced and models.deep are all required")
	}

	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in range 1-65535")
	}

	if c.Engine.LargeTransactionThreshold <= 0 {
		return fmt.Errorf("engine.large_transaction_threshold must be positive")
	}

	if c.Engine.RetrievalTopK <= 0 {
		return fmt.Errorf("engine.retrieval_top_k must be positive")
	}

	if c.Engine.HistoryLimit <= 0 {
		return fmt.Errorf("engine.history_limit must be positive")
	}

	switch c.Bus.Type {
	case "channel", "nats":
	default:
		return fmt.Errorf("invalid bus.type %q: must be channel or nats", c.Bus.Type)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
