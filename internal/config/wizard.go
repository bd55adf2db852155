package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .invoisaic.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to invoisaic! Let's configure the decision engine.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	// 2. Large transaction threshold.
	thresholdPrompt := promptui.Prompt{
		Label:   "Large transaction threshold (amount)",
		Default: "10000",
		Validate: func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("must be a positive number")
			}
			return nil
		},
	}
	thresholdStr, err := thresholdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("threshold input: %w", err)
	}
	threshold, _ := strconv.ParseFloat(thresholdStr, 64)

	// 3. Event bus backend.
	busPrompt := promptui.Select{
		Label: "Select event bus",
		Items: []string{"channel (in-process)", "nats"},
	}
	busIdx, _, err := busPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("bus selection: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Models = TierModels{Fast: preset.Fast, Balanced: preset.Balanced, Deep: preset.Deep}
	cfg.EmbeddingProvider = provider
	if provider == ProviderAnthropic {
		// Anthropic has no embeddings API; fall back to OpenAI.
		cfg.EmbeddingProvider = ProviderOpenAI
	}
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.Engine.LargeTransactionThreshold = threshold
	if busIdx == 1 {
		cfg.Bus.Type = "nats"
		natsPrompt := promptui.Prompt{
			Label:   "NATS URL",
			Default: "nats://localhost:4222",
		}
		natsURL, err := natsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("nats url input: %w", err)
		}
		cfg.Bus.NATSUrl = natsURL
	}

	if provider != ProviderOllama {
		if envVar := APIKeyEnvVar(provider); envVar != "" {
			fmt.Printf("\nRemember to set %s before running the engine.\n", envVar)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Save(".invoisaic.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfig written to .invoisaic.yml")

	return cfg, nil
}
