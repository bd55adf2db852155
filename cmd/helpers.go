package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Fatal777/invoisaic/internal/bus"
	"github.com/Fatal777/invoisaic/internal/config"
	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/embeddings"
	"github.com/Fatal777/invoisaic/internal/engine"
	"github.com/Fatal777/invoisaic/internal/extract"
	"github.com/Fatal777/invoisaic/internal/fraud"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/knowledge"
	"github.com/Fatal777/invoisaic/internal/llm"
	"github.com/Fatal777/invoisaic/internal/predict"
)

// loadConfig loads and validates the config, providing a friendly hint
// when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `invoisaic init` to create a config file", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}

	switch provider {
	case config.ProviderOpenAI, config.ProviderOllama:
		return embeddings.New(string(provider), model)
	default:
		// Providers without native embeddings fall back to OpenAI.
		if os.Getenv("OPENAI_API_KEY") == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.New("openai", model)
	}
}

// createProviderFromConfig creates the rate-limited reasoning provider.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Models.Balanced)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}

// createBusFromConfig creates the configured event bus backend.
func createBusFromConfig(cfg *config.Config) (bus.Bus, error) {
	switch cfg.Bus.Type {
	case "", "channel":
		return bus.NewChannelBus(cfg.Bus.BufferSize), nil
	case "nats":
		return bus.NewNATSBus(bus.NATSConfig{URL: cfg.Bus.NATSUrl, Token: cfg.Bus.NATSToken})
	default:
		return nil, fmt.Errorf("unsupported bus type: %s", cfg.Bus.Type)
	}
}

// openKnowledgeStore creates the vector store and loads any persisted
// knowledge base from the data directory.
func openKnowledgeStore(cfg *config.Config) (*knowledge.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := knowledge.NewChromemStore(embedder)
	if err != nil {
		return nil, err
	}
	if err := store.Load(cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load knowledge base from %s: %v\n", cfg.DataDir, err)
		fmt.Fprintln(os.Stderr, "Retrieval will return nothing. Run `invoisaic seed` first.")
	}
	return store, nil
}

// buildEngine assembles the full decision pipeline from config.
func buildEngine(cfg *config.Config, database *db.DB, store knowledge.VectorStore, provider llm.Provider, eventBus bus.Bus) (*engine.Engine, *fraud.Engine) {
	learningStore := history.NewSQLiteStore(database)
	analyzer := history.NewAnalyzer(learningStore, cfg.Engine.HistoryLimit)
	retriever := knowledge.NewRetriever(store, cfg.Engine.RetrievalTopK)
	invoker := engine.NewInvoker(provider, cfg.Engine.MaxTokens, time.Duration(cfg.Engine.InferenceTimeoutSecs)*time.Second)
	fraudEngine := fraud.New(learningStore, invoker, cfg.Models.Balanced, cfg.Engine.LargeTransactionThreshold)

	eng := engine.New(engine.Options{
		LargeTransactionThreshold: cfg.Engine.LargeTransactionThreshold,
		SnippetMaxChars:           cfg.Engine.SnippetMaxChars,
		EnrichmentTimeout:         time.Duration(cfg.Engine.EnrichmentTimeoutSecs) * time.Second,
		Models:                    cfg.Models,
	}, engine.Deps{
		Retriever: retriever,
		History:   analyzer,
		Writer:    learningStore,
		Invoker:   invoker,
		Fraud:     fraudEngine,
		Extractor: extract.NewLLMExtractor(provider, cfg.Models.Balanced),
		Predictor: predict.New(provider, cfg.Models.Fast),
		Bus:       eventBus,
	})
	return eng, fraudEngine
}

// databasePath returns the SQLite file path under the data directory.
func databasePath(cfg *config.Config) (string, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return filepath.Join(cfg.DataDir, "invoisaic.db"), nil
}
