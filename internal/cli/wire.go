package cli

import (
	"context"
	"fmt"

	"newsrec/config"
	"newsrec/internal/adapter/cache"
	"newsrec/internal/adapter/catalog"
	"newsrec/internal/adapter/embedding"
	"newsrec/internal/adapter/llm"
	"newsrec/internal/adapter/qdrant"
	"newsrec/internal/port"
	"newsrec/internal/usecase"
)

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, logger)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.Dimension, logger)
	case "deepseek":
		return embedding.NewDeepSeekEmbedder(e.APIKeyEnv, e.Model, e.Dimension, logger)
	case "siliconflow":
		return embedding.NewSiliconFlowEmbedder(e.APIKeyEnv, e.Model, e.Dimension, logger)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension, logger)
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func newChatModel(cfg *config.Config) (port.ChatModel, error) {
	l := cfg.LLM
	switch l.Provider {
	case "deepseek":
		return llm.NewDeepSeekChat(l.APIKeyEnv, l.Model, l.MaxTokens, l.Temperature, logger)
	case "siliconflow":
		return llm.NewSiliconFlowChat(l.APIKeyEnv, l.Model, l.MaxTokens, l.Temperature, logger)
	case "openai":
		return llm.NewOpenAIChat(l.APIKeyEnv, l.Model, l.MaxTokens, l.Temperature, logger)
	case "ollama":
		baseURL := l.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		return llm.NewOpenAICompatibleChat(l.APIKeyEnv, l.Model, baseURL, l.MaxTokens, l.Temperature, logger)
	default:
		if l.BaseURL != "" {
			return llm.NewOpenAICompatibleChat(l.APIKeyEnv, l.Model, l.BaseURL, l.MaxTokens, l.Temperature, logger)
		}
		return nil, fmt.Errorf("unsupported llm provider: %s", l.Provider)
	}
}

func newVectorIndex(cfg *config.Config) port.VectorIndex {
	return qdrant.NewClient(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Embedding.Dimension, logger)
}

func loadArticleIndex(ctx context.Context, cfg *config.Config) (*catalog.MemoryIndex, error) {
	src := catalog.NewTSVCatalog(cfg.Data.NewsGlob, logger)
	articles, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryIndex(articles), nil
}

// newRecommender wires the full pipeline from config. The returned closer is
// non-nil when an embedding cache was opened.
func newRecommender(ctx context.Context, cfg *config.Config) (*usecase.Recommender, func() error, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	chat, err := newChatModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	articles, err := loadArticleIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var closer func() error
	if cfg.Ingest.CachePath != "" {
		if c, cerr := cache.NewEmbeddingCache(cfg.Ingest.CachePath); cerr == nil {
			embedder = cache.NewCachedEmbedder(embedder, c)
			closer = c.Close
		} else {
			logger.Warn().Err(cerr).Str("path", cfg.Ingest.CachePath).Msg("embedding cache unavailable, continuing without it")
		}
	}

	behaviors := catalog.NewTSVBehaviors(cfg.Data.BehaviorsGlob, logger)
	index := newVectorIndex(cfg)

	profiles := usecase.NewProfileBuilder(articles, chat, cfg.Recommend.ProfileHistory, logger)
	retriever := usecase.NewCandidateRetriever(embedder, index, cfg.Qdrant.Collection, logger)
	ranker := usecase.NewRanker(articles, chat, logger)

	rec := usecase.NewRecommender(behaviors, articles, profiles, retriever, ranker, cfg.Recommend.RandomPoolSize, logger)
	return rec, closer, nil
}
