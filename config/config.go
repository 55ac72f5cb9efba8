package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the recommender.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Data      DataConfig      `yaml:"data"`
	Recommend RecommendConfig `yaml:"recommend"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig holds text-generation gateway configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`    // "deepseek", "openai", "siliconflow", "ollama"
	Model       string  `yaml:"model"`       // e.g. "deepseek-chat"
	BaseURL     string  `yaml:"base_url"`    // overrides the provider default
	APIKeyEnv   string  `yaml:"api_key_env"` // environment variable for the API key
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig holds embedding gateway configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "deepseek", "siliconflow", "ollama", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// QdrantConfig holds vector index configuration.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// DataConfig holds catalog and behavior source locations. Paths are
// doublestar globs so split datasets can be loaded together.
type DataConfig struct {
	NewsGlob      string `yaml:"news_glob"`
	BehaviorsGlob string `yaml:"behaviors_glob"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	TopN                int `yaml:"top_n"`
	CandidateMultiplier int `yaml:"candidate_multiplier"` // pool limit = multiplier * top_n
	ProfileHistory      int `yaml:"profile_history"`      // digest window
	RandomPoolSize      int `yaml:"random_pool_size"`     // degraded-mode sample size
}

// IngestConfig tunes bulk vector population.
type IngestConfig struct {
	BatchSize int    `yaml:"batch_size"`
	CachePath string `yaml:"cache_path"` // bbolt embedding cache; empty disables
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "deepseek",
			Model:       "deepseek-chat",
			APIKeyEnv:   "DEEPSEEK_API_KEY",
			MaxTokens:   2000,
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6333,
			Collection: "news_vectors",
		},
		Data: DataConfig{
			NewsGlob:      "data/MIND/*/news.tsv",
			BehaviorsGlob: "data/MIND/*/behaviors.tsv",
		},
		Recommend: RecommendConfig{
			TopN:                5,
			CandidateMultiplier: 3,
			ProfileHistory:      10,
			RandomPoolSize:      50,
		},
		Ingest: IngestConfig{
			BatchSize: 500,
			CachePath: ".newsrec/embeddings.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, layered over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for newsrec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "newsrec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".newsrec", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CandidateLimit returns the candidate pool size for a given top-n.
func (c *Config) CandidateLimit(topN int) int {
	m := c.Recommend.CandidateMultiplier
	if m <= 0 {
		m = 3
	}
	return m * topN
}
