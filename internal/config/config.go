package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DatasetConfig locates the price history CSV and names its ticker.
type DatasetConfig struct {
	Path    string `yaml:"path"`
	Ticker  string `yaml:"ticker"`
	Company string `yaml:"company"`
}

// IngestConfig controls how records are written to the index.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// RetrieveConfig controls how many records ground an answer.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// SQLiteStoreConfig contains the persist location of the SQLite store.
type SQLiteStoreConfig struct {
	Dir string `yaml:"dir"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
// Collection names the logical index partition; the ingestion controller
// and retriever must agree on it.
type VectorStoreConfig struct {
	Type       string             `yaml:"type"`
	Collection string             `yaml:"collection"`
	SQLite     *SQLiteStoreConfig `yaml:"sqlite,omitempty"`
	Qdrant     *QdrantConfig      `yaml:"qdrant,omitempty"`
}

// GeneratorConfig configures the answer-generation chat endpoint.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Retrieve    RetrieveConfig    `yaml:"retrieve"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/stocksense/config.yaml.
// If neither exists, it writes defaults to ~/.config/stocksense/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stocksense", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Dataset: DatasetConfig{
			Path:    "stock_prices.csv",
			Ticker:  "AMZN",
			Company: "Amazon",
		},
		Ingest:   IngestConfig{BatchSize: 1000},
		Retrieve: RetrieveConfig{TopK: 15},
		Embedder: EmbedderConfig{Type: "hash"},
		VectorStore: VectorStoreConfig{
			Type:       "sqlite",
			Collection: "amzn_stock_history",
			SQLite:     &SQLiteStoreConfig{Dir: "./stocksense_db"},
		},
		Generator: GeneratorConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "gemma3:latest",
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Dataset.Ticker == "" {
		cfg.Dataset.Ticker = "AMZN"
	}
	if cfg.Dataset.Company == "" {
		cfg.Dataset.Company = cfg.Dataset.Ticker
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 1000
	}
	if cfg.Retrieve.TopK == 0 {
		cfg.Retrieve.TopK = 15
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "amzn_stock_history"
	}
	if cfg.VectorStore.Type == "sqlite" && cfg.VectorStore.SQLite == nil {
		cfg.VectorStore.SQLite = &SQLiteStoreConfig{Dir: "./stocksense_db"}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemma3:latest"
	}
}
