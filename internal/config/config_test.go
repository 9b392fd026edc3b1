package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "hash", cfg.Embedder.Type)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, "amzn_stock_history", cfg.VectorStore.Collection)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
	assert.Equal(t, 15, cfg.Retrieve.TopK)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
dataset:
  path: prices.csv
  ticker: AAPL
embedder:
  type: openai
  openai:
    base_url: http://localhost:8080/v1
vector_store:
  type: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prices.csv", cfg.Dataset.Path)
	assert.Equal(t, "AAPL", cfg.Dataset.Ticker)
	assert.Equal(t, "AAPL", cfg.Dataset.Company, "company falls back to ticker")
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	require.NotNil(t, cfg.VectorStore.SQLite)
	assert.Equal(t, "./stocksense_db", cfg.VectorStore.SQLite.Dir)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
	assert.Equal(t, "gemma3:latest", cfg.Generator.Model)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Dataset.Ticker = "MSFT"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", loaded.Dataset.Ticker)
}
