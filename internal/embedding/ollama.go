package embedding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Defaults for a local Ollama server.
const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "mxbai-embed-large"
	defaultOllamaTimeout = 30 * time.Second
)

// OllamaClient embeds text via a local Ollama server.
type OllamaClient struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = defaultOllamaTimeout
	}
	return &OllamaClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

// Dimension is model-dependent and set lazily on the first embed.
func (c *OllamaClient) Dimension() int { return c.dimension }

func (c *OllamaClient) Embed(text string) ([]float64, error) {
	type reqBody struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	body := reqBody{Model: c.model, Prompt: text}
	data, _ := json.Marshal(body)
	url := fmt.Sprintf("%s/api/embeddings", c.baseURL)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama embeddings failed: %s", resp.Status)
	}
	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("empty embedding")
	}
	if c.dimension == 0 {
		c.dimension = len(out.Embedding)
	}
	return out.Embedding, nil
}
