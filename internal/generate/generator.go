// Package generate produces grounded answers from retrieved records via an
// OpenAI-compatible chat endpoint (a local Ollama server by default).
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL = "http://localhost:11434/v1"
	defaultModel   = "gemma3:latest"
)

const promptTemplate = `You are StockSense AI, a professional fintech assistant.
Use ONLY provided stock records.
Do not predict future prices.
If data not available, say:
"The dataset does not contain this information."

Records:
%s

Question:
%s`

// Generator maps retrieved records and a question to an answer. It is
// assumed to fail closed: provider trouble surfaces as an error, never as
// malformed output.
type Generator interface {
	Generate(records, question string) (string, error)
}

// ChatGenerator implements Generator with a chat completion call.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
}

func NewChatGenerator(cfg Config) *ChatGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		// Ollama's OpenAI-compatible endpoint ignores the key but the
		// client requires one.
		key = "ollama"
	}
	clientConfig := openai.DefaultConfig(key)
	clientConfig.BaseURL = cfg.BaseURL
	return &ChatGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (g *ChatGenerator) Generate(records, question string) (string, error) {
	resp, err := g.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptTemplate, records, question),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Retriever supplies the grounding records for a question.
type Retriever interface {
	Retrieve(query string, k int) ([]string, error)
}

// Answerer composes retrieval and generation: the retrieved texts are
// joined into one context block and handed to the generator together with
// the raw question.
type Answerer struct {
	retriever Retriever
	generator Generator
}

func NewAnswerer(retriever Retriever, generator Generator) *Answerer {
	return &Answerer{retriever: retriever, generator: generator}
}

func (a *Answerer) Answer(question string) (string, error) {
	texts, err := a.retriever.Retrieve(question, 0)
	if err != nil {
		return "", err
	}
	return a.generator.Generate(strings.Join(texts, "\n\n"), question)
}
