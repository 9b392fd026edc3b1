package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"stocksense/internal/config"
	"stocksense/internal/dataset"
	"stocksense/internal/embedding"
	"stocksense/internal/generate"
	"stocksense/internal/index"
	"stocksense/internal/pipeline"
	"stocksense/internal/record"
	"stocksense/internal/tui"
	"stocksense/internal/vectorstore"
	"stocksense/internal/vectorstore/memory"
	"stocksense/internal/vectorstore/qdrant"
	"stocksense/internal/vectorstore/sqlite"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  string
		question string
		reset    bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/stocksense/config.yaml if not provided)")
	flag.StringVar(&question, "q", "", "Answer a single question and exit instead of starting the chat")
	flag.BoolVar(&reset, "reset", false, "Clear the collection and re-ingest the dataset")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	datasetPath := cfg.Dataset.Path
	if flag.NArg() > 0 {
		datasetPath = flag.Arg(0)
	}
	rows, err := dataset.Load(datasetPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "hash", "":
		emb = embedding.NewHashEmbedder(cfg.Embedder.Dimension)
	case "ollama":
		ocfg := embedding.OllamaConfig{}
		if cfg.Embedder.Ollama != nil {
			ocfg = embedding.OllamaConfig{
				BaseURL: cfg.Embedder.Ollama.BaseURL,
				Model:   cfg.Embedder.Ollama.Model,
				Timeout: time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
			}
		}
		emb = embedding.NewOllamaClient(ocfg)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "sqlite", "":
		dir := "./stocksense_db"
		if cfg.VectorStore.SQLite != nil {
			dir = cfg.VectorStore.SQLite.Dir
		}
		s, err := sqlite.NewStorage(dir, cfg.VectorStore.Collection)
		if err != nil {
			log.Fatalf("sqlite store init failed: %v", err)
		}
		st = s
	case "memory":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	ix := index.New(emb, st)
	if reset {
		if err := ix.Clear(); err != nil {
			log.Fatalf("failed to clear collection: %v", err)
		}
		log.Printf("cleared collection %s", cfg.VectorStore.Collection)
	}

	builder := record.NewBuilder(cfg.Dataset.Ticker, cfg.Dataset.Company)
	p := pipeline.New(builder, ix, cfg.Ingest.BatchSize, cfg.Retrieve.TopK)
	p.Progress = func(processed, total int) {
		log.Printf("ingested %d/%d records", processed, total)
	}

	report, err := p.Ingest(rows)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	if report.Skipped {
		log.Printf("using existing embeddings, no re-ingestion needed (%d records)", report.Count)
	} else {
		log.Printf("ingestion complete: %d records in %d batches", report.Count, report.Batches)
	}

	gen := generate.NewChatGenerator(generate.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
	})
	assistant := generate.NewAnswerer(p, gen)

	if question != "" {
		answer, err := assistant.Answer(question)
		if err != nil {
			log.Fatalf("answer failed: %v", err)
		}
		fmt.Println(answer)
		return
	}

	m := tui.New(assistant)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
