package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"sitesearch/internal/chunker"
	"sitesearch/internal/config"
	"sitesearch/internal/corpus"
	"sitesearch/internal/domain"
	"sitesearch/internal/embedding"
	"sitesearch/internal/embedding/hash"
	"sitesearch/internal/embedding/openai"
	"sitesearch/internal/ingest"
	"sitesearch/internal/retrieval"
	"sitesearch/internal/tui"
	"sitesearch/internal/vectorstore"
	"sitesearch/internal/vectorstore/memory"
	"sitesearch/internal/vectorstore/sqlite"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/sitesearch/config.yaml if not provided)")
		source  = flag.String("corpus", "", "Corpus path or URL (overrides config)")
		reindex = flag.Bool("reindex", false, "Wipe the index and ingest from scratch")
		query   = flag.String("query", "", "Run one search and print the sources instead of starting the TUI")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if *source != "" {
		cfg.Corpus.Source = *source
	}

	// Assemble components
	var backend embedding.Backend
	switch cfg.Embedder.Type {
	case "hash", "":
		backend = hash.New(cfg.Embedder.Dimensions)
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Fatal("openai embedder init failed", "err", err)
		}
		backend = client
	default:
		logger.Fatal("unknown embedder", "type", cfg.Embedder.Type)
	}

	var store vectorstore.Store
	switch cfg.Store.Type {
	case "sqlite", "":
		dataDir := ""
		if cfg.Store.SQLite != nil {
			dataDir = cfg.Store.SQLite.Path
		}
		store, err = sqlite.New(dataDir)
		if err != nil {
			logger.Fatal("opening sqlite store", "err", err)
		}
	case "memory":
		store = memory.New()
	default:
		logger.Fatal("unknown store", "type", cfg.Store.Type)
	}
	defer store.Close()

	client := embedding.NewClient(backend,
		embedding.WithTimeout(time.Duration(cfg.EmbedTimeoutSecs)*time.Second))
	defer client.Close()

	ck := chunker.New(cfg.Chunker.MaxTokens, cfg.Chunker.OverlapTokens)
	pipeline := ingest.New(cfg.Corpus.Source, store, client,
		ck, logger.With("component", "ingest"))

	ctx := context.Background()
	var res ingest.Result
	if *reindex {
		res, err = pipeline.Reindex(ctx)
	} else {
		res, err = pipeline.IndexIfEmpty(ctx)
	}
	if err != nil {
		logger.Fatal("ingest failed", "err", err)
	}
	logger.Info("index ready", "status", res.Status, "chunks", res.Chunks)

	engine := retrieval.NewEngine(store, client, logger.With("component", "retrieval"))

	if *query != "" {
		opts := retrieval.Options{TopK: cfg.Retrieval.TopK, MinScore: cfg.Retrieval.MinScore}
		printSources(*query, engine.Retrieve(ctx, *query, opts))
		return
	}

	m := tui.New(engine, brandName(ctx, cfg.Corpus.Source))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal("tui failed", "err", err)
	}
}

// printSources writes a one-shot ranked source list to stdout.
func printSources(query string, sources []domain.Source) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	bold.Printf("Results for %q\n\n", query)
	if len(sources) == 0 {
		fmt.Println("No matching sources.")
		return
	}
	for i, s := range sources {
		bold.Printf("%d. %s ", i+1, s.Title)
		green.Printf("(%.3f)\n", s.Score)
		cyan.Printf("   %s\n", s.URL)
		fmt.Printf("   %s\n\n", s.Snippet)
	}
}

// brandName pulls the site brand out of the corpus for the TUI header,
// falling back to a generic name when the corpus cannot be read.
func brandName(ctx context.Context, source string) string {
	doc, err := corpus.Load(ctx, source)
	if err != nil || doc.Site.Brand == "" {
		return "Site"
	}
	return doc.Site.Brand
}
