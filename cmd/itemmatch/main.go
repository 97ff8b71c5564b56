package main

import (
	"flag"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"itemmatch/internal/cache"
	"itemmatch/internal/catalog"
	"itemmatch/internal/config"
	"itemmatch/internal/domain"
	"itemmatch/internal/embedding/openai"
	"itemmatch/internal/embedding/tfidf"
	"itemmatch/internal/ledger"
	"itemmatch/internal/service"
	"itemmatch/internal/storage"
	"itemmatch/internal/tui"
	"itemmatch/internal/vectorindex"
	"itemmatch/internal/vectorindex/memory"
	"itemmatch/internal/vectorindex/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, catalogPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/itemmatch/config.yaml if not provided)")
	flag.StringVar(&catalogPath, "catalog", "", "Path to the item catalog (.xlsx or .csv), overrides the config")
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
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	items, err := catalog.Load(cfg.Catalog.Path, cfg.Catalog.Sheet)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	log.Infof("loaded %d items from %s", len(items), cfg.Catalog.Path)

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var idx vectorindex.Index
	switch cfg.VectorIndex.Type {
	case "memory", "":
		idx = memory.NewIndex()
	case "qdrant":
		if cfg.VectorIndex.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		idx = qdrant.NewIndex(qdrant.Config{
			URL:        cfg.VectorIndex.Qdrant.URL,
			APIKey:     cfg.VectorIndex.Qdrant.APIKey,
			Collection: cfg.VectorIndex.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorIndex.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector index: %s", cfg.VectorIndex.Type)
	}

	embCache := cache.New(storage.NewJSONFile[cache.Entry](cfg.CachePath))
	led := ledger.New(storage.NewJSONFile[[]domain.FeedbackRecord](cfg.LedgerPath))

	svc := service.NewMatcher(emb, idx, embCache, led)
	if err := svc.IngestCatalog(items, catalog.FreshnessToken(cfg.Catalog.Path)); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	m := tui.New(svc, cfg.Search.TopK, cfg.Search.MinScore)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
