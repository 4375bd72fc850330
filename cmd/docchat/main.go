package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding/openai"
	"docchat/internal/embedding/tfidf"
	"docchat/internal/engine"
	"docchat/internal/index"
	"docchat/internal/llm/openrouter"
	"docchat/internal/loader"
	"docchat/internal/logging"
	"docchat/internal/retriever"
	"docchat/internal/server"
	"docchat/internal/session"
	"docchat/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/docchat/config.yaml if not provided)")
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

	logger := logging.New(cfg.Logging.FilePath, cfg.Logging.Prod)
	defer func() { _ = logger.Sync() }()

	// Assemble components via interfaces
	newEmbedder := embedderFactory(cfg, logger)

	ch := chunker.New(cfg.Chunker.Size, *cfg.Chunker.Overlap)

	docs, err := loader.NewDirSource(cfg.Paths.DocsDir, logger).Load(context.Background())
	if err != nil {
		logger.Fatal("load corpus", zap.Error(err))
	}
	var passages []domain.Passage
	for _, doc := range docs {
		passages = append(passages, ch.Chunk(doc)...)
	}

	permanent := index.New(newEmbedder(), logger)
	if err := permanent.LoadOrBuild(context.Background(), passages, cfg.Paths.IndexDir); err != nil {
		logger.Fatal("build permanent index", zap.Error(err))
	}
	logger.Info("permanent index ready", zap.Int("passages", permanent.Len()))

	store := session.NewStore(cfg.Paths.UploadsDir, time.Duration(cfg.Sessions.TTLMinutes)*time.Minute, logger)
	rtr := retriever.New(permanent, store, retriever.Config{
		TopK:          cfg.Retrieval.TopK,
		SearchK:       cfg.Retrieval.SearchK,
		SessionWeight: cfg.Retrieval.SessionWeight,
		OriginOffset:  cfg.Retrieval.OriginOffset,
		BoostNudge:    *cfg.Retrieval.BoostNudge,
		MinTokenLen:   cfg.Retrieval.MinTokenLen,
	}, logger)

	completer, err := openrouter.NewClient(openrouter.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKeyEnv:   cfg.Completion.APIKeyEnv,
		Model:       cfg.Completion.Model,
		Temperature: *cfg.Completion.Temperature,
		Timeout:     time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
		Referer:     cfg.Completion.Referer,
		Title:       cfg.Completion.Title,
	})
	if err != nil {
		logger.Fatal("completion client init", zap.Error(err))
	}

	eng := engine.New(
		rtr, store, completer,
		engine.NewKeywordClassifier(cfg.Citations.KeyTerms),
		ch,
		summarizer.NewFrequency(),
		newEmbedder,
		engine.Config{
			Persona:             cfg.Prompt.Persona,
			MaxContextPassages:  cfg.Prompt.MaxContextPassages,
			MaxContextChars:     cfg.Prompt.MaxContextChars,
			HistoryWindowTurns:  cfg.Prompt.HistoryWindowTurns,
			SummaryMaxSentences: cfg.Prompt.SummaryMaxSentences,
			Citations: engine.CitationConfig{
				KeyTerms:   cfg.Citations.KeyTerms,
				MinOverlap: *cfg.Citations.MinOverlap,
			},
		},
		logger,
	)

	srv := server.New(cfg.Server, eng, store, logger)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

// embedderFactory returns a constructor so session reindexes get an embedder
// fitted to their own uploads rather than sharing the corpus vocabulary.
func embedderFactory(cfg *config.AppConfig, logger *zap.Logger) func() domain.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return func() domain.Embedder { return tfidf.NewEmbedder() }
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			logger.Fatal("openai embedder config missing")
		}
		return func() domain.Embedder {
			client, err := openai.NewClient(openai.Config{
				BaseURL:   cfg.Embedder.OpenAI.BaseURL,
				APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
				Model:     cfg.Embedder.OpenAI.Model,
				Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
				CacheTTL:  time.Duration(cfg.Embedder.OpenAI.CacheTTLSecs) * time.Second,
			})
			if err != nil {
				logger.Fatal("openai embedder init", zap.Error(err))
			}
			return client
		}
	default:
		logger.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
		return nil
	}
}
