package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding/tfidf"
	"docchat/internal/engine"
	"docchat/internal/index"
	"docchat/internal/llm/openrouter"
	"docchat/internal/loader"
	"docchat/internal/logging"
	"docchat/internal/retriever"
	"docchat/internal/session"
	"docchat/internal/summarizer"
	"docchat/internal/tui"
)

// chatAdapter pins the TUI to a single session.
type chatAdapter struct {
	engine    *engine.Engine
	sessionID string
}

func (a *chatAdapter) Ask(query string) (domain.Answer, error) {
	return a.engine.Answer(context.Background(), a.sessionID, query)
}

func (a *chatAdapter) Reset() { a.engine.Clear(a.sessionID) }

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()
	inputs := flag.Args()

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

	ch := chunker.New(cfg.Chunker.Size, *cfg.Chunker.Overlap)
	newEmbedder := func() domain.Embedder { return tfidf.NewEmbedder() }

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

	sessionID := uuid.NewString()
	if len(inputs) > 0 {
		if err := stageUploads(store.UploadDir(sessionID), inputs); err != nil {
			logger.Fatal("stage uploads", zap.Error(err))
		}
		if _, err := eng.ReindexSession(context.Background(), sessionID); err != nil {
			logger.Fatal("index uploads", zap.Error(err))
		}
	}

	m := tui.New(&chatAdapter{engine: eng, sessionID: sessionID})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func stageUploads(dir string, paths []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, p := range paths {
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		dst, err := os.Create(filepath.Join(dir, filepath.Base(p)))
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
