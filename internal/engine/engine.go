// Package engine answers user questions over the indexed documents. It wires
// the retriever, the session store and the completion client together and
// owns the prompt shapes, the intent routing and the citation selection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/index"
	"docchat/internal/loader"
	"docchat/internal/retriever"
	"docchat/internal/session"
)

// ErrEmptyQuery rejects blank questions before any model call.
var ErrEmptyQuery = errors.New("question must not be empty")

// Config tunes prompt assembly and citation selection.
type Config struct {
	Persona             string
	MaxContextPassages  int
	MaxContextChars     int
	HistoryWindowTurns  int
	SummaryMaxSentences int
	Citations           CitationConfig
}

// Engine orchestrates a single question/answer exchange.
type Engine struct {
	retriever  *retriever.Retriever
	sessions   *session.Store
	completer  domain.Completer
	classifier domain.Classifier
	chunker    domain.Chunker
	summarizer domain.Summarizer
	// newEmbedder produces a fresh embedder for each session rebuild so the
	// vocabulary is fitted to that session's uploads alone.
	newEmbedder func() domain.Embedder
	cfg         Config
	log         *zap.Logger
}

// New assembles an engine. summarizer may be nil; upload summaries are then
// skipped.
func New(
	r *retriever.Retriever,
	sessions *session.Store,
	completer domain.Completer,
	classifier domain.Classifier,
	chunker domain.Chunker,
	summarizer domain.Summarizer,
	newEmbedder func() domain.Embedder,
	cfg Config,
	log *zap.Logger,
) *Engine {
	return &Engine{
		retriever:   r,
		sessions:    sessions,
		completer:   completer,
		classifier:  classifier,
		chunker:     chunker,
		summarizer:  summarizer,
		newEmbedder: newEmbedder,
		cfg:         cfg,
		log:         log,
	}
}

// Answer handles one user question for the given session. Meta questions are
// answered from session history without a model call and are not recorded as
// turns; everything else goes through the completion client, grounded in
// retrieved passages when any are relevant.
func (e *Engine) Answer(ctx context.Context, sessionID, query string) (domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, ErrEmptyQuery
	}
	sess := e.sessions.GetOrCreate(sessionID)

	switch e.classifier.Classify(query) {
	case domain.IntentMeta:
		if prev, ok := sess.LastUserQuestion(); ok {
			return domain.Answer{Text: fmt.Sprintf("The previous question you asked was: %q", prev)}, nil
		}
		return domain.Answer{Text: "No previous question found."}, nil
	case domain.IntentSmalltalk:
		return e.answerGeneral(ctx, sess, query)
	}

	cands := e.retriever.Retrieve(ctx, sessionID, query)
	if len(cands) == 0 {
		return e.answerGeneral(ctx, sess, query)
	}

	system := groundedSystem(e.cfg.Persona)
	content := groundedUserMessage(
		sess.History(), e.cfg.HistoryWindowTurns, query,
		buildContext(cands, e.cfg.MaxContextPassages, e.cfg.MaxContextChars),
	)
	raw, err := e.completer.Complete(ctx, system, []domain.Message{{Role: domain.RoleUser, Content: content}})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("complete: %w", err)
	}
	text := cleanAnswer(raw)
	sess.AppendExchange(query, text)
	return domain.Answer{
		Text:      text,
		Citations: selectCitations(text, cands, e.cfg.Citations),
	}, nil
}

func (e *Engine) answerGeneral(ctx context.Context, sess *session.Session, query string) (domain.Answer, error) {
	system := generalSystem(e.cfg.Persona)
	content := generalUserMessage(sess.History(), e.cfg.HistoryWindowTurns, query)
	raw, err := e.completer.Complete(ctx, system, []domain.Message{{Role: domain.RoleUser, Content: content}})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("complete: %w", err)
	}
	text := cleanAnswer(raw)
	sess.AppendExchange(query, text)
	return domain.Answer{Text: text}, nil
}

// UploadResult reports what a session reindex produced.
type UploadResult struct {
	Passages int
	Summary  string
}

// ReindexSession rebuilds the session index from the files currently in the
// session's upload area. The previous index stays in place until the new one
// is fully built, so concurrent questions never see a half-built index.
func (e *Engine) ReindexSession(ctx context.Context, sessionID string) (UploadResult, error) {
	dir := e.sessions.UploadDir(sessionID)
	docs, err := loader.NewDirSource(dir, e.log).Load(ctx)
	if err != nil {
		return UploadResult{}, fmt.Errorf("load uploads: %w", err)
	}

	var passages []domain.Passage
	var full strings.Builder
	for _, doc := range docs {
		passages = append(passages, e.chunker.Chunk(doc)...)
		full.WriteString(doc.Text)
		full.WriteString("\n")
	}

	sess := e.sessions.GetOrCreate(sessionID)
	if len(passages) == 0 {
		sess.SetIndex(nil)
		return UploadResult{}, nil
	}

	ix := index.New(e.newEmbedder(), e.log)
	if err := ix.Build(ctx, passages, ""); err != nil {
		return UploadResult{}, fmt.Errorf("build session index: %w", err)
	}
	sess.SetIndex(ix)

	res := UploadResult{Passages: len(passages)}
	if e.summarizer != nil {
		summary, err := e.summarizer.Summarize(full.String(), e.cfg.SummaryMaxSentences)
		if err != nil {
			e.log.Warn("summarize uploads", zap.String("session", sessionID), zap.Error(err))
		} else {
			res.Summary = summary
		}
	}
	return res, nil
}

// Clear resets the session's history, index and uploaded files.
func (e *Engine) Clear(sessionID string) {
	e.sessions.Clear(sessionID)
}
