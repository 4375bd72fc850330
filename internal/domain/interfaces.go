package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// StatefulEmbedder is implemented by embedders whose query-time behavior
// depends on corpus-fitted state. The index persists this state alongside its
// vectors so a loaded index can embed queries without re-reading the corpus.
type StatefulEmbedder interface {
	Embedder
	EncodeState() ([]byte, error)
	DecodeState(data []byte) error
}

// Chunker splits extracted document text into overlapping passages.
type Chunker interface {
	Chunk(doc Document) []Passage
}

// Source yields a sequence of extracted documents from some storage area.
type Source interface {
	Load(ctx context.Context) ([]Document, error)
}

// Searcher is the read side of an embedding index. Search is safe for
// concurrent callers and returns candidates ordered best first, at most k of
// them. An empty index yields an empty result, not an error.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
}

// Completer is the completion-service contract: one synchronous call per
// invocation, transport and auth failures surface as errors.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// Classifier decides how an incoming query should be answered.
type Classifier interface {
	Classify(query string) Intent
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
