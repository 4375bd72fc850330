package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"docchat/internal/domain"
)

const indexFileName = "index.gob"

// Index stores passages with their embedding vectors and answers similarity
// searches over them. Scores follow a cosine-distance convention: lower is
// more relevant. Search takes a read lock and is safe for concurrent callers;
// Build, Rebuild and LoadOrBuild take the write lock.
type Index struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	log      *zap.Logger

	dimension int
	passages  []domain.Passage
	vectors   [][]float64
}

// New creates an empty index over the given embedder.
func New(embedder domain.Embedder, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{embedder: embedder, log: log}
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.passages)
}

// Build embeds all passages, replaces the index content and, when location is
// non-empty, persists the new state there, overwriting any prior state.
// Session indexes pass an empty location; they are rebuilt from files and
// never persisted.
func (ix *Index) Build(ctx context.Context, passages []domain.Passage, location string) error {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	if len(passages) > 0 {
		if err := ix.embedder.Prepare(texts); err != nil {
			return fmt.Errorf("prepare embedder: %w", err)
		}
	}
	vectors := make([][]float64, len(passages))
	for i, p := range passages {
		vec, err := ix.embedder.Embed(ctx, p.Text)
		if err != nil {
			return fmt.Errorf("embed passage %d: %w", i, err)
		}
		vectors[i] = normalize(vec)
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	ix.mu.Lock()
	ix.passages = append([]domain.Passage(nil), passages...)
	ix.vectors = vectors
	ix.dimension = dim
	ix.mu.Unlock()

	ix.log.Info("index built",
		zap.Int("passages", len(passages)),
		zap.Int("dimension", dim),
		zap.String("embedder", ix.embedder.Name()))

	// An empty build stays in memory only: there is no fitted embedder state
	// to persist, and startup with no corpus must still yield a searchable
	// (empty) index.
	if location == "" || len(passages) == 0 {
		return nil
	}
	return ix.save(location)
}

// Rebuild re-derives the index from the given passages regardless of any
// persisted state. This is the explicit path for picking up a changed corpus;
// LoadOrBuild alone never refreshes an existing index file.
func (ix *Index) Rebuild(ctx context.Context, passages []domain.Passage, location string) error {
	return ix.Build(ctx, passages, location)
}

// LoadOrBuild loads persisted state from location if present, ignoring
// passages entirely; otherwise it builds from passages and persists.
func (ix *Index) LoadOrBuild(ctx context.Context, passages []domain.Passage, location string) error {
	path := filepath.Join(location, indexFileName)
	if _, err := os.Stat(path); err == nil {
		if err := ix.load(path); err != nil {
			return fmt.Errorf("load index from %s: %w", path, err)
		}
		ix.log.Info("index loaded", zap.String("path", path), zap.Int("passages", ix.Len()))
		return nil
	}
	return ix.Build(ctx, passages, location)
}

// Search embeds the query and returns up to k candidates ordered best first,
// with OriginRank set to each candidate's position. An empty index yields an
// empty result, never an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qvec = normalize(qvec)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		// Cosine distance over normalized vectors: lower is better.
		scores[i] = scored{idx: i, score: 1 - dot(v, qvec)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score < scores[b].score })
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]domain.Candidate, 0, k)
	for rank := 0; rank < k; rank++ {
		s := scores[rank]
		out = append(out, domain.Candidate{
			Passage:    ix.passages[s.idx],
			Score:      s.score,
			OriginRank: rank,
		})
	}
	return out, nil
}

// fileState is the persisted index layout. EmbedderState carries the fitted
// state of corpus-dependent embedders so a loaded index can embed queries.
type fileState struct {
	EmbedderName  string
	EmbedderState []byte
	Dimension     int
	Passages      []domain.Passage
	Vectors       [][]float64
}

func (ix *Index) save(location string) error {
	if err := os.MkdirAll(location, 0o755); err != nil {
		return err
	}
	ix.mu.RLock()
	st := fileState{
		EmbedderName: ix.embedder.Name(),
		Dimension:    ix.dimension,
		Passages:     ix.passages,
		Vectors:      ix.vectors,
	}
	ix.mu.RUnlock()
	if se, ok := ix.embedder.(domain.StatefulEmbedder); ok {
		blob, err := se.EncodeState()
		if err != nil {
			return fmt.Errorf("encode embedder state: %w", err)
		}
		st.EmbedderState = blob
	}

	path := filepath.Join(location, indexFileName)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(st); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (ix *Index) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var st fileState
	if err := gob.NewDecoder(f).Decode(&st); err != nil {
		return err
	}
	if st.EmbedderName != ix.embedder.Name() {
		return fmt.Errorf("index was built with embedder %q, have %q", st.EmbedderName, ix.embedder.Name())
	}
	if len(st.EmbedderState) > 0 {
		se, ok := ix.embedder.(domain.StatefulEmbedder)
		if !ok {
			return errors.New("index carries embedder state but embedder cannot restore it")
		}
		if err := se.DecodeState(st.EmbedderState); err != nil {
			return fmt.Errorf("decode embedder state: %w", err)
		}
	}

	ix.mu.Lock()
	ix.dimension = st.Dimension
	ix.passages = st.Passages
	ix.vectors = st.Vectors
	ix.mu.Unlock()
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
