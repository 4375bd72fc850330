package chunker

import (
	"strings"

	"docchat/internal/domain"
)

// TextChunker splits extracted text into overlapping character windows.
// Cut points prefer paragraph breaks, then sentence ends, then word breaks,
// before falling back to a hard cut. It is a pure function of its input and
// configuration.
type TextChunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given target size and overlap in characters.
func New(size, overlap int) *TextChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	return &TextChunker{size: size, overlap: overlap}
}

// Split returns the ordered chunks of text. Text no longer than the target
// size yields exactly one chunk; whitespace-only text yields none.
func (c *TextChunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{strings.TrimSpace(text)}
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			tail := strings.TrimSpace(string(runes[start:]))
			if tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}
		cut := c.findCut(runes, start, end)
		piece := strings.TrimSpace(string(runes[start:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		next := cut - c.overlap
		// An overlap >= the produced window must not stall the walk.
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// Chunk splits a document and stamps each passage with its provenance.
func (c *TextChunker) Chunk(doc domain.Document) []domain.Passage {
	parts := c.Split(doc.Text)
	passages := make([]domain.Passage, 0, len(parts))
	for i, p := range parts {
		meta := doc.Meta
		meta.ChunkIndex = i
		passages = append(passages, domain.Passage{Text: p, Meta: meta})
	}
	return passages
}

// findCut picks the cut position in (start, end]. A candidate break is only
// taken when it keeps at least half the window, so a stray early newline does
// not produce a sliver chunk.
func (c *TextChunker) findCut(runes []rune, start, end int) int {
	min := start + c.size/2
	// Paragraph break: cut after the blank line.
	for i := end - 2; i > min-2 && i > start; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	// Sentence end: punctuation followed by whitespace, cut after the mark.
	for i := end - 2; i > min-2 && i > start; i-- {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 1
		}
	}
	// Word break.
	for i := end - 1; i > min-1 && i > start; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }
