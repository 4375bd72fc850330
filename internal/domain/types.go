package domain

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata carries the provenance of a passage.
type Metadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
	IsOCR      bool   `json:"is_ocr,omitempty"`
}

// Document is a unit of extracted text before chunking.
type Document struct {
	Text string
	Meta Metadata
}

// Passage is a chunk of source text plus provenance, the unit of retrieval.
// Immutable once created; owned by the index that stores it.
type Passage struct {
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}

// Message is a single turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Candidate is a transient retrieval result used only during ranking.
// Score follows a distance convention: lower is more relevant.
type Candidate struct {
	Passage    Passage
	Score      float64
	OriginRank int
}

// Citation points from an answer back to a source passage. IDs are 1-based
// and stable within one response; citations are derived per answer, never
// persisted.
type Citation struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
}

// Answer is the structured result of one orchestrator invocation.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Intent is the coarse classification of an incoming query.
type Intent int

const (
	// IntentGrounded queries are answered from retrieved passages.
	IntentGrounded Intent = iota
	// IntentMeta queries ask about the conversation itself.
	IntentMeta
	// IntentSmalltalk queries are answered without retrieval.
	IntentSmalltalk
)
