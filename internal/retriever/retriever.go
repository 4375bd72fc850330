package retriever

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"docchat/internal/domain"
)

// SessionIndexes resolves a session's private index, if it has one.
type SessionIndexes interface {
	IndexFor(id string) domain.Searcher
}

// Config holds the merge and re-rank constants.
type Config struct {
	// TopK is the maximum number of passages returned.
	TopK int
	// SearchK is how many candidates each source is asked for.
	SearchK int
	// SessionWeight rescales session scores; below 1 (in a lower-is-better
	// scale) session-uploaded material outranks permanent material of equal
	// raw relevance.
	SessionWeight float64
	// OriginOffset is added to permanent ranks so session material wins
	// exact score ties.
	OriginOffset int
	// BoostNudge is subtracted from a candidate's position when its text
	// contains a query token.
	BoostNudge float64
	// MinTokenLen is the minimum length of non-numeric query tokens.
	MinTokenLen int
}

// Retriever queries the permanent index and, when present, the session index,
// then merges and re-ranks the candidates. Either sub-search failing is
// downgraded to zero candidates from that source; the request itself never
// fails here.
type Retriever struct {
	permanent domain.Searcher
	sessions  SessionIndexes
	cfg       Config
	log       *zap.Logger
}

// New creates a retriever over the permanent index and the session table.
func New(permanent domain.Searcher, sessions SessionIndexes, cfg Config, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{permanent: permanent, sessions: sessions, cfg: cfg, log: log}
}

// Retrieve returns at most TopK candidates for the query, best first.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string) []domain.Candidate {
	var merged []domain.Candidate

	if sess := r.sessions.IndexFor(sessionID); sess != nil {
		cands, err := sess.Search(ctx, query, r.cfg.SearchK)
		if err != nil {
			r.log.Warn("session index search failed",
				zap.String("session_id", sessionID), zap.Error(err))
		} else {
			for i := range cands {
				cands[i].Score *= r.cfg.SessionWeight
				cands[i].OriginRank = i
			}
			merged = append(merged, cands...)
		}
	}

	if r.permanent != nil {
		cands, err := r.permanent.Search(ctx, query, r.cfg.SearchK)
		if err != nil {
			r.log.Warn("permanent index search failed", zap.Error(err))
		} else {
			for i := range cands {
				cands[i].OriginRank = i + r.cfg.OriginOffset
			}
			merged = append(merged, cands...)
		}
	}

	if len(merged) == 0 {
		return nil
	}

	// Lower score first; on exact ties the smaller origin rank (session
	// material) wins.
	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].Score != merged[b].Score {
			return merged[a].Score < merged[b].Score
		}
		return merged[a].OriginRank < merged[b].OriginRank
	})

	merged = r.keywordBoost(query, merged)

	if len(merged) > r.cfg.TopK {
		merged = merged[:r.cfg.TopK]
	}
	return merged
}

// keywordBoost nudges candidates whose text contains a query token slightly
// ahead of their merged position. It is a stable re-sort of positions, not a
// re-score.
func (r *Retriever) keywordBoost(query string, ranked []domain.Candidate) []domain.Candidate {
	tokens := queryTokens(query, r.cfg.MinTokenLen)
	if len(tokens) == 0 {
		return ranked
	}
	keys := make([]float64, len(ranked))
	for pos, c := range ranked {
		key := float64(pos)
		text := strings.ToLower(c.Passage.Text)
		for _, t := range tokens {
			if strings.Contains(text, t) {
				key -= r.cfg.BoostNudge
				break
			}
		}
		keys[pos] = key
	}
	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })
	out := make([]domain.Candidate, len(ranked))
	for i, idx := range order {
		out[i] = ranked[idx]
	}
	return out
}

var tokenRe = regexp.MustCompile(`\d+|\p{L}+`)

func queryTokens(query string, minLen int) []string {
	raw := tokenRe.FindAllString(strings.ToLower(query), -1)
	out := raw[:0]
	for _, t := range raw {
		if len(t) >= minLen || isNumeric(t) {
			out = append(out, t)
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
