package session

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

// Store is the process-wide session table. Sessions are created implicitly on
// first reference and dropped either explicitly via Clear or, when a TTL is
// configured, after sitting idle past it. Eviction cleans the session's file
// area the same way Clear does.
type Store struct {
	cache      *gocache.Cache
	uploadsDir string
	log        *zap.Logger
}

// NewStore creates a session store. A ttl of zero disables expiry.
func NewStore(uploadsDir string, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	var c *gocache.Cache
	if ttl <= 0 {
		c = gocache.New(gocache.NoExpiration, 0)
	} else {
		c = gocache.New(ttl, ttl/2)
	}
	s := &Store{cache: c, uploadsDir: uploadsDir, log: log}
	c.OnEvicted(func(id string, _ interface{}) {
		s.removeFileArea(id)
	})
	return s
}

// GetOrCreate returns the session for id, creating it when absent. Access
// refreshes the idle TTL.
func (s *Store) GetOrCreate(id string) *Session {
	for {
		if v, ok := s.cache.Get(id); ok {
			sess := v.(*Session)
			s.cache.SetDefault(id, sess)
			return sess
		}
		sess := newSession(id)
		if err := s.cache.Add(id, sess, gocache.DefaultExpiration); err == nil {
			return sess
		}
		// Lost the creation race; loop to take the winner. Returning our
		// own session here would orphan its history from the table.
	}
}

// IndexFor returns the session's private index as a searcher, or nil when the
// session is absent or has no index. It never creates a session.
func (s *Store) IndexFor(id string) domain.Searcher {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	ix := v.(*Session).Index()
	if ix == nil {
		return nil
	}
	return ix
}

// UploadDir returns the session's private file area path.
func (s *Store) UploadDir(id string) string {
	return filepath.Join(s.uploadsDir, safeID(id))
}

// Clear removes the session's file area, discards its index and erases its
// history, then drops the record. The sub-steps are independent best-effort
// cleanups: a failing one is logged but does not stop the rest, so a session
// id always behaves brand-new afterwards.
func (s *Store) Clear(id string) {
	s.removeFileArea(id)
	if v, ok := s.cache.Get(id); ok {
		v.(*Session).reset()
	}
	s.cache.Delete(id)
	s.log.Info("session cleared", zap.String("session_id", id))
}

func (s *Store) removeFileArea(id string) {
	dir := s.UploadDir(id)
	if err := os.RemoveAll(dir); err != nil {
		s.log.Warn("failed to remove session file area",
			zap.String("session_id", id), zap.String("dir", dir), zap.Error(err))
	}
}

// safeID flattens a client-supplied session id into a directory name that
// cannot escape the uploads root.
func safeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, id)
}
