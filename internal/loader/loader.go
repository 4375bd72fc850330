package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docchat/internal/domain"
)

// DirSource loads already-extracted text documents from a directory,
// recursively. It handles .txt and .md files; parsing of richer formats
// happens upstream of this package. The same source reads a session's
// upload area on every rebuild.
type DirSource struct {
	dir string
	log *zap.Logger
}

// NewDirSource creates a source over the given directory.
func NewDirSource(dir string, log *zap.Logger) *DirSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSource{dir: dir, log: log}
}

// Load reads every supported file under the directory. A missing directory
// yields no documents rather than an error, so an empty corpus starts clean.
func (s *DirSource) Load(ctx context.Context) ([]domain.Document, error) {
	if _, err := os.Stat(s.dir); err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("document directory does not exist", zap.String("dir", s.dir))
			return nil, nil
		}
		return nil, err
	}
	var docs []domain.Document
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !supported(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		text := string(data)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		docs = append(docs, domain.Document{
			Text: text,
			Meta: domain.Metadata{Source: filepath.Base(path)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("loaded documents", zap.String("dir", s.dir), zap.Int("count", len(docs)))
	return docs, nil
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}
