package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/mailguard/internal/core"
	"go.uber.org/zap"
)

const defaultFilename = "attachment"

// FSStore saves attachments under a directory with collision-free names
type FSStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFSStore creates a new filesystem attachment store, creating dir if needed
func NewFSStore(dir string, logger *zap.Logger) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &FSStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Save writes the attachment and reports where it went. Failures are returned in the metadata.
func (s *FSStore) Save(_ context.Context, att core.Attachment) core.AttachmentMeta {
	meta := core.AttachmentMeta{Filename: att.Filename}
	path := filepath.Join(s.dir, s.storedName(att.Filename))

	if err := os.WriteFile(path, att.Content, 0o644); err != nil {
		s.logger.Warn("Failed to write attachment", zap.String("path", path), zap.Error(err))
		meta.Error = err.Error()
		return meta
	}

	s.logger.Debug("Saved attachment", zap.String("path", path), zap.Int("size", len(att.Content)))
	meta.Path = path
	return meta
}

// storedName returns <timestamp>_<short uuid>_<basename>
func (s *FSStore) storedName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		base = defaultFilename
	}
	return fmt.Sprintf("%s_%s_%s", s.now().UTC().Format("20060102150405"), uuid.NewString()[:8], base)
}
