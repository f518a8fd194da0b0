package attachments

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/mikey/mailguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var storedNameRe = regexp.MustCompile(`^20250301120000_[0-9a-f]{8}_(.+)$`)

func newStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(filepath.Join(t.TempDir(), "attachments"), zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSaveWritesFile(t *testing.T) {
	s := newStore(t)

	meta := s.Save(context.Background(), core.Attachment{Filename: "invoice.pdf", Content: []byte("%PDF")})
	require.Empty(t, meta.Error)
	assert.Equal(t, "invoice.pdf", meta.Filename)

	m := storedNameRe.FindStringSubmatch(filepath.Base(meta.Path))
	require.NotNil(t, m, meta.Path)
	assert.Equal(t, "invoice.pdf", m[1])

	data, err := os.ReadFile(meta.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestSaveStripsDirectories(t *testing.T) {
	s := newStore(t)

	tests := []struct {
		filename string
		want     string
	}{
		{"../../etc/passwd", "passwd"},
		{`C:\Users\bob\scan.png`, "scan.png"},
		{"", defaultFilename},
		{"..", defaultFilename},
	}
	for _, tt := range tests {
		meta := s.Save(context.Background(), core.Attachment{Filename: tt.filename, Content: []byte("x")})
		require.Empty(t, meta.Error)
		assert.Equal(t, s.dir, filepath.Dir(meta.Path))
		m := storedNameRe.FindStringSubmatch(filepath.Base(meta.Path))
		require.NotNil(t, m)
		assert.Equal(t, tt.want, m[1])
	}
}

func TestSaveNamesDoNotCollide(t *testing.T) {
	s := newStore(t)
	a := s.Save(context.Background(), core.Attachment{Filename: "a.png"})
	b := s.Save(context.Background(), core.Attachment{Filename: "a.png"})
	assert.NotEqual(t, a.Path, b.Path)
}

func TestSaveFailureIsRecorded(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.RemoveAll(s.dir))

	meta := s.Save(context.Background(), core.Attachment{Filename: "a.png", Content: []byte("x")})
	assert.Empty(t, meta.Path)
	assert.NotEmpty(t, meta.Error)
}
