package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/mailguard/internal/adapters/cli"
	"github.com/mikey/mailguard/internal/adapters/httpapi"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/metrics"
	"github.com/mikey/mailguard/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateRecordStore(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStoreFactory(testConfig(t, nil), zap.NewNop()).CreateRecordStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStoreFactory(testConfig(t, map[string]any{
		"store.type":        "sqlite",
		"store.sqlite_path": filepath.Join(dir, "db", "mailguard.db"),
	}), zap.NewNop()).CreateRecordStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStoreFactory(testConfig(t, map[string]any{"store.type": "redis"}), zap.NewNop()).CreateRecordStore()
	assert.ErrorContains(t, err, "unsupported store type")
}

func TestCreateAttachmentStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "att")

	s, err := NewStoreFactory(testConfig(t, map[string]any{"attachments.dir": dir}), zap.NewNop()).CreateAttachmentStore()
	require.NoError(t, err)
	require.NotNil(t, s)
	_, err = os.Stat(dir)
	assert.NoError(t, err)

	s, err = NewStoreFactory(testConfig(t, map[string]any{"attachments.enabled": false}), zap.NewNop()).CreateAttachmentStore()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCreateEngineAndMatcher(t *testing.T) {
	dir := t.TempDir()
	malicious := filepath.Join(dir, "malicious.txt")
	require.NoError(t, os.WriteFile(malicious, []byte("# bad\nevil-domain.test\n"), 0o644))

	f := NewScoringFactory(testConfig(t, map[string]any{
		"scoring.model_path":       filepath.Join(dir, "missing.json"),
		"blocklist.malicious_path": malicious,
		"blocklist.benign_path":    filepath.Join(dir, "absent.txt"),
		"blocklist.benign_domains": []string{"example.org"},
	}), zap.NewNop())

	engine := f.CreateEngine()
	assert.Equal(t, scoring.StateUnavailable, engine.State())

	matcher := f.CreateMatcher()
	m, b := matcher.Snapshot().Sizes()
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, b)
	assert.Equal(t, core.BlocklistMalicious, matcher.Assess([]string{"evil-domain.test"}).Status)
}

func TestCreateFrontend(t *testing.T) {
	build := func(frontend string) (any, error) {
		cfg := testConfig(t, map[string]any{"server.frontend": frontend, "server.mode": "test"})
		sf := NewScoringFactory(cfg, zap.NewNop())
		records, err := NewStoreFactory(cfg, zap.NewNop()).CreateRecordStore()
		require.NoError(t, err)
		engine := sf.CreateEngine()
		matcher := sf.CreateMatcher()
		svc := core.NewAnalysisService(records, matcher, engine, zap.NewNop())
		return NewFrontendFactory(cfg, zap.NewNop(), svc, records, engine, matcher, metrics.NewRecorder()).CreateFrontend()
	}

	fe, err := build("http")
	require.NoError(t, err)
	assert.IsType(t, &httpapi.Server{}, fe)

	fe, err = build("cli")
	require.NoError(t, err)
	assert.IsType(t, &cli.Frontend{}, fe)

	_, err = build("milter")
	assert.ErrorContains(t, err, "unsupported frontend")
}
