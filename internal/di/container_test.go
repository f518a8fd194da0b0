package di

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/mailguard/internal/adapters/cli"
	"github.com/mikey/mailguard/internal/adapters/httpapi"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContainer(t *testing.T) {
	dir := t.TempDir()
	malicious := filepath.Join(dir, "malicious.txt")
	require.NoError(t, os.WriteFile(malicious, []byte("evil-domain.test\n"), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  mode: test
blocklist:
  malicious_path: `+malicious+`
attachments:
  dir: `+filepath.Join(dir, "attachments")+`
logging:
  level: error
`), 0o644))

	container, err := BuildContainer(cfgPath)
	require.NoError(t, err)

	err = container.Invoke(func(frontend ports.Frontend, analyzer ports.Analyzer) {
		assert.IsType(t, &httpapi.Server{}, frontend)

		rec, err := analyzer.Analyze(context.Background(), &core.AnalysisRequest{
			MessageID:   "m1",
			Sender:      "a@evil-domain.test",
			Body:        "see http://evil-domain.test",
			Attachments: []core.Attachment{{Filename: "a.txt", Content: []byte("x")}},
		})
		require.NoError(t, err)
		assert.Equal(t, core.VerdictSpam, rec.Verdict)
		require.Len(t, rec.AttachmentsMeta, 1)
		assert.Empty(t, rec.AttachmentsMeta[0].Error)
		assert.FileExists(t, rec.AttachmentsMeta[0].Path)
	})
	require.NoError(t, err)
}

func TestBuildCLIContainer(t *testing.T) {
	flags := &CLIFlags{
		MaliciousPath: filepath.Join(t.TempDir(), "none.txt"),
		BenignPath:    filepath.Join(t.TempDir(), "none.txt"),
	}

	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	err = container.Invoke(func(frontend ports.Frontend, store core.RecordStore) {
		fe, ok := frontend.(*cli.Frontend)
		require.True(t, ok)
		fe.SetOutput(io.Discard)

		rec, err := fe.Process(context.Background(), &core.AnalysisRequest{
			MessageID: "m1",
			Body:      "click here to verify your account",
		})
		require.NoError(t, err)
		assert.Equal(t, core.ModelKindRuleBased, rec.ModelKind)
		assert.Equal(t, 0.5, *rec.Score)

		_, err = store.FindByMessageID(context.Background(), "m1")
		assert.NoError(t, err)
	})
	require.NoError(t, err)
}
