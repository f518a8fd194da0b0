package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikey/mailguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRecord(messageID string, createdAt time.Time) *core.AnalysisRecord {
	return &core.AnalysisRecord{
		MessageID:       messageID,
		Sender:          "a@evil-domain.test",
		Subject:         "Hello",
		Body:            "see http://evil-domain.test",
		BodyWithOCR:     "see http://evil-domain.test",
		AttachmentTexts: []string{},
		AttachmentsMeta: []core.AttachmentMeta{},
		Blocklist:       core.BlocklistAssessment{Status: core.BlocklistUnknown},
		Verdict:         core.VerdictUnknown,
		Reasons:         []string{},
		CreatedAt:       createdAt,
	}
}

func finish(rec *core.AnalysisRecord) {
	score := 1.0
	rec.Verdict = core.VerdictSpam
	rec.Score = &score
	rec.Reasons = []string{core.ReasonMaliciousHit, core.ReasonMaliciousDomain + "evil-domain.test"}
	rec.Blocklist = core.BlocklistAssessment{
		Status:         core.BlocklistMalicious,
		Hosts:          []string{"evil-domain.test"},
		MaliciousHosts: []string{"evil-domain.test"},
		BenignHosts:    []string{},
	}
	rec.AttachmentsMeta = []core.AttachmentMeta{{Filename: "a.png", Path: "/tmp/a.png"}}
}

// exerciseRecordStore checks the behavior every RecordStore implementation shares.
func exerciseRecordStore(t *testing.T, s core.RecordStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FindByMessageID(ctx, "m1")
	require.ErrorIs(t, err, core.ErrNotFound)

	// create + update commit together
	err = s.WithinTx(ctx, func(tx core.RecordTx) error {
		rec := sampleRecord("m1", base)
		if err := tx.Create(ctx, rec); err != nil {
			return err
		}
		finish(rec)
		return tx.Update(ctx, rec)
	})
	require.NoError(t, err)

	got, err := s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, core.VerdictSpam, got.Verdict)
	require.NotNil(t, got.Score)
	assert.Equal(t, 1.0, *got.Score)
	assert.Nil(t, got.ModelScore)
	assert.Equal(t, []string{"blocklist_malicious_hit", "blocklist_malicious_domain:evil-domain.test"}, got.Reasons)
	assert.Equal(t, core.BlocklistMalicious, got.Blocklist.Status)
	assert.Equal(t, []string{"evil-domain.test"}, got.Blocklist.MaliciousHosts)
	assert.Equal(t, []core.AttachmentMeta{{Filename: "a.png", Path: "/tmp/a.png"}}, got.AttachmentsMeta)
	assert.True(t, base.Equal(got.CreatedAt))

	// duplicate create is reported as such
	err = s.WithinTx(ctx, func(tx core.RecordTx) error {
		return tx.Create(ctx, sampleRecord("m1", base))
	})
	require.ErrorIs(t, err, core.ErrDuplicateMessageID)

	// a failing transaction leaves nothing behind
	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx core.RecordTx) error {
		if err := tx.Create(ctx, sampleRecord("m2", base)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.FindByMessageID(ctx, "m2")
	require.ErrorIs(t, err, core.ErrNotFound)

	// delete + create replaces the record
	later := base.Add(time.Hour)
	err = s.WithinTx(ctx, func(tx core.RecordTx) error {
		if err := tx.Delete(ctx, "m1"); err != nil {
			return err
		}
		return tx.Create(ctx, sampleRecord("m1", later))
	})
	require.NoError(t, err)
	got, err = s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictUnknown, got.Verdict)
	assert.Nil(t, got.Score)
	assert.True(t, later.Equal(got.CreatedAt))

	err = s.WithinTx(ctx, func(tx core.RecordTx) error {
		return tx.Delete(ctx, "absent")
	})
	require.ErrorIs(t, err, core.ErrNotFound)

	// listing
	for i, id := range []string{"m3", "m4"} {
		rec := sampleRecord(id, later.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, s.WithinTx(ctx, func(tx core.RecordTx) error { return tx.Create(ctx, rec) }))
	}
	all, err := s.List(ctx, core.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m4", all[0].MessageID)
	assert.Equal(t, "m1", all[2].MessageID)

	limited, err := s.List(ctx, core.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "m4", limited[0].MessageID)

	since, err := s.List(ctx, core.ListOptions{Since: later.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "m4", since[0].MessageID)
}

func TestMemoryStore(t *testing.T) {
	exerciseRecordStore(t, NewMemoryStore(zap.NewNop()))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "mailguard.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseRecordStore(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())
	rec := sampleRecord("m1", time.Now())
	require.NoError(t, s.WithinTx(ctx, func(tx core.RecordTx) error { return tx.Create(ctx, rec) }))

	rec.Reasons = append(rec.Reasons, "mutated")
	got, err := s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	got.Reasons = append(got.Reasons, "mutated again")

	again, err := s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, again.Reasons)
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx core.RecordTx) error {
				return tx.Create(ctx, sampleRecord("same", time.Now()))
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, core.ErrDuplicateMessageID):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, duplicates)
}

func TestSenderColumnIsUnbounded(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres", "sqlite3"} {
		raw, err := migrationsFS.ReadFile("migrations/" + dialect + "/0001_create_analysis_records.sql")
		require.NoError(t, err, dialect)

		var column string
		for _, line := range strings.Split(string(raw), "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "sender ") {
				column = strings.TrimSpace(line)
			}
		}
		require.NotEmpty(t, column, dialect)
		assert.True(t, strings.HasPrefix(column, "sender TEXT"), "%s: %s", dialect, column)
	}
}

func TestSQLiteStoreLongSender(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mailguard.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	rec := sampleRecord("long-sender", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	rec.Sender = `"` + strings.Repeat("Display Name ", 200) + `" <a@evil-domain.test>`
	require.NoError(t, s.WithinTx(ctx, func(tx core.RecordTx) error {
		return tx.Create(ctx, rec)
	}))

	got, err := s.FindByMessageID(ctx, "long-sender")
	require.NoError(t, err)
	assert.Equal(t, rec.Sender, got.Sender)
}
