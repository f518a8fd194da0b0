package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mikey/mailguard/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.RecordStore
type MemoryStore struct {
	records map[string]*core.AnalysisRecord
	nextID  int64
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory record store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*core.AnalysisRecord),
		logger:  logger,
	}
}

// FindByMessageID returns a copy of the stored record
func (s *MemoryStore) FindByMessageID(_ context.Context, messageID string) (*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[messageID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return rec.Clone(), nil
}

// List returns copies of the stored records, newest first
func (s *MemoryStore) List(_ context.Context, opts core.ListOptions) ([]*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.AnalysisRecord, 0, len(s.records))
	for _, rec := range s.records {
		if !opts.Since.IsZero() && rec.CreatedAt.Before(opts.Since) {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// WithinTx stages writes and applies them atomically when fn succeeds
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx core.RecordTx) error) error {
	tx := &memoryTx{store: s, staged: make(map[string]*core.AnalysisRecord), deleted: make(map[string]bool)}
	if err := fn(tx); err != nil {
		s.logger.Debug("Rolling back memory transaction", zap.Error(err))
		return err
	}
	return tx.commit()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	store   *MemoryStore
	staged  map[string]*core.AnalysisRecord
	created []string
	deleted map[string]bool
}

// exists reports whether the message id is visible to this transaction.
func (tx *memoryTx) exists(messageID string) bool {
	if _, ok := tx.staged[messageID]; ok {
		return true
	}
	if tx.deleted[messageID] {
		return false
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	_, ok := tx.store.records[messageID]
	return ok
}

func (tx *memoryTx) Create(_ context.Context, rec *core.AnalysisRecord) error {
	if tx.exists(rec.MessageID) {
		return core.ErrDuplicateMessageID
	}
	tx.store.mu.Lock()
	tx.store.nextID++
	rec.ID = tx.store.nextID
	tx.store.mu.Unlock()

	tx.staged[rec.MessageID] = rec.Clone()
	tx.created = append(tx.created, rec.MessageID)
	return nil
}

func (tx *memoryTx) Update(_ context.Context, rec *core.AnalysisRecord) error {
	if !tx.exists(rec.MessageID) {
		return core.ErrNotFound
	}
	staged, ok := tx.staged[rec.MessageID]
	if !ok {
		tx.store.mu.RLock()
		staged = tx.store.records[rec.MessageID].Clone()
		tx.store.mu.RUnlock()
	}
	id, createdAt := staged.ID, staged.CreatedAt
	staged = rec.Clone()
	staged.ID, staged.CreatedAt = id, createdAt
	tx.staged[rec.MessageID] = staged
	return nil
}

func (tx *memoryTx) Delete(_ context.Context, messageID string) error {
	if !tx.exists(messageID) {
		return core.ErrNotFound
	}
	delete(tx.staged, messageID)
	tx.deleted[messageID] = true
	return nil
}

func (tx *memoryTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	isNew := make(map[string]bool, len(tx.created))
	for _, id := range tx.created {
		isNew[id] = true
	}
	// A concurrent transaction may have created the same message id since Create ran.
	for id := range tx.staged {
		if _, taken := s.records[id]; taken && isNew[id] && !tx.deleted[id] {
			return core.ErrDuplicateMessageID
		}
	}

	for id := range tx.deleted {
		delete(s.records, id)
	}
	for id, rec := range tx.staged {
		s.records[id] = rec
	}
	return nil
}
