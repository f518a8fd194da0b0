package core

import (
	"context"
	"time"
)

// Scorer scores analysis text
type Scorer interface {
	// Score never fails; degraded paths are reported through ScoreResult.Kind
	Score(text string) ScoreResult
}

// Blocklist assesses resolved root domains
type Blocklist interface {
	Assess(hosts []string) BlocklistAssessment
}

// RecordStore persists analysis records keyed by message id
type RecordStore interface {
	// FindByMessageID returns ErrNotFound when no record exists
	FindByMessageID(ctx context.Context, messageID string) (*AnalysisRecord, error)

	// WithinTx runs fn in one transaction, committing only if fn returns nil
	WithinTx(ctx context.Context, fn func(tx RecordTx) error) error

	// List returns records newest first
	List(ctx context.Context, opts ListOptions) ([]*AnalysisRecord, error)

	Close() error
}

// RecordTx is the transactional view of a RecordStore
type RecordTx interface {
	// Create fails with ErrDuplicateMessageID if the message id already exists
	Create(ctx context.Context, rec *AnalysisRecord) error

	// Update overwrites the analysis outcome of an existing record
	Update(ctx context.Context, rec *AnalysisRecord) error

	// Delete removes the record for a message id, returning ErrNotFound if absent
	Delete(ctx context.Context, messageID string) error
}

// AttachmentStore saves binary attachments
type AttachmentStore interface {
	Save(ctx context.Context, att Attachment) AttachmentMeta
}

// Observer receives a notification for each completed analysis
type Observer interface {
	ObserveAnalysis(rec *AnalysisRecord, elapsed time.Duration)
}
