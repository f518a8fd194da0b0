package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mikey/mailguard/internal/domains"
	"github.com/mikey/mailguard/internal/utils"
	"go.uber.org/zap"
)

const previewSize = 200

// AnalysisService runs the analysis pipeline and guarantees at most one persisted
// analysis per message id.
type AnalysisService struct {
	store       RecordStore
	blocklist   Blocklist
	scorer      Scorer
	attachments AttachmentStore
	observer    Observer
	logger      *zap.Logger
	now         func() time.Time
}

// ServiceOption configures optional collaborators of the AnalysisService
type ServiceOption func(*AnalysisService)

// WithAttachmentStore saves request attachments before analysis
func WithAttachmentStore(store AttachmentStore) ServiceOption {
	return func(s *AnalysisService) { s.attachments = store }
}

// WithObserver reports every completed analysis
func WithObserver(observer Observer) ServiceOption {
	return func(s *AnalysisService) { s.observer = observer }
}

// WithClock overrides the clock used for record timestamps
func WithClock(now func() time.Time) ServiceOption {
	return func(s *AnalysisService) { s.now = now }
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	store RecordStore,
	blocklist Blocklist,
	scorer Scorer,
	logger *zap.Logger,
	opts ...ServiceOption,
) *AnalysisService {
	s := &AnalysisService{
		store:     store,
		blocklist: blocklist,
		scorer:    scorer,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze returns the analysis record for a message, running the pipeline only when no
// record exists yet or when a recompute is forced.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := s.now()

	if !req.ForceRecompute {
		existing, err := s.store.FindByMessageID(ctx, req.MessageID)
		switch {
		case err == nil:
			s.logger.Debug("Returning stored analysis", zap.String("message_id", req.MessageID))
			existing.Cached = true
			s.observe(existing, start)
			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return nil, WrapError("find_record", err)
		}
	}

	rec := s.newRecord(ctx, req)
	analysisText := strings.TrimSpace(req.Subject + " " + rec.BodyWithOCR)
	s.logger.Debug("Analyzing message",
		zap.String("message_id", req.MessageID),
		zap.String("preview", utils.TruncateText(analysisText, previewSize)))

	err := s.store.WithinTx(ctx, func(tx RecordTx) error {
		if req.ForceRecompute {
			if err := tx.Delete(ctx, req.MessageID); err != nil && !errors.Is(err, ErrNotFound) {
				return WrapError("delete_record", err)
			}
		}
		if err := tx.Create(ctx, rec); err != nil {
			return err
		}
		s.runPipeline(rec, analysisText)
		return WrapError("update_record", tx.Update(ctx, rec))
	})

	if errors.Is(err, ErrDuplicateMessageID) {
		s.logger.Info("Message analyzed concurrently, returning stored record",
			zap.String("message_id", req.MessageID))
		existing, ferr := s.store.FindByMessageID(ctx, req.MessageID)
		if ferr != nil {
			return nil, WrapError("find_record", ferr)
		}
		existing.Cached = true
		s.observe(existing, start)
		return existing, nil
	}
	if err != nil {
		return nil, WrapError("analyze", err)
	}

	s.logger.Info("Message analyzed",
		zap.String("message_id", rec.MessageID),
		zap.String("verdict", string(rec.Verdict)),
		zap.Float64p("score", rec.Score),
		zap.String("blocklist_status", string(rec.Blocklist.Status)),
		zap.String("model_kind", string(rec.ModelKind)),
		zap.Strings("reasons", rec.Reasons))
	s.observe(rec, start)
	return rec, nil
}

// newRecord builds the pending record, saving attachments on the way.
func (s *AnalysisService) newRecord(ctx context.Context, req *AnalysisRequest) *AnalysisRecord {
	rec := &AnalysisRecord{
		MessageID:       req.MessageID,
		Sender:          req.Sender,
		Subject:         req.Subject,
		Body:            req.Body,
		BodyWithOCR:     req.BodyWithOCR(),
		AttachmentTexts: append([]string{}, req.AttachmentTexts...),
		AttachmentsMeta: []AttachmentMeta{},
		OCRUsed:         len(req.AttachmentTexts) > 0,
		Blocklist:       BlocklistAssessment{Status: BlocklistUnknown},
		Verdict:         VerdictUnknown,
		Reasons:         []string{},
		CreatedAt:       s.now().UTC(),
	}

	for _, att := range req.Attachments {
		if s.attachments == nil {
			rec.AttachmentsMeta = append(rec.AttachmentsMeta, AttachmentMeta{
				Filename: att.Filename,
				Error:    "attachment storage disabled",
			})
			continue
		}
		meta := s.attachments.Save(ctx, att)
		if meta.Error != "" {
			s.logger.Warn("Failed to save attachment",
				zap.String("message_id", req.MessageID),
				zap.String("filename", att.Filename),
				zap.String("error", meta.Error))
		}
		rec.AttachmentsMeta = append(rec.AttachmentsMeta, meta)
	}
	return rec
}

// runPipeline resolves domains, assesses them and fuses the result into rec.
func (s *AnalysisService) runPipeline(rec *AnalysisRecord, analysisText string) {
	hosts := domains.ExtractHosts(rec.Sender, analysisText)
	assessment := s.blocklist.Assess(hosts)

	verdict := Fuse(assessment, func() ScoreResult {
		return s.scorer.Score(analysisText)
	})

	rec.Blocklist = assessment
	rec.Verdict = verdict.Verdict
	score := verdict.Score
	rec.Score = &score
	rec.Reasons = verdict.Reasons
	if verdict.Model != nil {
		rec.UsedModel = true
		rec.ModelKind = verdict.Model.Kind
		p := verdict.Model.Probability
		rec.ModelScore = &p
	}
}

func (s *AnalysisService) observe(rec *AnalysisRecord, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveAnalysis(rec, s.now().Sub(start))
	}
}
