package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
	"go.uber.org/zap"
)

// AttachmentPayload is a base64 encoded attachment in an analyze request
type AttachmentPayload struct {
	Filename   string `json:"filename" binding:"required"`
	ContentB64 string `json:"content_b64" binding:"required"`
}

// AnalyzeEmailRequest is the body of POST /api/analyze_email
type AnalyzeEmailRequest struct {
	MessageID       string              `json:"message_id" binding:"required"`
	Sender          string              `json:"sender" binding:"required"`
	Subject         string              `json:"subject"`
	Body            string              `json:"body"`
	Attachments     []AttachmentPayload `json:"attachments" binding:"omitempty,dive"`
	AttachmentsText []string            `json:"attachments_text"`
	ClientMeta      map[string]any      `json:"client_meta"`
	ForceRecompute  bool                `json:"force_recompute"`
}

// AnalyzeEmailResponse is the body returned for a completed analysis
type AnalyzeEmailResponse struct {
	MessageID string   `json:"message_id"`
	Verdict   string   `json:"verdict"`
	Score     *float64 `json:"score"`
	Reasons   []string `json:"reasons"`
	Cached    bool     `json:"cached"`
	Timestamp string   `json:"timestamp"`
}

// RecordResponse is the body of GET /api/records/:message_id
type RecordResponse struct {
	ID              int64                    `json:"id"`
	MessageID       string                   `json:"message_id"`
	Sender          string                   `json:"sender"`
	Subject         string                   `json:"subject"`
	Body            string                   `json:"body"`
	BodyWithOCR     string                   `json:"body_with_ocr"`
	AttachmentTexts []string                 `json:"attachments_text"`
	AttachmentsMeta []core.AttachmentMeta    `json:"attachments_meta"`
	OCRUsed         bool                     `json:"ocr_used"`
	Blocklist       core.BlocklistAssessment `json:"blocklist"`
	UsedModel       bool                     `json:"used_model"`
	ModelKind       string                   `json:"model_kind,omitempty"`
	ModelScore      *float64                 `json:"model_score"`
	Verdict         string                   `json:"verdict"`
	Score           *float64                 `json:"score"`
	Reasons         []string                 `json:"reasons"`
	CreatedAt       string                   `json:"created_at"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecordReader looks up stored analysis records
type RecordReader interface {
	FindByMessageID(ctx context.Context, messageID string) (*core.AnalysisRecord, error)
}

// AnalyzeHandler handles email analysis requests.
type AnalyzeHandler struct {
	analyzer ports.Analyzer
	logger   *zap.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(analyzer ports.Analyzer, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		logger:   logger.Named("analyze_handler"),
	}
}

// Handle processes POST /api/analyze_email requests.
func (h *AnalyzeHandler) Handle(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", c.GetString(requestIDKey)))

	var body AnalyzeEmailRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		logger.Warn("invalid attachment", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rec, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("analysis failed", zap.String("message_id", req.MessageID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error during analysis"})
		return
	}

	c.JSON(http.StatusOK, AnalyzeEmailResponse{
		MessageID: rec.MessageID,
		Verdict:   string(rec.Verdict),
		Score:     rec.Score,
		Reasons:   rec.Reasons,
		Cached:    rec.Cached,
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (r *AnalyzeEmailRequest) toRequest() (*core.AnalysisRequest, error) {
	req := &core.AnalysisRequest{
		MessageID:       r.MessageID,
		Sender:          r.Sender,
		Subject:         r.Subject,
		Body:            r.Body,
		AttachmentTexts: r.AttachmentsText,
		ForceRecompute:  r.ForceRecompute,
	}
	for _, a := range r.Attachments {
		content, err := base64.StdEncoding.DecodeString(a.ContentB64)
		if err != nil {
			return nil, errors.New("attachment " + a.Filename + ": invalid base64 content")
		}
		req.Attachments = append(req.Attachments, core.Attachment{Filename: a.Filename, Content: content})
	}
	return req, nil
}

// RecordHandler serves stored analysis records.
type RecordHandler struct {
	records RecordReader
	logger  *zap.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(records RecordReader, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		logger:  logger.Named("record_handler"),
	}
}

// Handle processes GET /api/records/:message_id requests.
func (h *RecordHandler) Handle(c *gin.Context) {
	messageID := c.Param("message_id")
	rec, err := h.records.FindByMessageID(c.Request.Context(), messageID)
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "record not found"})
		return
	}
	if err != nil {
		h.logger.Error("record lookup failed", zap.String("message_id", messageID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := RecordResponse{
		ID:              rec.ID,
		MessageID:       rec.MessageID,
		Sender:          rec.Sender,
		Subject:         rec.Subject,
		Body:            rec.Body,
		BodyWithOCR:     rec.BodyWithOCR,
		AttachmentTexts: rec.AttachmentTexts,
		AttachmentsMeta: rec.AttachmentsMeta,
		OCRUsed:         rec.OCRUsed,
		Blocklist:       rec.Blocklist,
		UsedModel:       rec.UsedModel,
		ModelKind:       string(rec.ModelKind),
		ModelScore:      rec.ModelScore,
		Verdict:         string(rec.Verdict),
		Score:           rec.Score,
		Reasons:         rec.Reasons,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	c.JSON(http.StatusOK, resp)
}

// HealthHandler handles GET /health requests.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessFunc reports component state for GET /ready
type ReadinessFunc func() gin.H

// ReadyHandler returns a handler reporting the given readiness details.
func ReadyHandler(readiness ReadinessFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{}
		if readiness != nil {
			resp = readiness()
		}
		resp["status"] = "ready"
		resp["time"] = time.Now().UTC().Format(time.RFC3339)
		c.JSON(http.StatusOK, resp)
	}
}
