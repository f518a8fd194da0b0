package core

import (
	"slices"
	"strings"
	"time"
)

// Verdict is the discrete label assigned to an analyzed message
type Verdict string

const (
	VerdictSpam       Verdict = "spam"
	VerdictSuspicious Verdict = "suspicious"
	VerdictBenign     Verdict = "benign"
	// VerdictUnknown marks a record whose analysis pass has not written a verdict yet.
	VerdictUnknown Verdict = "unknown"
)

// BlocklistStatus classifies the domains referenced by a message
type BlocklistStatus string

const (
	BlocklistMalicious BlocklistStatus = "malicious"
	BlocklistBenign    BlocklistStatus = "benign"
	BlocklistUnknown   BlocklistStatus = "unknown"
)

// ModelKind identifies which scoring path produced a ScoreResult
type ModelKind string

const (
	ModelKindModel         ModelKind = "model"
	ModelKindRuleBased     ModelKind = "rule_based"
	ModelKindErrorFallback ModelKind = "error_fallback"
)

// Attachment is a decoded binary attachment submitted with a message
type Attachment struct {
	Filename string
	Content  []byte
}

// AttachmentMeta records where an attachment was saved, or why it was not
type AttachmentMeta struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AnalysisRequest is the input of a single analysis
type AnalysisRequest struct {
	MessageID       string
	Sender          string
	Subject         string
	Body            string
	AttachmentTexts []string
	Attachments     []Attachment
	ForceRecompute  bool
}

// Validate checks the request invariants
func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.MessageID) == "" {
		return &AnalysisError{Op: "validate", Err: ErrInvalidRequest, Detail: "message_id is required"}
	}
	return nil
}

// ocrHeader separates the message body from OCR output of attachments.
const (
	ocrHeader    = "\n\n[OCR extraction from attachments]\n"
	ocrSeparator = "\n\n---\n\n"
)

// BodyWithOCR returns the body merged with any OCR texts.
func (r *AnalysisRequest) BodyWithOCR() string {
	if len(r.AttachmentTexts) == 0 {
		return r.Body
	}
	return r.Body + ocrHeader + strings.Join(r.AttachmentTexts, ocrSeparator)
}

// BlocklistAssessment is the outcome of matching a message's domains against the blocklists.
// Host slices are sorted and hold no duplicates.
type BlocklistAssessment struct {
	Status         BlocklistStatus `json:"status"`
	Hosts          []string        `json:"hosts"`
	MaliciousHosts []string        `json:"malicious_hosts"`
	BenignHosts    []string        `json:"benign_hosts"`
}

// ScoreResult is the output of the scoring engine. Probability keeps full precision.
type ScoreResult struct {
	Probability float64
	Kind        ModelKind
	Reasons     []string
}

// FinalVerdict is the fused outcome of blocklist and model signals
type FinalVerdict struct {
	Score   float64
	Verdict Verdict
	Reasons []string
	// Model is nil when the scoring engine was not consulted.
	Model *ScoreResult
}

// AnalysisRecord is the persisted result of analyzing one message
type AnalysisRecord struct {
	ID              int64
	MessageID       string
	Sender          string
	Subject         string
	Body            string
	BodyWithOCR     string
	AttachmentTexts []string
	AttachmentsMeta []AttachmentMeta
	OCRUsed         bool
	Blocklist       BlocklistAssessment
	UsedModel       bool
	ModelKind       ModelKind
	ModelScore      *float64
	Verdict         Verdict
	Score           *float64
	Reasons         []string
	CreatedAt       time.Time

	// Cached is set when the record was returned without a new analysis pass.
	Cached bool
}

// Clone returns a deep copy of the record
func (r *AnalysisRecord) Clone() *AnalysisRecord {
	c := *r
	c.AttachmentTexts = slices.Clone(r.AttachmentTexts)
	c.AttachmentsMeta = slices.Clone(r.AttachmentsMeta)
	c.Blocklist.Hosts = slices.Clone(r.Blocklist.Hosts)
	c.Blocklist.MaliciousHosts = slices.Clone(r.Blocklist.MaliciousHosts)
	c.Blocklist.BenignHosts = slices.Clone(r.Blocklist.BenignHosts)
	c.Reasons = slices.Clone(r.Reasons)
	if r.ModelScore != nil {
		v := *r.ModelScore
		c.ModelScore = &v
	}
	if r.Score != nil {
		v := *r.Score
		c.Score = &v
	}
	return &c
}

// ListOptions filters record listings
type ListOptions struct {
	Since time.Time
	Limit int
}
