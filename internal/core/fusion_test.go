package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseMaliciousShortCircuits(t *testing.T) {
	called := false
	v := Fuse(BlocklistAssessment{
		Status:         BlocklistMalicious,
		MaliciousHosts: []string{"bad.test", "evil-domain.test"},
	}, func() ScoreResult {
		called = true
		return ScoreResult{}
	})

	assert.False(t, called)
	assert.Equal(t, 1.0, v.Score)
	assert.Equal(t, VerdictSpam, v.Verdict)
	assert.Nil(t, v.Model)
	assert.Equal(t, []string{
		"blocklist_malicious_hit",
		"blocklist_malicious_domain:bad.test",
		"blocklist_malicious_domain:evil-domain.test",
	}, v.Reasons)
}

func TestFuseBenignDiscount(t *testing.T) {
	v := Fuse(BlocklistAssessment{
		Status:      BlocklistBenign,
		BenignHosts: []string{"google.com"},
	}, func() ScoreResult {
		return ScoreResult{Probability: 0.95, Kind: ModelKindModel, Reasons: []string{}}
	})

	// 0.7 * 0.95 = 0.665
	assert.Equal(t, 0.665, v.Score)
	assert.Equal(t, VerdictSuspicious, v.Verdict)
	assert.Equal(t, []string{"blocklist_benign_hit", "blocklist_benign_domain:google.com"}, v.Reasons)
	if assert.NotNil(t, v.Model) {
		assert.Equal(t, 0.95, v.Model.Probability)
	}
}

func TestFuseUnknownPassesModelThrough(t *testing.T) {
	v := Fuse(BlocklistAssessment{Status: BlocklistUnknown}, func() ScoreResult {
		return ScoreResult{Probability: 0.8, Kind: ModelKindRuleBased, Reasons: []string{"suspicious_phrases", "insecure_http_link"}}
	})

	assert.Equal(t, 0.8, v.Score)
	assert.Equal(t, VerdictSpam, v.Verdict)
	assert.Equal(t, []string{"suspicious_phrases", "insecure_http_link"}, v.Reasons)
	assert.NotNil(t, v.Reasons)
}

func TestFuseReasonsNeverNil(t *testing.T) {
	v := Fuse(BlocklistAssessment{Status: BlocklistUnknown}, func() ScoreResult {
		return ScoreResult{Probability: 0.1, Kind: ModelKindModel}
	})
	assert.NotNil(t, v.Reasons)
	assert.Empty(t, v.Reasons)
}

func TestVerdictForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Verdict
	}{
		{1.0, VerdictSpam},
		{0.7, VerdictSpam},
		{0.699999, VerdictSuspicious},
		{0.4, VerdictSuspicious},
		{0.399999, VerdictBenign},
		{0, VerdictBenign},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerdictForScore(tt.score), "score %v", tt.score)
	}
}

func TestVerdictUsesUnroundedScore(t *testing.T) {
	// 0.6999996 rounds to 0.7 for reporting but stays suspicious
	v := Fuse(BlocklistAssessment{Status: BlocklistUnknown}, func() ScoreResult {
		return ScoreResult{Probability: 0.6999996, Kind: ModelKindModel}
	})
	assert.Equal(t, 0.7, v.Score)
	assert.Equal(t, VerdictSuspicious, v.Verdict)
}

func TestBodyWithOCR(t *testing.T) {
	req := &AnalysisRequest{Body: "hello"}
	assert.Equal(t, "hello", req.BodyWithOCR())

	req.AttachmentTexts = []string{"one", "two"}
	assert.Equal(t, "hello\n\n[OCR extraction from attachments]\none\n\n---\n\ntwo", req.BodyWithOCR())
}

func TestAnalysisErrorUnwraps(t *testing.T) {
	err := WrapError("update_record", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "update_record: record not found", err.Error())
	assert.NoError(t, WrapError("noop", nil))
}
