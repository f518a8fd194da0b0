package core

import "math"

const (
	spamThreshold       = 0.7
	suspiciousThreshold = 0.4
	benignDiscount      = 0.7
)

// Reason tags contributed by the blocklist
const (
	ReasonMaliciousHit    = "blocklist_malicious_hit"
	ReasonMaliciousDomain = "blocklist_malicious_domain:"
	ReasonBenignHit       = "blocklist_benign_hit"
	ReasonBenignDomain    = "blocklist_benign_domain:"
)

// Fuse combines a blocklist assessment with a model score. score is only called when the
// assessment is not malicious.
func Fuse(assessment BlocklistAssessment, score func() ScoreResult) FinalVerdict {
	if assessment.Status == BlocklistMalicious {
		reasons := make([]string, 0, len(assessment.MaliciousHosts)+1)
		reasons = append(reasons, ReasonMaliciousHit)
		for _, host := range assessment.MaliciousHosts {
			reasons = append(reasons, ReasonMaliciousDomain+host)
		}
		return FinalVerdict{Score: 1.0, Verdict: VerdictSpam, Reasons: reasons}
	}

	result := score()
	final := result.Probability
	reasons := make([]string, 0, len(result.Reasons)+len(assessment.BenignHosts)+1)
	reasons = append(reasons, result.Reasons...)

	if assessment.Status == BlocklistBenign {
		final = benignDiscount * result.Probability
		reasons = append(reasons, ReasonBenignHit)
		for _, host := range assessment.BenignHosts {
			reasons = append(reasons, ReasonBenignDomain+host)
		}
	}

	return FinalVerdict{
		Score:   RoundScore(final),
		Verdict: VerdictForScore(final),
		Reasons: reasons,
		Model:   &result,
	}
}

// VerdictForScore maps an unrounded score onto the three-way label
func VerdictForScore(score float64) Verdict {
	switch {
	case score >= spamThreshold:
		return VerdictSpam
	case score >= suspiciousThreshold:
		return VerdictSuspicious
	default:
		return VerdictBenign
	}
}

// RoundScore rounds a score to three decimals for reporting
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
