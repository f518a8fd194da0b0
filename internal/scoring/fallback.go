package scoring

import (
	"strings"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
)

// Rule is one heuristic check of the rule-based scorer
type Rule struct {
	ID     string
	Weight float64
	// Match receives the lowercased raw text and the normalized text
	Match func(raw, normalized string) bool
}

// suspiciousPhrases are matched against normalized text
var suspiciousPhrases = []string{
	"click here",
	"verify your account",
	"password",
	"confirm your identity",
	"update your payment",
}

// DefaultRules returns the heuristic rules in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:     "suspicious_phrases",
			Weight: 0.5,
			Match: func(_, normalized string) bool {
				for _, phrase := range suspiciousPhrases {
					if strings.Contains(normalized, phrase) {
						return true
					}
				}
				return false
			},
		},
		{
			// Normalization replaces links, so the scheme check runs on the raw text.
			ID:     "insecure_http_link",
			Weight: 0.3,
			Match: func(raw, _ string) bool {
				return strings.Contains(raw, "http://") && !strings.Contains(raw, "https://")
			},
		},
	}
}

// RuleBased is the scorer used when no model is available
type RuleBased struct {
	rules []Rule
}

// NewRuleBased creates a rule-based scorer with the default rules
func NewRuleBased() *RuleBased {
	return &RuleBased{rules: DefaultRules()}
}

// Score sums the weights of matching rules, clamped to [0, 1]
func (r *RuleBased) Score(text string) core.ScoreResult {
	raw := strings.ToLower(text)
	normalized := textproc.Normalize(text)

	result := core.ScoreResult{Kind: core.ModelKindRuleBased, Reasons: []string{}}
	for _, rule := range r.rules {
		if rule.Match(raw, normalized) {
			result.Probability += rule.Weight
			result.Reasons = append(result.Reasons, rule.ID)
		}
	}
	result.Probability = clamp01(result.Probability)
	return result
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
