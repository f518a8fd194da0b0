package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/mailguard/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	r := NewRecorder()

	r.ObserveAnalysis(&core.AnalysisRecord{Verdict: core.VerdictSpam}, 5*time.Millisecond)
	r.ObserveAnalysis(&core.AnalysisRecord{
		Verdict:   core.VerdictBenign,
		UsedModel: true,
		ModelKind: core.ModelKindRuleBased,
	}, time.Millisecond)
	r.ObserveAnalysis(&core.AnalysisRecord{
		Verdict:   core.VerdictBenign,
		UsedModel: true,
		ModelKind: core.ModelKindRuleBased,
		Cached:    true,
	}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("spam", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("benign", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("benign", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scoring.WithLabelValues("rule_based")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.scoring.WithLabelValues("model")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveAnalysis(&core.AnalysisRecord{Verdict: core.VerdictSuspicious}, time.Second)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `mailguard_analyses_total{cached="false",verdict="suspicious"} 1`)
	assert.Contains(t, string(body), "mailguard_analysis_duration_seconds_count 1")
}
