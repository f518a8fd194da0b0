package scoring

import (
	"fmt"
	"math"
)

// FeatureVector is a sparse feature vector. Indices are strictly increasing.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Dot returns the dot product of v with a dense weight vector of length v.Dim
func (v FeatureVector) Dot(weights []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * weights[idx]
	}
	return sum
}

// ProbabilisticModel exposes the probability of the positive class
type ProbabilisticModel interface {
	PredictProba(x FeatureVector) (float64, error)
}

// LabelOnlyModel exposes only a hard 0/1 label
type LabelOnlyModel interface {
	PredictLabel(x FeatureVector) (int, error)
}

// LogisticRegression is a binary linear classifier with a sigmoid link
type LogisticRegression struct {
	Coef      []float64
	Intercept float64
}

// PredictProba returns sigmoid(w.x + b)
func (m *LogisticRegression) PredictProba(x FeatureVector) (float64, error) {
	if x.Dim != len(m.Coef) {
		return 0, fmt.Errorf("feature dimension %d does not match %d coefficients", x.Dim, len(m.Coef))
	}
	z := x.Dot(m.Coef) + m.Intercept
	return 1 / (1 + math.Exp(-z)), nil
}

// LinearSVM is a binary linear classifier that only yields a label
type LinearSVM struct {
	Coef      []float64
	Intercept float64
}

// PredictLabel returns 1 when the decision function is positive
func (m *LinearSVM) PredictLabel(x FeatureVector) (int, error) {
	if x.Dim != len(m.Coef) {
		return 0, fmt.Errorf("feature dimension %d does not match %d coefficients", x.Dim, len(m.Coef))
	}
	if x.Dot(m.Coef)+m.Intercept > 0 {
		return 1, nil
	}
	return 0, nil
}

// classifier normalizes both model capabilities to a probability. The capability is
// resolved once when the adapter is built.
type classifier struct {
	proba ProbabilisticModel
	label LabelOnlyModel
}

func newClassifier(m any) (*classifier, error) {
	switch model := m.(type) {
	case ProbabilisticModel:
		return &classifier{proba: model}, nil
	case LabelOnlyModel:
		return &classifier{label: model}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %T", m)
	}
}

func (c *classifier) predict(x FeatureVector) InferOutcome {
	var p float64
	if c.proba != nil {
		v, err := c.proba.PredictProba(x)
		if err != nil {
			return InferFailed(err.Error())
		}
		p = v
	} else {
		label, err := c.label.PredictLabel(x)
		if err != nil {
			return InferFailed(err.Error())
		}
		if label > 0 {
			p = 1
		}
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return InferFailed(fmt.Sprintf("model returned invalid probability %v", p))
	}
	return InferOk(p)
}
