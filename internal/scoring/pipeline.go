package scoring

import (
	"math"
	"sort"

	"github.com/mikey/mailguard/internal/textproc"
)

// Vectorizer computes TF-IDF weights over a fixed vocabulary
type Vectorizer struct {
	Vocabulary  map[string]int
	IDF         []float64
	SublinearTF bool
	// Norm is "l2", "l1" or "" for none
	Norm string
}

// Transform returns the text part of the feature vector. Terms outside the vocabulary are
// ignored.
func (v *Vectorizer) Transform(tokens []string) FeatureVector {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		tf := counts[idx]
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		values[i] = tf * v.IDF[idx]
	}

	var norm float64
	switch v.Norm {
	case "l2":
		for _, val := range values {
			norm += val * val
		}
		norm = math.Sqrt(norm)
	case "l1":
		for _, val := range values {
			norm += math.Abs(val)
		}
	}
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}

	return FeatureVector{Dim: len(v.IDF), Indices: indices, Values: values}
}

// Scaler standardizes the numeric features
type Scaler struct {
	Mean  [textproc.NumericFeatureCount]float64
	Scale [textproc.NumericFeatureCount]float64
}

// Transform returns (x - mean) / scale per feature. A zero scale leaves the centered value.
func (s *Scaler) Transform(x [textproc.NumericFeatureCount]float64) [textproc.NumericFeatureCount]float64 {
	var out [textproc.NumericFeatureCount]float64
	for i := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x[i] - s.Mean[i]) / scale
	}
	return out
}

// Pipeline is a loaded model: feature extraction followed by classification
type Pipeline struct {
	vectorizer *Vectorizer
	scaler     *Scaler
	classifier *classifier
}

// NewPipeline builds a pipeline around a ProbabilisticModel or LabelOnlyModel
func NewPipeline(vectorizer *Vectorizer, scaler *Scaler, model any) (*Pipeline, error) {
	c, err := newClassifier(model)
	if err != nil {
		return nil, err
	}
	return &Pipeline{vectorizer: vectorizer, scaler: scaler, classifier: c}, nil
}

// Features builds the full feature vector for raw text: TF-IDF terms followed by the
// scaled numeric features.
func (p *Pipeline) Features(text string) FeatureVector {
	normalized := textproc.Normalize(text)
	tokens, numeric := textproc.Extract(normalized)

	x := p.vectorizer.Transform(tokens)
	scaled := p.scaler.Transform(numeric)
	for i, val := range scaled {
		if val == 0 {
			continue
		}
		x.Indices = append(x.Indices, x.Dim+i)
		x.Values = append(x.Values, val)
	}
	x.Dim += textproc.NumericFeatureCount
	return x
}

// Infer implements Model
func (p *Pipeline) Infer(text string) InferOutcome {
	return p.classifier.predict(p.Features(text))
}
