package scoring

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mikey/mailguard/internal/textproc"
)

// ArtifactFormat is the only artifact format understood by DecodeArtifact
const ArtifactFormat = "mailguard-linear/v1"

// Classifier kinds stored in an artifact
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearSVM          = "linear_svm"
)

// Artifact is the serialized form of a trained model
type Artifact struct {
	Format     string `json:"format"`
	Vectorizer struct {
		Vocabulary  map[string]int `json:"vocabulary"`
		IDF         []float64      `json:"idf"`
		SublinearTF bool           `json:"sublinear_tf"`
		Norm        string         `json:"norm"`
	} `json:"vectorizer"`
	Scaler struct {
		Mean  []float64 `json:"mean"`
		Scale []float64 `json:"scale"`
	} `json:"scaler"`
	Classifier struct {
		Kind      string    `json:"kind"`
		Coef      []float64 `json:"coef"`
		Intercept float64   `json:"intercept"`
	} `json:"classifier"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DecodeArtifact reads and validates an artifact
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that the artifact is internally consistent
func (a *Artifact) Validate() error {
	if a.Format != ArtifactFormat {
		return fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	terms := len(a.Vectorizer.IDF)
	if terms == 0 {
		return fmt.Errorf("artifact has an empty vocabulary")
	}
	if len(a.Vectorizer.Vocabulary) != terms {
		return fmt.Errorf("vocabulary has %d terms but idf has %d", len(a.Vectorizer.Vocabulary), terms)
	}
	for term, idx := range a.Vectorizer.Vocabulary {
		if idx < 0 || idx >= terms {
			return fmt.Errorf("term %q has out of range index %d", term, idx)
		}
	}
	switch a.Vectorizer.Norm {
	case "", "l1", "l2":
	default:
		return fmt.Errorf("unsupported norm %q", a.Vectorizer.Norm)
	}
	if len(a.Scaler.Mean) != textproc.NumericFeatureCount || len(a.Scaler.Scale) != textproc.NumericFeatureCount {
		return fmt.Errorf("scaler must have %d means and scales", textproc.NumericFeatureCount)
	}
	if want := terms + textproc.NumericFeatureCount; len(a.Classifier.Coef) != want {
		return fmt.Errorf("classifier has %d coefficients, want %d", len(a.Classifier.Coef), want)
	}
	switch a.Classifier.Kind {
	case KindLogisticRegression, KindLinearSVM:
	default:
		return fmt.Errorf("unsupported classifier kind %q", a.Classifier.Kind)
	}
	return nil
}

// Pipeline builds the runnable model described by the artifact
func (a *Artifact) Pipeline() (*Pipeline, error) {
	vectorizer := &Vectorizer{
		Vocabulary:  a.Vectorizer.Vocabulary,
		IDF:         a.Vectorizer.IDF,
		SublinearTF: a.Vectorizer.SublinearTF,
		Norm:        a.Vectorizer.Norm,
	}
	scaler := &Scaler{}
	copy(scaler.Mean[:], a.Scaler.Mean)
	copy(scaler.Scale[:], a.Scaler.Scale)

	var model any
	switch a.Classifier.Kind {
	case KindLogisticRegression:
		model = &LogisticRegression{Coef: a.Classifier.Coef, Intercept: a.Classifier.Intercept}
	case KindLinearSVM:
		model = &LinearSVM{Coef: a.Classifier.Coef, Intercept: a.Classifier.Intercept}
	}
	return NewPipeline(vectorizer, scaler, model)
}
