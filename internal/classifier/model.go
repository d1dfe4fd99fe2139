package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xaenox/return-analyzer/internal/models"
)

var (
	// ErrModelNotFound is returned when an artifact file is missing.
	ErrModelNotFound = errors.New("model files not found")
	// ErrNumerical marks failures inside transform or predict.
	ErrNumerical = errors.New("numerical error")
)

// Classifier predicts a return category for normalized text
type Classifier interface {
	Classify(ctx context.Context, normalized string) (*models.Prediction, error)
	Labels() []string
}

// Model pairs a fitted vectorizer with its classifier. It is never mutated
// after LoadModel and may be shared between goroutines.
type Model struct {
	vectorizer *Vectorizer
	estimator  Estimator
}

// NewModel checks that the vectorizer and estimator agree on dimensions.
func NewModel(v VectorizerArtifact, e EstimatorArtifact) (*Model, error) {
	vec, err := NewVectorizer(v)
	if err != nil {
		return nil, fmt.Errorf("invalid vectorizer: %w", err)
	}
	est, err := NewEstimator(e, vec.Dim())
	if err != nil {
		return nil, fmt.Errorf("invalid classifier: %w", err)
	}
	return &Model{vectorizer: vec, estimator: est}, nil
}

// LoadModel reads the classifier and vectorizer artifacts from disk.
func LoadModel(modelPath, vectorizerPath string) (*Model, error) {
	var est EstimatorArtifact
	if err := readArtifact(modelPath, &est); err != nil {
		return nil, err
	}
	var vec VectorizerArtifact
	if err := readArtifact(vectorizerPath, &vec); err != nil {
		return nil, err
	}
	return NewModel(vec, est)
}

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

// Labels returns the classifier's known labels in probability order
func (m *Model) Labels() []string {
	out := make([]string, len(m.estimator.Classes()))
	copy(out, m.estimator.Classes())
	return out
}

// Classify runs a single-document batch through the vectorizer and classifier.
func (m *Model) Classify(ctx context.Context, normalized string) (*models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	X, err := m.vectorizer.Transform([]string{normalized})
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}
	labels, err := m.estimator.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict failed: %w", err)
	}
	probs, err := m.estimator.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("predict_proba failed: %w", err)
	}

	classes := m.estimator.Classes()
	pred := &models.Prediction{
		Label:         labels[0],
		Probabilities: make([]models.LabelProbability, len(classes)),
	}
	for k, label := range classes {
		pred.Probabilities[k] = models.LabelProbability{Label: label, Probability: probs[0][k]}
	}
	return pred, nil
}
