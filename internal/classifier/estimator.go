package classifier

import (
	"fmt"
	"math"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindMultinomialNB      = "multinomial_nb"
)

// EstimatorArtifact is the serialized form of a fitted linear classifier.
// Coef/Intercept are used by logistic regression, FeatureLogProb and
// ClassLogPrior by multinomial naive Bayes.
type EstimatorArtifact struct {
	Kind           string      `json:"kind"`
	Classes        []string    `json:"classes"`
	MultiClass     string      `json:"multi_class,omitempty"`
	Coef           [][]float64 `json:"coef,omitempty"`
	Intercept      []float64   `json:"intercept,omitempty"`
	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty"`
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty"`
}

// Estimator predicts labels and per-label probabilities for feature vectors
type Estimator interface {
	Classes() []string
	Predict(X [][]float64) ([]string, error)
	PredictProba(X [][]float64) ([][]float64, error)
}

// NewEstimator builds an Estimator for features of length dim.
func NewEstimator(a EstimatorArtifact, dim int) (Estimator, error) {
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("estimator needs at least 2 classes, got %d", len(a.Classes))
	}
	switch a.Kind {
	case KindLogisticRegression:
		return newLogisticRegression(a, dim)
	case KindMultinomialNB:
		return newMultinomialNB(a, dim)
	default:
		return nil, fmt.Errorf("unsupported estimator kind %q", a.Kind)
	}
}

type linear struct {
	classes   []string
	weights   [][]float64
	intercept []float64
}

func (l *linear) Classes() []string {
	return l.classes
}

func (l *linear) scores(x []float64) ([]float64, error) {
	if len(x) != len(l.weights[0]) {
		return nil, fmt.Errorf("%w: feature vector has %d entries, estimator expects %d", ErrNumerical, len(x), len(l.weights[0]))
	}
	out := make([]float64, len(l.weights))
	for k, w := range l.weights {
		s := l.intercept[k]
		for j, xj := range x {
			if xj != 0 {
				s += w[j] * xj
			}
		}
		out[k] = s
	}
	return out, nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s has %d rows, want %d", name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(row), cols)
		}
	}
	return nil
}

type logisticRegression struct {
	linear
	ovr    bool
	binary bool
}

func newLogisticRegression(a EstimatorArtifact, dim int) (*logisticRegression, error) {
	rows := len(a.Classes)
	binary := len(a.Classes) == 2 && len(a.Coef) == 1
	if binary {
		rows = 1
	}
	if err := checkMatrix("coef", a.Coef, rows, dim); err != nil {
		return nil, err
	}
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("intercept has %d entries, want %d", len(a.Intercept), rows)
	}

	var ovr bool
	switch a.MultiClass {
	case "", "multinomial", "auto":
	case "ovr":
		ovr = true
	default:
		return nil, fmt.Errorf("unsupported multi_class %q", a.MultiClass)
	}

	return &logisticRegression{
		linear: linear{classes: a.Classes, weights: a.Coef, intercept: a.Intercept},
		ovr:    ovr,
		binary: binary,
	}, nil
}

func (m *logisticRegression) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		s, err := m.scores(x)
		if err != nil {
			return nil, err
		}
		var p []float64
		switch {
		case m.binary:
			p1 := sigmoid(s[0])
			p = []float64{1 - p1, p1}
		case m.ovr:
			p = make([]float64, len(s))
			var sum float64
			for k, v := range s {
				p[k] = sigmoid(v)
				sum += p[k]
			}
			if sum == 0 {
				return nil, fmt.Errorf("%w: all one-vs-rest scores vanished", ErrNumerical)
			}
			for k := range p {
				p[k] /= sum
			}
		default:
			p = softmax(s)
		}
		if err := checkDistribution(p); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (m *logisticRegression) Predict(X [][]float64) ([]string, error) {
	return predictFromProba(m, X)
}

type multinomialNB struct {
	linear
}

func newMultinomialNB(a EstimatorArtifact, dim int) (*multinomialNB, error) {
	if err := checkMatrix("feature_log_prob", a.FeatureLogProb, len(a.Classes), dim); err != nil {
		return nil, err
	}
	if len(a.ClassLogPrior) != len(a.Classes) {
		return nil, fmt.Errorf("class_log_prior has %d entries, want %d", len(a.ClassLogPrior), len(a.Classes))
	}
	return &multinomialNB{
		linear: linear{classes: a.Classes, weights: a.FeatureLogProb, intercept: a.ClassLogPrior},
	}, nil
}

func (m *multinomialNB) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		jll, err := m.scores(x)
		if err != nil {
			return nil, err
		}
		p := softmax(jll)
		if err := checkDistribution(p); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (m *multinomialNB) Predict(X [][]float64) ([]string, error) {
	return predictFromProba(m, X)
}

// predictFromProba picks the first class with the highest probability.
func predictFromProba(e Estimator, X [][]float64) ([]string, error) {
	probs, err := e.PredictProba(X)
	if err != nil {
		return nil, err
	}
	classes := e.Classes()
	labels := make([]string, len(probs))
	for i, p := range probs {
		best := 0
		for k := range p {
			if p[k] > p[best] {
				best = k
			}
		}
		labels[i] = classes[best]
	}
	return labels, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(s []float64) []float64 {
	top := math.Inf(-1)
	for _, v := range s {
		if v > top {
			top = v
		}
	}
	out := make([]float64, len(s))
	var sum float64
	for k, v := range s {
		out[k] = math.Exp(v - top)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
	return out
}

func checkDistribution(p []float64) error {
	var sum float64
	for k, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: probability %d is %v", ErrNumerical, k, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: probabilities sum to %v", ErrNumerical, sum)
	}
	return nil
}
