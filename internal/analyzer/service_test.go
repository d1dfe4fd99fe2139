package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/classifier"
	"github.com/xaenox/return-analyzer/internal/models"
	"github.com/xaenox/return-analyzer/internal/resolution"
	"github.com/xaenox/return-analyzer/internal/session"
	"github.com/xaenox/return-analyzer/internal/storage"
	"go.uber.org/zap/zaptest"
)

type fakeClassifier struct {
	label string
	conf  float64
	err   error
	calls []string
}

func (f *fakeClassifier) Classify(_ context.Context, normalized string) (*models.Prediction, error) {
	f.calls = append(f.calls, normalized)
	if f.err != nil {
		return nil, f.err
	}
	other := "Defective"
	if f.label == other {
		other = "Size Issue"
	}
	return &models.Prediction{
		Label: f.label,
		Probabilities: []models.LabelProbability{
			{Label: f.label, Probability: f.conf},
			{Label: other, Probability: 1 - f.conf},
		},
	}, nil
}

func (f *fakeClassifier) Labels() []string {
	return []string{f.label, "Defective", "Size Issue"}
}

type fakeReviewer struct {
	review *models.Review
	err    error
	calls  int
}

func (f *fakeReviewer) Review(context.Context, string, []string) (*models.Review, error) {
	f.calls++
	return f.review, f.err
}

type upperNormalizer struct{}

func (upperNormalizer) Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) SaveAnalysis(context.Context, *models.Analysis) error {
	return errors.New("disk full")
}

func newTestService(t *testing.T, clf classifier.Classifier) (*Service, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	return New(upperNormalizer{}, clf, catalog.Default(), store, zaptest.NewLogger(t)), store
}

func TestAnalyze(t *testing.T) {
	clf := &fakeClassifier{label: "Defective", conf: 0.9}
	svc, store := newTestService(t, clf)
	idx := 1

	a, err := svc.Analyze(context.Background(), Request{UserID: 5, ProductIndex: &idx, Reason: " arrived broken "})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "ARRIVED BROKEN", a.Normalized)
	assert.Equal(t, []string{"ARRIVED BROKEN"}, clf.calls)
	assert.Equal(t, "Defective", a.Prediction.Label)
	assert.Equal(t, resolution.Resolve("Defective"), a.Resolution)
	require.NotNil(t, a.Product)
	assert.Equal(t, "Smart Watch", a.Product.Name)
	assert.Nil(t, a.Review)

	saved, err := store.GetUserAnalyses(context.Background(), 5, 10, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, a.ID, saved[0].ID)
}

func TestAnalyze_EmptyReason(t *testing.T) {
	clf := &fakeClassifier{label: "Defective", conf: 0.9}
	svc, _ := newTestService(t, clf)

	for _, reason := range []string{"", "   ", "\n\t"} {
		_, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: reason})
		assert.ErrorIs(t, err, ErrEmptyReason)
	}
	assert.Empty(t, clf.calls, "classifier must not be called")
}

func TestAnalyze_UnknownLabelGetsManualReview(t *testing.T) {
	svc, _ := newTestService(t, &fakeClassifier{label: "Quality Issue", conf: 0.8})

	a, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: "meh"})
	require.NoError(t, err)
	assert.Equal(t, resolution.Default, a.Resolution)
	assert.Nil(t, a.Product)
}

func TestAnalyze_ClassifierErrorIsPerCall(t *testing.T) {
	clf := &fakeClassifier{label: "Defective", conf: 0.9, err: classifier.ErrNumerical}
	svc, _ := newTestService(t, clf)

	_, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: "broken"})
	assert.ErrorIs(t, err, classifier.ErrNumerical)

	clf.err = nil
	a, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: "broken"})
	require.NoError(t, err)
	assert.Equal(t, "Defective", a.Prediction.Label)
}

func TestAnalyze_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(t, &fakeClassifier{label: "Defective", conf: 0.9})
	idx := 42

	_, err := svc.Analyze(context.Background(), Request{UserID: 1, ProductIndex: &idx, Reason: "broken"})
	assert.ErrorIs(t, err, catalog.ErrUnknownProduct)
}

func TestAnalyze_StorageFailureIsNotFatal(t *testing.T) {
	store := failingStorage{storage.NewMemoryStorage()}
	svc := New(upperNormalizer{}, &fakeClassifier{label: "Wrong Item", conf: 0.9}, catalog.Default(), store, zaptest.NewLogger(t))

	a, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: "not what I ordered"})
	require.NoError(t, err)
	assert.Equal(t, "Wrong Item", a.Prediction.Label)
}

func TestAnalyze_Review(t *testing.T) {
	tests := []struct {
		name      string
		conf      float64
		reviewer  *fakeReviewer
		wantCalls int
		wantLabel string
	}{
		{"confident skips review", 0.9, &fakeReviewer{review: &models.Review{Label: "Size Issue"}}, 0, ""},
		{"low confidence reviewed", 0.4, &fakeReviewer{review: &models.Review{Label: "Size Issue", Summary: "runs small"}}, 1, "Size Issue"},
		{"review error ignored", 0.4, &fakeReviewer{err: errors.New("rate limited")}, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, &fakeClassifier{label: "Defective", conf: tt.conf})
			svc.WithReviewer(tt.reviewer, 0.6)

			a, err := svc.Analyze(context.Background(), Request{UserID: 1, Reason: "hmm"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, tt.reviewer.calls)
			assert.Equal(t, "Defective", a.Prediction.Label)
			assert.Equal(t, resolution.Resolve("Defective"), a.Resolution, "resolution follows the model")
			if tt.wantLabel == "" {
				assert.Nil(t, a.Review)
			} else {
				require.NotNil(t, a.Review)
				assert.Equal(t, tt.wantLabel, a.Review.Label)
			}
		})
	}
}

func TestNavigation(t *testing.T) {
	svc, _ := newTestService(t, &fakeClassifier{label: "Defective", conf: 0.9})
	ctx := context.Background()
	products := svc.Products()

	_, err := svc.SelectProduct(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.Back(ctx, 1))
	_, err = svc.SelectProduct(ctx, 1, 0)
	require.NoError(t, err)

	got, err := svc.CurrentProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, products[0], got)
	assert.NotEqual(t, products[2], got)

	// sessions are isolated per user
	sess, err := svc.Session(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ShowcasePage, sess.Page)
}

func TestCurrentProduct_InvalidStateResets(t *testing.T) {
	svc, store := newTestService(t, &fakeClassifier{label: "Defective", conf: 0.9})
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, &models.Session{UserID: 1, Page: models.AnalysisPage, UpdatedAt: time.Now()}))

	_, err := svc.CurrentProduct(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNoSelection)

	sess, err := svc.Session(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ShowcasePage, sess.Page)
}

func TestAnalyzeSelected(t *testing.T) {
	clf := &fakeClassifier{label: "Size Issue", conf: 0.8}
	svc, _ := newTestService(t, clf)
	ctx := context.Background()

	_, err := svc.AnalyzeSelected(ctx, 1, "too small")
	assert.ErrorIs(t, err, session.ErrNoSelection)

	_, err = svc.SelectProduct(ctx, 1, 3)
	require.NoError(t, err)

	_, err = svc.AnalyzeSelected(ctx, 1, "  ")
	assert.ErrorIs(t, err, ErrEmptyReason)
	assert.Empty(t, clf.calls)

	a, err := svc.AnalyzeSelected(ctx, 1, "too small")
	require.NoError(t, err)
	assert.Equal(t, "Running Shoes", a.Product.Name)

	history, err := svc.History(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, a.ID, history[0].ID)
}
