package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/return-analyzer/internal/models"
	"go.uber.org/zap/zaptest"
)

func backends(t *testing.T) map[string]func(t *testing.T) Storage {
	return map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage {
			return NewMemoryStorage()
		},
		"sqlite": func(t *testing.T) Storage {
			s, err := NewSQLiteStorage(":memory:", zaptest.NewLogger(t))
			require.NoError(t, err)
			return s
		},
	}
}

func testAnalysis(id string, userID int64, label string, at time.Time) *models.Analysis {
	return &models.Analysis{
		ID:         id,
		UserID:     userID,
		Product:    &models.Product{Name: "Smart Watch", ImageURL: "https://example.com/w.jpg", Price: "₹12,499"},
		Reason:     "Battery dies after an hour",
		Normalized: "battery dy hour",
		Prediction: models.Prediction{
			Label: label,
			Probabilities: []models.LabelProbability{
				{Label: "Defective", Probability: 0.3},
				{Label: "Performance Issue", Probability: 0.7},
			},
		},
		Resolution: models.Resolution{Action: "🛠 Technical support consultation", Color: "#00C851"},
		CreatedAt:  at,
	}
}

func TestStorage_Sessions(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			fresh, err := s.GetSession(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, int64(7), fresh.UserID)
			assert.Equal(t, models.ShowcasePage, fresh.Page)
			assert.Nil(t, fresh.Selected)

			idx := 3
			fresh.Page = models.AnalysisPage
			fresh.Selected = &idx
			require.NoError(t, s.SaveSession(ctx, fresh))

			got, err := s.GetSession(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, models.AnalysisPage, got.Page)
			require.NotNil(t, got.Selected)
			assert.Equal(t, 3, *got.Selected)

			// stored copy is isolated from the caller
			idx = 5
			again, err := s.GetSession(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, 3, *again.Selected)

			got.Page = models.ShowcasePage
			require.NoError(t, s.SaveSession(ctx, got))
			back, err := s.GetSession(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, models.ShowcasePage, back.Page)
			assert.Equal(t, 3, *back.Selected)

			other, err := s.GetSession(ctx, 8)
			require.NoError(t, err)
			assert.Equal(t, models.ShowcasePage, other.Page)
			assert.Nil(t, other.Selected)
		})
	}
}

func TestStorage_Analyses(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			base := time.Now().Truncate(time.Millisecond)
			require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a1", 1, "Defective", base)))
			require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a2", 1, "Performance Issue", base.Add(time.Second))))
			require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("a3", 1, "Wrong Item", base.Add(2*time.Second))))
			require.NoError(t, s.SaveAnalysis(ctx, testAnalysis("b1", 2, "Defective", base)))

			got, err := s.GetUserAnalyses(ctx, 1, 2, 0)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "a3", got[0].ID)
			assert.Equal(t, "a2", got[1].ID)

			a := got[1]
			assert.Equal(t, int64(1), a.UserID)
			assert.Equal(t, "Performance Issue", a.Prediction.Label)
			assert.Len(t, a.Prediction.Probabilities, 2)
			assert.InDelta(t, 0.7, a.Prediction.Confidence(), 1e-9)
			require.NotNil(t, a.Product)
			assert.Equal(t, "Smart Watch", a.Product.Name)
			assert.Equal(t, "#00C851", a.Resolution.Color)
			assert.Nil(t, a.Review)
			assert.True(t, a.CreatedAt.Equal(base.Add(time.Second)))

			page2, err := s.GetUserAnalyses(ctx, 1, 2, 2)
			require.NoError(t, err)
			require.Len(t, page2, 1)
			assert.Equal(t, "a1", page2[0].ID)

			all, err := s.GetUserAnalyses(ctx, 1, 0, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			none, err := s.GetUserAnalyses(ctx, 3, 5, 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStorage_AnalysisWithReview(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			a := testAnalysis("r1", 1, "Defective", time.Now())
			a.Product = nil
			a.Review = &models.Review{Label: "Performance Issue", Summary: "Battery complaint"}
			require.NoError(t, s.SaveAnalysis(ctx, a))

			got, err := s.GetUserAnalyses(ctx, 1, 1, 0)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Nil(t, got[0].Product)
			require.NotNil(t, got[0].Review)
			assert.Equal(t, "Performance Issue", got[0].Review.Label)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "secret", DBName: "returns", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=returns sslmode=disable", c.DSN())
}
