// Package analyzer sequences normalization, classification, resolution and
// persistence for a return reason, and owns per-user navigation.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/classifier"
	"github.com/xaenox/return-analyzer/internal/models"
	"github.com/xaenox/return-analyzer/internal/resolution"
	"github.com/xaenox/return-analyzer/internal/session"
	"github.com/xaenox/return-analyzer/internal/storage"
	"go.uber.org/zap"
)

// ErrEmptyReason is returned for empty or whitespace-only return reasons.
var ErrEmptyReason = errors.New("please enter a return reason")

type Normalizer interface {
	Normalize(text string) string
}

type Service struct {
	normalizer    Normalizer
	classifier    classifier.Classifier
	reviewer      classifier.Reviewer
	minConfidence float64
	catalog       *catalog.Catalog
	storage       storage.Storage
	logger        *zap.Logger
	now           func() time.Time
}

func New(normalizer Normalizer, clf classifier.Classifier, cat *catalog.Catalog, store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		normalizer: normalizer,
		classifier: clf,
		catalog:    cat,
		storage:    store,
		logger:     logger,
		now:        time.Now,
	}
}

// WithReviewer asks r for a second opinion whenever the model's confidence
// is below minConfidence.
func (s *Service) WithReviewer(r classifier.Reviewer, minConfidence float64) *Service {
	s.reviewer = r
	s.minConfidence = minConfidence
	return s
}

type Request struct {
	UserID       int64
	ProductIndex *int
	Reason       string
}

// Analyze classifies a return reason and resolves it to an action.
// Empty reasons are rejected before any classification.
func (s *Service) Analyze(ctx context.Context, req Request) (*models.Analysis, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrEmptyReason
	}

	var product *models.Product
	if req.ProductIndex != nil {
		p, err := s.catalog.Get(*req.ProductIndex)
		if err != nil {
			return nil, err
		}
		product = &p
	}

	normalized := s.normalizer.Normalize(req.Reason)
	pred, err := s.classifier.Classify(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	analysis := &models.Analysis{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Product:    product,
		Reason:     req.Reason,
		Normalized: normalized,
		Prediction: *pred,
		Resolution: resolution.Resolve(pred.Label),
		CreatedAt:  s.now(),
	}

	if s.reviewer != nil && pred.Confidence() < s.minConfidence {
		review, err := s.reviewer.Review(ctx, req.Reason, s.classifier.Labels())
		if err != nil {
			s.logger.Warn("Review failed",
				zap.Error(err),
				zap.String("analysis_id", analysis.ID))
		} else {
			analysis.Review = review
		}
	}

	if err := s.storage.SaveAnalysis(ctx, analysis); err != nil {
		s.logger.Error("Failed to save analysis",
			zap.Error(err),
			zap.String("analysis_id", analysis.ID),
			zap.Int64("user_id", req.UserID))
	}

	s.logger.Info("Analyzed return reason",
		zap.String("analysis_id", analysis.ID),
		zap.Int64("user_id", req.UserID),
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence()))

	return analysis, nil
}

// Products returns the showcase catalog
func (s *Service) Products() []models.Product {
	return s.catalog.All()
}

func (s *Service) Session(ctx context.Context, userID int64) (*models.Session, error) {
	return s.storage.GetSession(ctx, userID)
}

// SelectProduct moves the user to the analysis page for product i.
func (s *Service) SelectProduct(ctx context.Context, userID int64, i int) (models.Product, error) {
	sess, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return models.Product{}, err
	}
	p, err := session.Select(sess, s.catalog, i)
	if err != nil {
		return models.Product{}, err
	}
	if err := s.storage.SaveSession(ctx, sess); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Back returns the user to the showcase.
func (s *Service) Back(ctx context.Context, userID int64) error {
	sess, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return err
	}
	session.Back(sess)
	return s.storage.SaveSession(ctx, sess)
}

// CurrentProduct returns the product being analyzed. An analysis page
// without a valid selection is reset to the showcase.
func (s *Service) CurrentProduct(ctx context.Context, userID int64) (models.Product, error) {
	sess, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return models.Product{}, err
	}
	wasAnalysis := sess.Page == models.AnalysisPage
	p, err := session.Current(sess, s.catalog)
	if errors.Is(err, session.ErrNoSelection) && wasAnalysis {
		if saveErr := s.storage.SaveSession(ctx, sess); saveErr != nil {
			return models.Product{}, saveErr
		}
	}
	return p, err
}

// AnalyzeSelected analyzes a reason for the user's current product.
func (s *Service) AnalyzeSelected(ctx context.Context, userID int64, reason string) (*models.Analysis, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}
	if _, err := s.CurrentProduct(ctx, userID); err != nil {
		return nil, err
	}
	sess, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, Request{UserID: userID, ProductIndex: sess.Selected, Reason: reason})
}

// History returns the user's most recent analyses, newest first
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*models.Analysis, error) {
	return s.storage.GetUserAnalyses(ctx, userID, limit, 0)
}
