package storage

import (
	"context"

	"github.com/xaenox/return-analyzer/internal/models"
)

// Storage persists per-user navigation sessions and analysis history.
// GetSession returns a fresh showcase session for unknown users.
type Storage interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetUserAnalyses(ctx context.Context, userID int64, limit, offset int) ([]*models.Analysis, error)
	Close() error
}
