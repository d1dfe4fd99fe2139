package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/return-analyzer/internal/models"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[int64]models.Session
	analyses map[int64][]*models.Analysis
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[int64]models.Session),
		analyses: make(map[int64][]*models.Analysis),
	}
}

func (s *MemoryStorage) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, exists := s.sessions[userID]; exists {
		return copySession(session), nil
	}
	return models.NewSession(userID), nil
}

func (s *MemoryStorage) SaveSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = *copySession(*session)
	return nil
}

func (s *MemoryStorage) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := *analysis
	s.analyses[analysis.UserID] = append(s.analyses[analysis.UserID], &a)
	return nil
}

// GetUserAnalyses returns the newest analyses first
func (s *MemoryStorage) GetUserAnalyses(ctx context.Context, userID int64, limit, offset int) ([]*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Analysis, len(s.analyses[userID]))
	copy(all, s.analyses[userID])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.Analysis{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	result := make([]*models.Analysis, len(all))
	for i, a := range all {
		cp := *a
		result[i] = &cp
	}
	return result, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func copySession(session models.Session) *models.Session {
	if session.Selected != nil {
		idx := *session.Selected
		session.Selected = &idx
	}
	return &session
}
