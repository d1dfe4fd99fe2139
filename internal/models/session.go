package models

import "time"

type Page string

const (
	ShowcasePage Page = "showcase"
	AnalysisPage Page = "analysis"
)

// Session is the per-user navigation state.
// Selected is a catalog index and survives going back to the showcase.
type Session struct {
	UserID    int64     `json:"user_id"`
	Page      Page      `json:"page"`
	Selected  *int      `json:"selected,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns the initial state for a user
func NewSession(userID int64) *Session {
	return &Session{
		UserID:    userID,
		Page:      ShowcasePage,
		UpdatedAt: time.Now(),
	}
}
