// Package session implements the showcase/analysis navigation state machine.
package session

import (
	"errors"
	"time"

	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/models"
)

// ErrNoSelection is returned when the analysis page is reached without a
// valid product selection. The state is reset to the showcase.
var ErrNoSelection = errors.New("no product selected")

// Select moves the session to the analysis page for product i.
func Select(s *models.Session, c *catalog.Catalog, i int) (models.Product, error) {
	p, err := c.Get(i)
	if err != nil {
		return models.Product{}, err
	}
	idx := i
	s.Selected = &idx
	s.Page = models.AnalysisPage
	s.UpdatedAt = time.Now()
	return p, nil
}

// Back returns to the showcase. The selection is kept until the next Select.
func Back(s *models.Session) {
	s.Page = models.ShowcasePage
	s.UpdatedAt = time.Now()
}

// Current returns the selected product while on the analysis page.
func Current(s *models.Session, c *catalog.Catalog) (models.Product, error) {
	if s.Page != models.AnalysisPage {
		return models.Product{}, ErrNoSelection
	}
	if s.Selected == nil {
		Back(s)
		return models.Product{}, ErrNoSelection
	}
	p, err := c.Get(*s.Selected)
	if err != nil {
		Back(s)
		return models.Product{}, ErrNoSelection
	}
	return p, nil
}
