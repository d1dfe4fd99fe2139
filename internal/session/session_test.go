package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/models"
)

func TestInitialState(t *testing.T) {
	s := models.NewSession(42)
	assert.Equal(t, models.ShowcasePage, s.Page)
	assert.Nil(t, s.Selected)
}

func TestSelectBackSelect(t *testing.T) {
	c := catalog.Default()
	s := models.NewSession(1)

	_, err := Select(s, c, 2)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisPage, s.Page)

	Back(s)
	assert.Equal(t, models.ShowcasePage, s.Page)
	require.NotNil(t, s.Selected)
	assert.Equal(t, 2, *s.Selected, "selection survives back")

	_, err = Select(s, c, 0)
	require.NoError(t, err)

	got, err := Current(s, c)
	require.NoError(t, err)
	want, _ := c.Get(0)
	assert.Equal(t, want, got)
}

func TestSelect_UnknownProduct(t *testing.T) {
	c := catalog.Default()
	s := models.NewSession(1)

	_, err := Select(s, c, 9)
	assert.ErrorIs(t, err, catalog.ErrUnknownProduct)
	assert.Equal(t, models.ShowcasePage, s.Page)
	assert.Nil(t, s.Selected)
}

func TestCurrent_AnalysisWithoutSelection(t *testing.T) {
	c := catalog.Default()
	s := models.NewSession(1)
	s.Page = models.AnalysisPage

	_, err := Current(s, c)
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, models.ShowcasePage, s.Page)
}

func TestCurrent_StaleIndex(t *testing.T) {
	c := catalog.Default()
	s := models.NewSession(1)
	idx := 17
	s.Selected = &idx
	s.Page = models.AnalysisPage

	_, err := Current(s, c)
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, models.ShowcasePage, s.Page)
}

func TestCurrent_OnShowcase(t *testing.T) {
	c := catalog.Default()
	s := models.NewSession(1)
	_, err := Select(s, c, 1)
	require.NoError(t, err)
	Back(s)

	_, err = Current(s, c)
	assert.ErrorIs(t, err, ErrNoSelection)
}
