// Package report renders analysis results as plain text.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/return-analyzer/internal/models"
)

const barWidth = 20

// Sorted returns the probabilities ordered from most to least likely.
// Equal probabilities keep the classifier's order.
func Sorted(probs []models.LabelProbability) []models.LabelProbability {
	out := make([]models.LabelProbability, len(probs))
	copy(out, probs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

// Chart draws a horizontal bar per label on a 0..1 scale.
func Chart(probs []models.LabelProbability) string {
	sorted := Sorted(probs)
	width := 0
	for _, lp := range sorted {
		if n := utf8.RuneCountInString(lp.Label); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, lp := range sorted {
		cells := int(math.Round(lp.Probability * barWidth))
		if cells > barWidth {
			cells = barWidth
		}
		if cells < 0 {
			cells = 0
		}
		pad := width - utf8.RuneCountInString(lp.Label)
		fmt.Fprintf(&b, "%s%s %s%s %5.1f%%\n",
			lp.Label, strings.Repeat(" ", pad),
			strings.Repeat("█", cells), strings.Repeat("░", barWidth-cells),
			lp.Probability*100)
	}
	return b.String()
}

// Text renders a full analysis for terminals.
func Text(a *models.Analysis) string {
	var b strings.Builder
	if a.Product != nil {
		fmt.Fprintf(&b, "Selected Product: %s (%s)\n", a.Product.Name, a.Product.Price)
	}
	fmt.Fprintf(&b, "Predicted Return Category: %s\n\n", a.Prediction.Label)
	b.WriteString("Confidence Levels\n")
	b.WriteString(Chart(a.Prediction.Probabilities))
	b.WriteString("\nRecommended Resolution\n")
	fmt.Fprintf(&b, "%s [%s]\n", a.Resolution.Action, a.Resolution.Color)
	if a.Review != nil {
		fmt.Fprintf(&b, "\nAssistant suggests: %s. %s\n", a.Review.Label, a.Review.Summary)
	}
	return b.String()
}
