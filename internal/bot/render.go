package bot

import (
	"fmt"
	"strings"

	"github.com/xaenox/return-analyzer/internal/models"
	"github.com/xaenox/return-analyzer/internal/report"
)

// Telegram cannot color text, so resolution colors are shown as markers
var colorMarkers = map[string]string{
	"#FFA500": "🟠",
	"#FF3333": "🔴",
	"#AA66CC": "🟣",
	"#33B5E5": "🔵",
	"#FFBB33": "🟡",
	"#00C851": "🟢",
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func colorMarker(color string) string {
	if m, ok := colorMarkers[color]; ok {
		return m
	}
	return "⚪"
}

func renderProductCaption(p models.Product) string {
	return fmt.Sprintf("*%s*\n%s", escapeMarkdown(p.Name), escapeMarkdown(p.Price))
}

func renderAnalysisPrompt(p models.Product) string {
	var b strings.Builder
	b.WriteString("*📝 Return Reason Analysis*\n\n")
	fmt.Fprintf(&b, "Selected Product: *%s*\n", escapeMarkdown(p.Name))
	fmt.Fprintf(&b, "Original Price: %s\n\n", escapeMarkdown(p.Price))
	b.WriteString(escapeMarkdown("Please describe why you're returning this product (example: The product arrived damaged...)"))
	return b.String()
}

func renderAnalysis(a *models.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Predicted Return Category:* %s\n\n", escapeMarkdown(a.Prediction.Label))
	b.WriteString("*Confidence Levels*\n```\n")
	b.WriteString(report.Chart(a.Prediction.Probabilities))
	b.WriteString("```\n")
	b.WriteString("*Recommended Resolution*\n")
	fmt.Fprintf(&b, "%s %s", colorMarker(a.Resolution.Color), escapeMarkdown(a.Resolution.Action))
	if a.Review != nil {
		fmt.Fprintf(&b, "\n\n_%s_", escapeMarkdown(fmt.Sprintf("Assistant suggests: %s. %s", a.Review.Label, a.Review.Summary)))
	}
	return b.String()
}

func renderHistory(analyses []*models.Analysis) string {
	var b strings.Builder
	b.WriteString("*Your recent returns:*\n\n")
	for _, a := range analyses {
		fmt.Fprintf(&b, "%s *%s*\n", colorMarker(a.Resolution.Color), escapeMarkdown(a.Prediction.Label))
		if a.Product != nil {
			fmt.Fprintf(&b, "%s\n", escapeMarkdown(a.Product.Name))
		}
		fmt.Fprintf(&b, "_%s_\n\n", escapeMarkdown(a.Reason))
	}
	return b.String()
}
