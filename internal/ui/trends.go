package ui

import (
	"fmt"
	"strings"

	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
)

const labelWidth = 9 // len("Negative") + 1

// RenderTrends draws one bar per label in fixed Positive, Negative, Neutral
// order. Bars are scaled so the largest count fills the available width.
func RenderTrends(counts ledger.Counts, width int) string {
	largest := 0
	for _, l := range sentiment.Labels {
		largest = max(largest, counts[l])
	}
	countWidth := len(fmt.Sprint(largest)) + 1
	barWidth := max(1, width-labelWidth-countWidth)

	lines := make([]string, 0, len(sentiment.Labels)+1)
	lines = append(lines, PanelTitleStyle.Render("SENTIMENT TRENDS")+
		DimStyle.Render(fmt.Sprintf(" (%d)", counts.Total())))

	for _, l := range sentiment.Labels {
		n := counts[l]
		filled := 0
		if largest > 0 {
			filled = n * barWidth / largest
		}
		if n > 0 && filled == 0 {
			filled = 1
		}

		style := SentimentStyle(l)
		bar := style.Render(strings.Repeat("█", filled)) +
			DimStyle.Render(strings.Repeat("░", barWidth-filled))
		lines = append(lines, fmt.Sprintf("%-*s%s %d", labelWidth, string(l), bar, n))
	}
	return strings.Join(lines, "\n")
}
