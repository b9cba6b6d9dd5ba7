package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/sentiscribe/internal/sentiment"
)

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorBlue    = lipgloss.Color("#3B82F6")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ListeningDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ScrollBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)
)

// Per-sentiment styles.
var (
	PositiveStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	NegativeStyle = lipgloss.NewStyle().Foreground(ColorRed)
	NeutralStyle  = lipgloss.NewStyle().Foreground(ColorBlue)
)

// SentimentColor returns the display color for a label.
func SentimentColor(l sentiment.Label) lipgloss.Color {
	switch l {
	case sentiment.Positive:
		return ColorGreen
	case sentiment.Negative:
		return ColorRed
	case sentiment.Neutral:
		return ColorBlue
	}
	return ColorGray
}

// SentimentStyle returns the text style for a label. Anything that is not
// a recordable label renders dim.
func SentimentStyle(l sentiment.Label) lipgloss.Style {
	switch l {
	case sentiment.Positive:
		return PositiveStyle
	case sentiment.Negative:
		return NegativeStyle
	case sentiment.Neutral:
		return NeutralStyle
	}
	return DimStyle
}
