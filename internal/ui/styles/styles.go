// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#BBBBBB"} // Paths, secondary info
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Hints, help text, footers

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused borders
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focused pane border

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Success states
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"} // Warnings
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Errors

	// Diff line colors
	DiffAddedColor      = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	DiffRemovedColor    = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	DiffContextColor    = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	DiffHunkHeaderColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	// Word-diff emphasis uses backgrounds so changed tokens stand out
	// inside already colored lines.
	DiffWordAddedBg   = lipgloss.AdaptiveColor{Light: "#C9F7D5", Dark: "#1F4428"}
	DiffWordRemovedBg = lipgloss.AdaptiveColor{Light: "#FAD4D4", Dark: "#542426"}

	// File status colors
	FileAddedColor     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	FileDeletedColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	FileRenamedColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	FileUntrackedColor = lipgloss.AdaptiveColor{Light: "#FE640B", Dark: "#FAB387"}
	FileBinaryColor    = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
	FileInvalidColor   = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	// Focus highlight (transient, applied after go-to-file)
	FocusHighlightBg = lipgloss.AdaptiveColor{Light: "#FFF3BF", Dark: "#3D3A1F"}

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}

	// Diff line styles
	AddedLineStyle      = lipgloss.NewStyle().Foreground(DiffAddedColor)
	RemovedLineStyle    = lipgloss.NewStyle().Foreground(DiffRemovedColor)
	ContextLineStyle    = lipgloss.NewStyle().Foreground(DiffContextColor)
	HunkHeaderStyle     = lipgloss.NewStyle().Foreground(DiffHunkHeaderColor).Bold(true)
	WordAddedStyle      = lipgloss.NewStyle().Foreground(DiffAddedColor).Background(DiffWordAddedBg)
	WordRemovedStyle    = lipgloss.NewStyle().Foreground(DiffRemovedColor).Background(DiffWordRemovedBg)
	LineNumberStyle     = lipgloss.NewStyle().Foreground(TextMutedColor)
	FocusHighlightStyle = lipgloss.NewStyle().Background(FocusHighlightBg).Bold(true)

	// File section styles
	FileHeaderStyle = lipgloss.NewStyle().
			Foreground(TextPrimaryColor).
			Bold(true)
	CollapsedHeaderStyle = lipgloss.NewStyle().
				Foreground(TextSecondaryColor)
	StatsAddStyle = lipgloss.NewStyle().Foreground(DiffAddedColor)
	StatsDelStyle = lipgloss.NewStyle().Foreground(DiffRemovedColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	// File list pane
	FileListStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(BorderDefaultColor)
	FileListSelectedStyle = lipgloss.NewStyle().
				Foreground(TextPrimaryColor).
				Bold(true)
	FileListPinnedStyle = lipgloss.NewStyle().
				Foreground(StatusWarningColor)
)

// ApplyTheme applies custom theme colors from configuration.
// Empty strings are ignored, keeping the default values.
func ApplyTheme(muted, errorColor, success string) {
	if muted != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		BorderDefaultColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
	}
}
