// Package styles contains Lip Gloss style definitions.
package styles

// ColorToken represents a named, themeable color.
type ColorToken string

// Color tokens organized by category.
// These are the keys users can override in their config.
const (
	// Text hierarchy
	TokenTextPrimary   ColorToken = "text.primary"
	TokenTextSecondary ColorToken = "text.secondary"
	TokenTextMuted     ColorToken = "text.muted"

	// Borders
	TokenBorderDefault ColorToken = "border.default"
	TokenBorderFocus   ColorToken = "border.focus"

	// Status indicators
	TokenStatusSuccess ColorToken = "status.success"
	TokenStatusWarning ColorToken = "status.warning"
	TokenStatusError   ColorToken = "status.error"

	// Diff lines
	TokenDiffAdded      ColorToken = "diff.added"
	TokenDiffRemoved    ColorToken = "diff.removed"
	TokenDiffContext    ColorToken = "diff.context"
	TokenDiffHunkHeader ColorToken = "diff.hunk_header"
	TokenDiffWordAdded  ColorToken = "diff.word_added"
	TokenDiffWordRemove ColorToken = "diff.word_removed"

	// File headers
	TokenFileAdded     ColorToken = "file.added"
	TokenFileDeleted   ColorToken = "file.deleted"
	TokenFileRenamed   ColorToken = "file.renamed"
	TokenFileUntracked ColorToken = "file.untracked"
	TokenFileBinary    ColorToken = "file.binary"
	TokenFileInvalid   ColorToken = "file.invalid"

	// Focus highlight
	TokenFocusHighlight ColorToken = "focus.highlight"

	// Misc
	TokenSpinner ColorToken = "spinner"
)

// AllTokens returns all valid color tokens for validation.
func AllTokens() []ColorToken {
	return []ColorToken{
		TokenTextPrimary,
		TokenTextSecondary,
		TokenTextMuted,

		TokenBorderDefault,
		TokenBorderFocus,

		TokenStatusSuccess,
		TokenStatusWarning,
		TokenStatusError,

		TokenDiffAdded,
		TokenDiffRemoved,
		TokenDiffContext,
		TokenDiffHunkHeader,
		TokenDiffWordAdded,
		TokenDiffWordRemove,

		TokenFileAdded,
		TokenFileDeleted,
		TokenFileRenamed,
		TokenFileUntracked,
		TokenFileBinary,
		TokenFileInvalid,

		TokenFocusHighlight,

		TokenSpinner,
	}
}
