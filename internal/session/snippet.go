package session

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// Snippet is a code excerpt lifted out of a rendered diff, carrying
// enough metadata to be quoted elsewhere (a prompt, a message, a
// clipboard).
type Snippet struct {
	ID        string
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
	Language  string
}

// SelectedLine is one line of a selection as reported by the renderer.
// NewLine/OldLine are the line numbers from the diff gutter; zero means
// the renderer had no number for that side.
type SelectedLine struct {
	Content string
	NewLine int
	OldLine int
}

// ExtractSnippet builds a Snippet from a selection. Line numbers come
// from the renderer's per-line metadata when present; a selection with
// no usable numbers degrades to StartLine 1 through the line count.
// An empty selection yields nil, never an error.
func ExtractSnippet(path string, lines []SelectedLine) *Snippet {
	if len(lines) == 0 {
		return nil
	}

	contents := make([]string, 0, len(lines))
	for _, line := range lines {
		contents = append(contents, line.Content)
	}
	content := strings.Join(contents, "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}

	start, end := lineRange(lines)

	return &Snippet{
		ID:        uuid.NewString(),
		FilePath:  path,
		StartLine: start,
		EndLine:   end,
		Content:   content,
		Language:  LanguageForPath(path),
	}
}

// lineRange finds the span of known line numbers, preferring the new
// side of the diff over the old.
func lineRange(lines []SelectedLine) (start, end int) {
	for _, line := range lines {
		n := line.NewLine
		if n == 0 {
			n = line.OldLine
		}
		if n == 0 {
			continue
		}
		if start == 0 || n < start {
			start = n
		}
		if n > end {
			end = n
		}
	}
	if start == 0 {
		return 1, len(lines)
	}
	return start, end
}

// Preview returns the first line of the snippet truncated to at most
// max grapheme clusters, with an ellipsis when anything was cut.
func (s *Snippet) Preview(max int) string {
	first := s.Content
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if max <= 0 || uniseg.GraphemeClusterCount(first) <= max {
		return first
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(first)
	for i := 0; i < max-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString("…")
	return b.String()
}

// languageByExtension maps file extensions to markdown fence language
// identifiers.
var languageByExtension = map[string]string{
	".go":    "go",
	".py":    "python",
	".rb":    "ruby",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".java":  "java",
	".kt":    "kotlin",
	".swift": "swift",
	".cs":    "csharp",
	".php":   "php",
	".sh":    "bash",
	".bash":  "bash",
	".zsh":   "bash",
	".fish":  "fish",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".md":    "markdown",
	".proto": "protobuf",
	".tf":    "hcl",
	".lua":   "lua",
	".vim":   "vim",
	".ex":    "elixir",
	".exs":   "elixir",
	".erl":   "erlang",
	".hs":    "haskell",
	".scala": "scala",
	".clj":   "clojure",
	".zig":   "zig",
	".dart":  "dart",
	".r":     "r",
	".pl":    "perl",
}

// specialFiles maps extensionless filenames to languages.
var specialFiles = map[string]string{
	"Dockerfile": "dockerfile",
	"Makefile":   "makefile",
	"Rakefile":   "ruby",
	"Gemfile":    "ruby",
}

// LanguageForPath infers a language identifier from a file path.
// Unknown extensions report "text".
func LanguageForPath(path string) string {
	base := filepath.Base(path)
	if lang, ok := specialFiles[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return "text"
}
