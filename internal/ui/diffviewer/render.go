package diffviewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/diffdeck/internal/diff"
	"github.com/zjrosen/diffdeck/internal/session"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
)

// lineNumberWidth is the width reserved for one gutter column.
const lineNumberWidth = 4

// Collapse indicators on file headers.
const (
	expandedIcon  = "▼"
	collapsedIcon = "▶"
)

// renderedFile is one file section ready for composition: its styled
// text, its height in rows, and per-row selection metadata.
type renderedFile struct {
	content string
	rows    int
	// lineMeta has one entry per rendered row; non-selectable rows
	// (headers, hunk markers) have Selectable false.
	lineMeta []rowMeta
}

type rowMeta struct {
	Selectable bool
	Line       session.SelectedLine
}

// renderOptions selects how one file section is rendered.
type renderOptions struct {
	Width       int
	Highlighted bool
	WordDiff    bool
	Split       bool // side-by-side layout for changed hunks
}

// renderRecord renders one file section according to its view state.
// fullContent is the prefetched file content, used only when the state
// asks for the full file; empty means not cached yet.
func renderRecord(z *zone.Manager, rec diff.FileRecord, state session.ViewState, fullContent string, opts renderOptions) renderedFile {
	width, highlighted, wordDiff := opts.Width, opts.Highlighted, opts.WordDiff
	header := renderFileHeader(z, rec, state, width, highlighted)

	if state.Collapsed {
		return renderedFile{content: header, rows: 1, lineMeta: []rowMeta{{}}}
	}

	var body []string
	var meta []rowMeta
	meta = append(meta, rowMeta{}) // the header row

	switch rec.FileStatus() {
	case diff.StatusInvalid:
		warning := styles.ErrorStyle.Render("cannot display: diff for this file is malformed or truncated")
		body = append(body, warning)
		meta = appendFiller(meta, warning)
	case diff.StatusBinary:
		note := styles.ContextLineStyle.Render("  binary file not shown")
		body = append(body, note)
		meta = append(meta, rowMeta{})
	default:
		switch {
		case state.FullyExpanded && fullContent != "":
			body, meta = renderFullFile(rec, fullContent, meta)
		case opts.Split:
			body, meta = renderHunksSplit(rec, meta, width)
		default:
			body, meta = renderHunks(rec, meta, wordDiff)
		}
	}

	content := header
	if len(body) > 0 {
		content += "\n" + strings.Join(body, "\n")
	}
	return renderedFile{content: content, rows: len(meta), lineMeta: meta}
}

// appendFiller pads metadata for a styled block that may span several
// rows.
func appendFiller(meta []rowMeta, block string) []rowMeta {
	for i := 0; i < lipgloss.Height(block); i++ {
		meta = append(meta, rowMeta{})
	}
	return meta
}

// renderFileHeader renders the one-line file banner: collapse icon,
// status-colored path, and the +N -M stat pair. The whole line is a
// mouse zone toggling collapse.
func renderFileHeader(z *zone.Manager, rec diff.FileRecord, state session.ViewState, width int, highlighted bool) string {
	icon := expandedIcon
	headerStyle := styles.FileHeaderStyle
	if state.Collapsed {
		icon = collapsedIcon
		headerStyle = styles.CollapsedHeaderStyle
	}
	if highlighted {
		headerStyle = styles.FocusHighlightStyle
	}

	path := rec.DisplayPath()
	if rec.Renamed {
		path = fmt.Sprintf("%s → %s", rec.OldPath, rec.NewPath)
	}

	badge := statusBadge(rec)
	stats := formatStats(rec)

	// icon + space + path + space + badge, stats right-aligned.
	left := fmt.Sprintf("%s %s", icon, headerStyle.Render(path))
	if badge != "" {
		left += " " + badge
	}

	pad := width - lipgloss.Width(left) - lipgloss.Width(stats)
	if pad < 1 {
		left = ansi.Truncate(left, max(width-lipgloss.Width(stats)-1, 1), "…")
		pad = max(width-lipgloss.Width(left)-lipgloss.Width(stats), 1)
	}

	line := left + strings.Repeat(" ", pad) + stats
	if z != nil {
		line = z.Mark("file:"+rec.Key, line)
	}
	return line
}

// statusBadge renders the short colored status marker after the path.
func statusBadge(rec diff.FileRecord) string {
	status := rec.FileStatus()
	var style lipgloss.Style
	switch status {
	case diff.StatusAdded:
		style = lipgloss.NewStyle().Foreground(styles.FileAddedColor)
	case diff.StatusDeleted:
		style = lipgloss.NewStyle().Foreground(styles.FileDeletedColor)
	case diff.StatusRenamed:
		style = lipgloss.NewStyle().Foreground(styles.FileRenamedColor)
	case diff.StatusUntracked:
		style = lipgloss.NewStyle().Foreground(styles.FileUntrackedColor)
	case diff.StatusBinary:
		style = lipgloss.NewStyle().Foreground(styles.FileBinaryColor)
	case diff.StatusInvalid:
		style = lipgloss.NewStyle().Foreground(styles.FileInvalidColor)
	default:
		return ""
	}
	return style.Render("(" + status.String() + ")")
}

// formatStats renders the "+N -M" pair for a record.
func formatStats(rec diff.FileRecord) string {
	if rec.Binary {
		return styles.ContextLineStyle.Render("bin")
	}
	return styles.StatsAddStyle.Render(fmt.Sprintf("+%d", rec.Additions)) +
		" " +
		styles.StatsDelStyle.Render(fmt.Sprintf("-%d", rec.Deletions))
}

// renderHunks renders the changes-only view: hunk headers and their
// prefixed lines with a two-column line number gutter.
func renderHunks(rec diff.FileRecord, meta []rowMeta, wordDiff bool) ([]string, []rowMeta) {
	var wd fileWordDiff
	if wordDiff {
		wd = computeFileWordDiff(rec)
	}

	var body []string
	for hunkIdx, hunk := range rec.Hunks {
		body = append(body, styles.HunkHeaderStyle.Render(hunk.Header))
		meta = append(meta, rowMeta{})

		for lineIdx, line := range hunk.Lines {
			segments := wd.segmentsFor(hunkIdx, lineIdx, line.Kind)
			body = append(body, renderDiffLine(line, segments))
			meta = append(meta, rowMeta{
				Selectable: true,
				Line: session.SelectedLine{
					Content: line.Content,
					OldLine: line.OldNum,
					NewLine: line.NewNum,
				},
			})
		}
	}
	return body, meta
}

// splitRow pairs an old-side and a new-side line for side-by-side
// layout. Either side may be absent.
type splitRow struct {
	old, new   *diff.Line
	hunkHeader string
}

// renderHunksSplit renders hunks side by side: removed lines on the
// left, added lines on the right, context lines mirrored on both.
func renderHunksSplit(rec diff.FileRecord, meta []rowMeta, width int) ([]string, []rowMeta) {
	half := width / 2
	if half < lineNumberWidth+4 {
		half = lineNumberWidth + 4
	}

	var body []string
	for _, hunk := range rec.Hunks {
		for _, row := range alignHunk(hunk) {
			if row.hunkHeader != "" {
				body = append(body, styles.HunkHeaderStyle.Render(row.hunkHeader))
				meta = append(meta, rowMeta{})
				continue
			}

			left := renderHalf(row.old, half, true)
			right := renderHalf(row.new, half, false)
			body = append(body, left+"│"+right)

			m := rowMeta{}
			if line := pick(row.new, row.old); line != nil {
				m = rowMeta{Selectable: true, Line: session.SelectedLine{
					Content: line.Content,
					OldLine: line.OldNum,
					NewLine: line.NewNum,
				}}
			}
			meta = append(meta, m)
		}
	}
	return body, meta
}

func pick(a, b *diff.Line) *diff.Line {
	if a != nil {
		return a
	}
	return b
}

// alignHunk pairs a hunk's lines into split rows: each run of removals
// lines up against the run of additions that follows it.
func alignHunk(hunk diff.Hunk) []splitRow {
	rows := []splitRow{{hunkHeader: hunk.Header}}

	lines := hunk.Lines
	for i := 0; i < len(lines); {
		line := lines[i]
		switch line.Kind {
		case diff.LineContext:
			l := lines[i]
			rows = append(rows, splitRow{old: &l, new: &l})
			i++
		case diff.LineRemoved:
			var removed, added []diff.Line
			for i < len(lines) && lines[i].Kind == diff.LineRemoved {
				removed = append(removed, lines[i])
				i++
			}
			for i < len(lines) && lines[i].Kind == diff.LineAdded {
				added = append(added, lines[i])
				i++
			}
			for j := 0; j < len(removed) || j < len(added); j++ {
				var row splitRow
				if j < len(removed) {
					row.old = &removed[j]
				}
				if j < len(added) {
					row.new = &added[j]
				}
				rows = append(rows, row)
			}
		case diff.LineAdded:
			l := lines[i]
			rows = append(rows, splitRow{new: &l})
			i++
		default:
			i++
		}
	}
	return rows
}

// renderHalf renders one side of a split row, padded or truncated to
// the column width. oldSide selects which gutter number to show.
func renderHalf(line *diff.Line, width int, oldSide bool) string {
	if line == nil {
		return strings.Repeat(" ", width)
	}

	num := line.NewNum
	if oldSide {
		num = line.OldNum
	}

	var lineStyle lipgloss.Style
	switch line.Kind {
	case diff.LineAdded:
		lineStyle = styles.AddedLineStyle
	case diff.LineRemoved:
		lineStyle = styles.RemovedLineStyle
	default:
		lineStyle = styles.ContextLineStyle
	}

	text := ansi.Truncate(lineStyle.Render(line.Content), width-lineNumberWidth-1, "…")
	out := styles.LineNumberStyle.Render(gutterNum(num)) + " " + text
	if pad := width - lipgloss.Width(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// renderDiffLine renders one diff line: gutter, prefix, content with
// optional intraline emphasis.
func renderDiffLine(line diff.Line, segments []segment) string {
	gutter := styles.LineNumberStyle.Render(
		gutterNum(line.OldNum) + " " + gutterNum(line.NewNum))

	var prefix string
	var lineStyle lipgloss.Style
	switch line.Kind {
	case diff.LineAdded:
		prefix, lineStyle = "+", styles.AddedLineStyle
	case diff.LineRemoved:
		prefix, lineStyle = "-", styles.RemovedLineStyle
	default:
		prefix, lineStyle = " ", styles.ContextLineStyle
	}

	content := lineStyle.Render(line.Content)
	if len(segments) > 0 {
		content = renderSegments(segments, lineStyle)
	}

	return gutter + " " + lineStyle.Render(prefix) + content
}

// renderSegments renders intraline word-diff segments, emphasizing the
// changed tokens against the base line style.
func renderSegments(segments []segment, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case segmentAdded:
			b.WriteString(styles.WordAddedStyle.Render(seg.Text))
		case segmentRemoved:
			b.WriteString(styles.WordRemovedStyle.Render(seg.Text))
		default:
			b.WriteString(base.Render(seg.Text))
		}
	}
	return b.String()
}

// renderFullFile renders the whole-file view from prefetched content
// with a single line number gutter.
func renderFullFile(rec diff.FileRecord, content string, meta []rowMeta) ([]string, []rowMeta) {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	// Added line numbers from the diff, so changed lines keep their
	// color in the full view.
	addedLines := map[int]bool{}
	for _, hunk := range rec.Hunks {
		for _, line := range hunk.Lines {
			if line.Kind == diff.LineAdded {
				addedLines[line.NewNum] = true
			}
		}
	}

	body := make([]string, 0, len(lines))
	for i, text := range lines {
		num := i + 1
		gutter := styles.LineNumberStyle.Render(gutterNum(num))
		lineStyle := styles.ContextLineStyle
		if addedLines[num] {
			lineStyle = styles.AddedLineStyle
		}
		body = append(body, gutter+" "+lineStyle.Render(text))
		meta = append(meta, rowMeta{
			Selectable: true,
			Line:       session.SelectedLine{Content: text, NewLine: num},
		})
	}
	return body, meta
}

// gutterNum formats a line number right-aligned in the gutter column.
// Zero (no number for that side) renders as blanks.
func gutterNum(n int) string {
	if n == 0 {
		return strings.Repeat(" ", lineNumberWidth)
	}
	s := fmt.Sprintf("%d", n)
	if pad := lineNumberWidth - runewidth.StringWidth(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
