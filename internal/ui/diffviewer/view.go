package diffviewer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/diffdeck/internal/session"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
)

// fileListRatio is the share of the width the file list pane takes.
const fileListRatio = 0.28

const (
	fileListMinWidth = 24
	fileListMaxWidth = 48
)

// View renders the full screen: header, body panes, status bar. It also
// records the row index the mouse handler maps selections through.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	m.headerRows = lipgloss.Height(header)

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelpOverlay()
		m.rowIndex = nil
	case m.showLog:
		body = m.renderLogOverlay()
		m.rowIndex = nil
	case m.pickingCommit:
		body = m.renderCommitPicker()
		m.rowIndex = nil
	default:
		body = m.renderBody()
	}

	view := header + "\n" + body
	if m.statusBarVisible() {
		view += "\n" + m.renderStatusBar()
	}
	return m.zones.Scan(view)
}

// statusBarVisible honors the config toggle, except the go-to-file
// prompt lives in the status bar and must stay reachable.
func (m *Model) statusBarVisible() bool {
	return m.cfg.UI.ShowStatusBar || m.locating
}

// bodyRows returns how many terminal rows the diff pane gets.
func (m *Model) bodyRows() int {
	rows := m.height - m.headerRows
	if m.statusBarVisible() {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// renderBody lays out the optional file list next to the diff pane.
func (m *Model) renderBody() string {
	rows := m.bodyRows()
	if !m.showFileList {
		m.listWidth = 0
		return m.renderDiffPane(m.width, rows)
	}

	listWidth := int(float64(m.width) * fileListRatio)
	if listWidth < fileListMinWidth {
		listWidth = fileListMinWidth
	}
	if listWidth > fileListMaxWidth {
		listWidth = fileListMaxWidth
	}
	m.listWidth = listWidth

	list := m.renderFileList(listWidth, rows)
	pane := m.renderDiffPane(m.width-listWidth, rows)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, pane)
}

// renderDiffPane renders the visible slice of the record list. Only
// records intersecting the viewport (plus overscan) are rendered; the
// rest contribute their estimated heights to the scroll geometry.
func (m *Model) renderDiffPane(width, rows int) string {
	per := m.perLine()
	records := m.sess.Records()

	if len(records) == 0 {
		m.rowIndex = nil
		return m.renderEmptyPane(width, rows)
	}

	first, last := m.sess.VisibleRange(m.scrollTop, rows*per)
	if last < first {
		m.rowIndex = nil
		return padRows(nil, rows)
	}

	highlighted := m.sess.HighlightedKey()

	var lines []string
	var refs []rowRef
	for i := first; i <= last; i++ {
		rec := records[i]
		state := m.sess.ViewState(rec.Key)

		var content string
		if state.FullyExpanded && !state.Collapsed {
			content, _ = m.sess.Content(rec.Key)
		}

		rf := renderRecord(m.zones, rec, state, content, renderOptions{
			Width:       width,
			Highlighted: rec.Key == highlighted,
			WordDiff:    m.wordDiff,
			Split:       m.split,
		})
		m.sess.SetMeasuredHeight(rec.Key, rf.rows*per)

		lines = append(lines, strings.Split(rf.content, "\n")...)
		refs = append(refs, rowsFor(rec.Key, rf.lineMeta)...)
	}

	// Cut the rows scrolled above the viewport. Offsets and heights are
	// unit multiples of per once measured, so the division is exact.
	skip := (m.scrollTop - m.sess.OffsetOf(first)) / per
	if skip < 0 {
		skip = 0
	}
	if skip > len(lines) {
		skip = len(lines)
	}
	lines = lines[skip:]
	refs = refs[skip:]

	if len(lines) > rows {
		lines = lines[:rows]
		refs = refs[:rows]
	}
	m.rowIndex = refs

	return padRows(lines, rows)
}

// rowsFor tags each row's metadata with its record key.
func rowsFor(key string, meta []rowMeta) []rowRef {
	refs := make([]rowRef, len(meta))
	for i, rm := range meta {
		refs[i] = rowRef{key: key, meta: rm}
	}
	return refs
}

// padRows joins lines and pads the block to exactly rows lines.
func padRows(lines []string, rows int) string {
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEmptyPane shows the no-changes placeholder, or the load error
// with its recovery guidance.
func (m *Model) renderEmptyPane(width, rows int) string {
	msg := styles.ContextLineStyle.Render("no changes")
	if m.sess.Loading() {
		msg = m.spinner.View() + " loading diff..."
	}
	if m.err != nil {
		var verr ViewerError
		if errors.As(m.err, &verr) {
			msg = styles.ErrorStyle.Render(
				verr.Category.String() + ": " + verr.Message + "\n" +
					styles.ContextLineStyle.Render(verr.HelpText))
		} else {
			msg = styles.ErrorStyle.Render(fmt.Sprintf("load failed: %v", m.err))
		}
	}
	return lipgloss.Place(width, rows, lipgloss.Center, lipgloss.Center, msg)
}

// renderCommitPicker draws the commit history list.
func (m *Model) renderCommitPicker() string {
	rows := m.bodyRows()

	var b strings.Builder
	b.WriteString(styles.FileHeaderStyle.Render("pick a commit") + "\n")

	visible := rows - 1
	start := 0
	if m.commitIndex >= visible {
		start = m.commitIndex - visible + 1
	}
	for i := start; i < len(m.commits) && i-start < visible; i++ {
		commit := m.commits[i]
		line := fmt.Sprintf("%s  %s", commit.ShortHash, commit.Subject)
		if i == m.commitIndex {
			line = styles.FileListSelectedStyle.Render("> " + line)
		} else {
			line = "  " + styles.ContextLineStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	return padRows(strings.Split(strings.TrimRight(b.String(), "\n"), "\n"), rows)
}

// renderLogOverlay tails the debug log inside the app.
func (m *Model) renderLogOverlay() string {
	rows := m.bodyRows()

	if m.logListener == nil {
		msg := styles.ContextLineStyle.Render("logging is off; run with --debug or DIFFDECK_DEBUG=1")
		return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, msg)
	}

	lines := m.logLines
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ansi.Truncate(line, m.width, "…")
	}
	return padRows(out, rows)
}

// renderHelpOverlay shows the full keymap.
func (m *Model) renderHelpOverlay() string {
	m.help.ShowAll = true
	view := m.help.View(m.keys)
	m.help.ShowAll = false
	return lipgloss.Place(m.width, m.bodyRows(), lipgloss.Center, lipgloss.Center, view)
}

// renderStatusBar draws the footer: stats or prompt, snippet preview,
// compact help.
func (m *Model) renderStatusBar() string {
	if m.locating {
		return styles.StatusBarStyle.Render(m.locateInput.View())
	}

	stats := m.sess.Stats()
	left := fmt.Sprintf("%d files  %s %s",
		stats.FileCount,
		styles.StatsAddStyle.Render(fmt.Sprintf("+%d", stats.Additions)),
		styles.StatsDelStyle.Render(fmt.Sprintf("-%d", stats.Deletions)))
	if stats.Loading {
		left = m.spinner.View() + " " + left
	}
	if m.copiedLines > 0 {
		left += styles.StatusBarStyle.Render(fmt.Sprintf("  copied %d lines", m.copiedLines))
	}
	if m.lastSnippet != nil {
		preview := m.lastSnippet.Preview(snippetPreviewMax)
		left += styles.StatusBarStyle.Render(fmt.Sprintf("  [%s:%d-%d] %s",
			m.lastSnippet.FilePath, m.lastSnippet.StartLine, m.lastSnippet.EndLine, preview))
	}

	right := m.help.ShortHelpView(m.keys.ShortHelp())

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		return left
	}
	return left + strings.Repeat(" ", pad) + right
}

// modeLabel names the current mode for the header.
func modeLabel(mode session.Mode) string {
	switch mode.Kind {
	case session.ModeCommit:
		return "commit"
	case session.ModeFull:
		return "full branch diff"
	default:
		return "uncommitted changes"
	}
}
