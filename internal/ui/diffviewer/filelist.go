package diffviewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/diffdeck/internal/diff"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
)

// renderFileList draws the sidebar: pinned files first, then the rest
// in record order, each with its change counts.
func (m *Model) renderFileList(width, rows int) string {
	records := m.sess.Records()
	ordered := m.orderPinnedFirst(records)

	inner := width - 2 // border columns
	var lines []string
	for _, entry := range ordered {
		marker := " "
		if m.pinned[entry.rec.DisplayPath()] {
			marker = styles.FileListPinnedStyle.Render("*")
		}

		name := entry.rec.DisplayPath()
		counts := fmt.Sprintf(" +%d -%d", entry.rec.Additions, entry.rec.Deletions)
		avail := inner - 2 - len(counts)
		if avail > 0 {
			name = ansi.Truncate(name, avail, "…")
		}

		line := marker + " " + name + styles.ContextLineStyle.Render(counts)
		if entry.index == m.selected {
			line = styles.FileListSelectedStyle.Render(marker + " " + name + counts)
		}
		lines = append(lines, line)
		if len(lines) >= rows-2 {
			break
		}
	}

	body := strings.Join(lines, "\n")
	return styles.FileListStyle.Width(inner).Height(rows - 2).Render(body)
}

type listEntry struct {
	rec   diff.FileRecord
	index int
}

// orderPinnedFirst sorts pinned records ahead of the rest, keeping
// record order within each group.
func (m *Model) orderPinnedFirst(records []diff.FileRecord) []listEntry {
	entries := make([]listEntry, 0, len(records))
	for i, rec := range records {
		if m.pinned[rec.DisplayPath()] {
			entries = append(entries, listEntry{rec: rec, index: i})
		}
	}
	for i, rec := range records {
		if !m.pinned[rec.DisplayPath()] {
			entries = append(entries, listEntry{rec: rec, index: i})
		}
	}
	return entries
}
