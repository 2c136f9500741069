package diffviewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
)

// renderHeader draws the top banner: the viewing mode, and for commit
// mode the commit's subject, author line, and rendered message body.
func (m *Model) renderHeader() string {
	mode := m.sess.Mode()

	title := styles.FileHeaderStyle.Render("diffdeck")
	label := styles.StatusBarStyle.Render(modeLabel(mode))
	line := title + " " + label

	if m.activeCommit == nil {
		return line
	}

	commit := m.activeCommit
	subject := wordwrap.String(commit.Subject, m.width-2)
	author := styles.ContextLineStyle.Render(fmt.Sprintf("%s  %s  %s",
		commit.ShortHash, commit.Author, commit.Date.Format("2006-01-02 15:04")))

	parts := []string{line, styles.FileHeaderStyle.Render(subject), author}

	if body := m.renderCommitBody(commit.Body); body != "" {
		parts = append(parts, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderCommitBody renders the commit message body as markdown,
// degrading to plain wrapped text when rendering fails.
func (m *Model) renderCommitBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	if m.md != nil {
		out, err := m.md.RenderCommitBody(body)
		if err == nil {
			return out
		}
		log.Debug(log.CatUI, "commit body render failed", "error", err.Error())
	}
	return styles.ContextLineStyle.Render(wordwrap.String(body, m.width-2))
}
