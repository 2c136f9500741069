package diffviewer

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/diffdeck/internal/config"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/prefs"
	"github.com/zjrosen/diffdeck/internal/session"
)

// commitHistoryLimit caps how many commits the picker loads.
const commitHistoryLimit = 50

// loadDoneMsg reports the outcome of a diff load or mode switch.
type loadDoneMsg struct {
	err error
}

// prefetchDoneMsg reports that a content prefetch pass finished.
type prefetchDoneMsg struct{}

// watchFiredMsg signals that the worktree changed on disk.
type watchFiredMsg struct{}

// commitsLoadedMsg carries commit history for the commit picker.
type commitsLoadedMsg struct {
	commits []git.CommitInfo
	err     error
}

// pinsLoadedMsg carries the persisted pinned paths.
type pinsLoadedMsg struct {
	paths []string
	err   error
}

// snippetCopiedMsg reports the outcome of a clipboard copy.
type snippetCopiedMsg struct {
	lines int
	err   error
}

// loadCmd reloads the diff for the session's current mode.
func loadCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: sess.Load(ctx)}
	}
}

// switchModeCmd changes the viewing mode and reloads.
func switchModeCmd(ctx context.Context, sess *session.Session, mode session.Mode) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: sess.SwitchMode(ctx, mode)}
	}
}

// prefetchCmd warms the content cache for the current record set.
func prefetchCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		sess.PrefetchContents(ctx)
		return prefetchDoneMsg{}
	}
}

// watchCmd waits for the next debounced worktree change.
func watchCmd(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return watchFiredMsg{}
		}
	}
}

// loadCommitsCmd fetches recent commit history for the picker.
func loadCommitsCmd(ctx context.Context, source git.Source) tea.Cmd {
	return func() tea.Msg {
		commits, err := source.CommitLog(ctx, commitHistoryLimit)
		return commitsLoadedMsg{commits: commits, err: err}
	}
}

// loadPinsCmd fetches the pinned file paths from the preference store.
func loadPinsCmd(ctx context.Context, store *prefs.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		paths, err := store.Pinned(ctx)
		return pinsLoadedMsg{paths: paths, err: err}
	}
}

// togglePinCmd pins or unpins a path, then reloads the pin set.
func togglePinCmd(ctx context.Context, store *prefs.Store, path string, pinned bool) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		var err error
		if pinned {
			err = store.Unpin(ctx, path)
		} else {
			err = store.Pin(ctx, path)
		}
		if err != nil {
			return pinsLoadedMsg{err: err}
		}
		paths, err := store.Pinned(ctx)
		return pinsLoadedMsg{paths: paths, err: err}
	}
}

// saveUIPrefCmd persists one UI preference to the preference store and
// writes it back to the config file when one is in use. Failures are
// silent; a preference that does not stick is not worth interrupting
// the user.
func saveUIPrefCmd(ctx context.Context, store *prefs.Store, configPath, key, value string) tea.Cmd {
	if store == nil && configPath == "" {
		return nil
	}
	return func() tea.Msg {
		if store != nil {
			_ = store.Set(ctx, key, value)
		}
		if configPath != "" {
			_ = config.SaveUISetting(configPath, key, value)
		}
		return nil
	}
}

// copySnippetCmd writes a snippet to the system clipboard.
func copySnippetCmd(snip *session.Snippet) tea.Cmd {
	return func() tea.Msg {
		if snip == nil {
			return snippetCopiedMsg{}
		}
		err := clipboard.WriteAll(snip.Content)
		return snippetCopiedMsg{lines: strings.Count(snip.Content, "\n") + 1, err: err}
	}
}
