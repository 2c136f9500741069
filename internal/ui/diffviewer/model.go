// Package diffviewer is the main TUI component: a virtualized,
// scrollable view over the session's diff records with collapse state,
// word-level highlighting, a commit picker, go-to-file, and mouse
// selection that extracts shareable snippets.
package diffviewer

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/diffdeck/internal/config"
	"github.com/zjrosen/diffdeck/internal/diff"
	"github.com/zjrosen/diffdeck/internal/flags"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/keys"
	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/prefs"
	"github.com/zjrosen/diffdeck/internal/pubsub"
	"github.com/zjrosen/diffdeck/internal/session"
	"github.com/zjrosen/diffdeck/internal/ui/markdown"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
)

// scrollStep is how many rows one up/down keypress moves.
const scrollStep = 3

// snippetPreviewMax bounds the status bar snippet preview length, in
// grapheme clusters.
const snippetPreviewMax = 60

// logOverlayMax bounds how many log entries the overlay retains.
const logOverlayMax = 200

// rowRef maps one rendered body row back to the record and line it came
// from, for mouse selection.
type rowRef struct {
	key  string
	meta rowMeta
}

// Options configures the diff viewer model.
type Options struct {
	Session    *session.Session
	Source     git.Source
	Store      *prefs.Store // may be nil, pins and pref persistence disabled
	Config     config.Config
	ConfigPath string          // config file to write UI toggles back to; may be empty
	WatchCh    <-chan struct{} // may be nil, auto-refresh disabled
	Flags      *flags.Registry // may be nil, flag defaults apply
}

// Model is the diff viewer component state. It implements tea.Model
// with pointer receivers: the View pass records layout bookkeeping the
// mouse handler needs on the next Update.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	source  git.Source
	store   *prefs.Store
	cfg     config.Config
	cfgPath string
	flags   *flags.Registry
	keys    keys.KeyMap
	events  <-chan pubsub.Event[session.Update]
	zones   *zone.Manager
	md      *markdown.Renderer
	watchCh <-chan struct{}

	width, height int
	scrollTop     int // in render units
	selected      int // record index

	spinner spinner.Model
	help    help.Model

	split        bool
	wordDiff     bool
	showFileList bool
	showHelp     bool

	// Debug log overlay, fed by the logger's pub/sub fan-out.
	showLog     bool
	logLines    []string
	logListener *log.LogListener

	// Commit picker overlay.
	pickingCommit bool
	commits       []git.CommitInfo
	commitIndex   int
	activeCommit  *git.CommitInfo

	// Go-to-file prompt.
	locating    bool
	locateInput textinput.Model

	// Mouse selection.
	selecting          bool
	selStartY, selEndY int
	lastSnippet        *session.Snippet
	copiedLines        int

	pinned map[string]bool

	// Layout bookkeeping from the last View pass, for mouse mapping.
	headerRows int
	listWidth  int
	rowIndex   []rowRef

	err error
}

// New creates the diff viewer model. ctx bounds every async command the
// model issues and the session event subscription.
func New(ctx context.Context, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	input := textinput.New()
	input.Placeholder = "path or suffix, e.g. handlers/user.go"
	input.Prompt = "go to file: "
	input.CharLimit = 256

	md, err := markdown.New(80)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown renderer init failed", err)
	}

	registry := opts.Flags
	if registry == nil {
		registry = flags.New(nil)
	}

	return &Model{
		ctx:         ctx,
		sess:        opts.Session,
		source:      opts.Source,
		store:       opts.Store,
		cfg:         opts.Config,
		cfgPath:     opts.ConfigPath,
		flags:       registry,
		keys:        keys.DefaultKeyMap(),
		events:      opts.Session.Subscribe(ctx),
		zones:       zone.New(),
		md:          md,
		watchCh:     opts.WatchCh,
		spinner:     sp,
		help:        help.New(),
		split:       opts.Config.UI.DiffStyle == "split",
		wordDiff:    opts.Config.UI.WordDiff,
		logListener: log.NewListener(ctx), // nil unless logging is on
		locateInput: input,
		pinned:      map[string]bool{},
	}
}

// Init starts the session event loop, the initial load, and the
// worktree watcher.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		loadCmd(m.ctx, m.sess),
		m.listen(),
		watchCmd(m.ctx, m.watchCh),
		loadPinsCmd(m.ctx, m.store),
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// listen waits for the next session update. Re-issued after every
// handled event to keep the subscription draining.
func (m *Model) listen() tea.Cmd {
	return pubsub.ListenCmd(m.ctx, m.events)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if md, err := markdown.New(msg.Width - 4); err == nil {
			m.md = md
		}
		m.sess.InvalidateHeights()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case spinner.TickMsg:
		if !m.sess.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pubsub.Event[session.Update]:
		return m, m.handleSessionEvent(msg)

	case pubsub.Event[string]:
		m.appendLogLine(msg.Payload)
		if m.logListener != nil {
			return m, m.logListener.Listen()
		}
		return m, nil

	case loadDoneMsg:
		m.err = classifyError(msg.err)
		if msg.err == nil {
			m.clampScroll()
			return m, tea.Batch(prefetchCmd(m.ctx, m.sess), m.spinner.Tick)
		}
		return m, nil

	case prefetchDoneMsg:
		return m, nil

	case watchFiredMsg:
		cmds := []tea.Cmd{watchCmd(m.ctx, m.watchCh)}
		if m.cfg.AutoRefresh && m.sess.Mode().Kind == session.ModeUncommitted {
			cmds = append(cmds, loadCmd(m.ctx, m.sess), m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case commitsLoadedMsg:
		if msg.err != nil {
			m.err = classifyError(msg.err)
			return m, nil
		}
		m.commits = msg.commits
		m.commitIndex = 0
		m.pickingCommit = true
		return m, nil

	case pinsLoadedMsg:
		if msg.err != nil {
			log.Warn(log.CatUI, "pin load failed", "error", msg.err.Error())
			return m, nil
		}
		m.pinned = map[string]bool{}
		for _, path := range msg.paths {
			m.pinned[path] = true
		}
		return m, nil

	case snippetCopiedMsg:
		if msg.err != nil {
			log.Warn(log.CatUI, "clipboard copy failed", "error", msg.err.Error())
			return m, nil
		}
		m.copiedLines = msg.lines
		return m, nil
	}

	return m, nil
}

// handleSessionEvent reacts to engine-side state changes.
func (m *Model) handleSessionEvent(event pubsub.Event[session.Update]) tea.Cmd {
	cmds := []tea.Cmd{m.listen()}

	switch event.Payload.Kind {
	case session.UpdateRecords:
		if m.selected >= m.sess.Count() {
			m.selected = max(m.sess.Count()-1, 0)
		}
		m.clampScroll()
		cmds = append(cmds, prefetchCmd(m.ctx, m.sess))
	case session.UpdateFocus:
		if req, ok := m.sess.ConsumeFocus(); ok {
			if i, found := m.recordIndex(req.Key); found {
				m.selected = i
				m.scrollTop = m.sess.OffsetOf(i)
				m.clampScroll()
			}
		}
	case session.UpdateLoadFailed:
		m.err = classifyError(event.Payload.Err)
	}
	return tea.Batch(cmds...)
}

// handleKey routes key presses, giving overlays priority over the main
// keymap.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.locating {
		return m.handleLocateKey(msg)
	}
	if m.pickingCommit {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog
	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
		m.showLog = false
		m.err = nil
		m.sess.ClearFocus()

	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-scrollStep * m.perLine())
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(scrollStep * m.perLine())
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.viewportUnits())
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.viewportUnits())
	case key.Matches(msg, m.keys.Top):
		m.scrollTop = 0
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.scrollTop = m.sess.TotalHeight() - m.viewportUnits()
		m.selected = max(m.sess.Count()-1, 0)
		m.clampScroll()
	case key.Matches(msg, m.keys.NextFile):
		m.selectRecord(m.selected + 1)
	case key.Matches(msg, m.keys.PrevFile):
		m.selectRecord(m.selected - 1)

	case key.Matches(msg, m.keys.ToggleCollapse):
		if recKey, ok := m.selectedKey(); ok {
			m.sess.ToggleCollapsed(recKey)
		}
	case key.Matches(msg, m.keys.ToggleFull):
		if recKey, ok := m.selectedKey(); ok {
			m.sess.ToggleFullyExpanded(recKey)
			return prefetchCmd(m.ctx, m.sess)
		}
	case key.Matches(msg, m.keys.CollapseAll):
		m.sess.CollapseAll()
	case key.Matches(msg, m.keys.ExpandAll):
		m.sess.ExpandAll()

	case key.Matches(msg, m.keys.ModeUncommitted):
		m.activeCommit = nil
		return tea.Batch(switchModeCmd(m.ctx, m.sess, session.Uncommitted()), m.spinner.Tick)
	case key.Matches(msg, m.keys.ModeCommit):
		return loadCommitsCmd(m.ctx, m.source)
	case key.Matches(msg, m.keys.ModeFull):
		m.activeCommit = nil
		return tea.Batch(switchModeCmd(m.ctx, m.sess, session.Full()), m.spinner.Tick)

	case key.Matches(msg, m.keys.ToggleSplit):
		if !m.flags.Enabled(flags.FlagSplitView) {
			return nil
		}
		m.split = !m.split
		style := "unified"
		if m.split {
			style = "split"
		}
		return saveUIPrefCmd(m.ctx, m.store, m.cfgPath, prefs.KeyDiffStyle, style)
	case key.Matches(msg, m.keys.ToggleFileList):
		m.showFileList = !m.showFileList

	case key.Matches(msg, m.keys.Refresh):
		return tea.Batch(loadCmd(m.ctx, m.sess), m.spinner.Tick)
	case key.Matches(msg, m.keys.GoToFile):
		m.locating = true
		m.locateInput.SetValue("")
		return m.locateInput.Focus()
	case key.Matches(msg, m.keys.Yank):
		return copySnippetCmd(m.lastSnippet)
	case key.Matches(msg, m.keys.Pin):
		if rec, ok := m.selectedRecord(); ok {
			path := rec.DisplayPath()
			return togglePinCmd(m.ctx, m.store, path, m.pinned[path])
		}
	}

	return nil
}

// handleLocateKey drives the go-to-file prompt.
func (m *Model) handleLocateKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.locating = false
		m.locateInput.Blur()
		m.sess.Locate(m.locateInput.Value())
		return nil
	case "esc":
		m.locating = false
		m.locateInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.locateInput, cmd = m.locateInput.Update(msg)
	return cmd
}

// handlePickerKey drives the commit picker overlay.
func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit):
		m.pickingCommit = false
	case key.Matches(msg, m.keys.Up):
		if m.commitIndex > 0 {
			m.commitIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.commitIndex < len(m.commits)-1 {
			m.commitIndex++
		}
	default:
		if msg.String() == "enter" && len(m.commits) > 0 {
			commit := m.commits[m.commitIndex]
			m.pickingCommit = false
			m.activeCommit = &commit
			return tea.Batch(
				switchModeCmd(m.ctx, m.sess, session.Commit(commit.Hash, commit.Subject)),
				m.spinner.Tick)
		}
	}
	return nil
}

// handleMouse implements wheel scrolling, header click-to-toggle, and
// drag selection.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollBy(-scrollStep * m.perLine())
		return nil
	case tea.MouseButtonWheelDown:
		m.scrollBy(scrollStep * m.perLine())
		return nil
	}

	if msg.Button != tea.MouseButtonLeft {
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		for _, rec := range m.sess.Records() {
			if z := m.zones.Get("file:" + rec.Key); z != nil && z.InBounds(msg) {
				m.sess.ToggleCollapsed(rec.Key)
				return nil
			}
		}
		if !m.flags.Enabled(flags.FlagMouseSelection) {
			return nil
		}
		m.selecting = true
		m.selStartY = msg.Y
		m.selEndY = msg.Y
	case tea.MouseActionMotion:
		if m.selecting {
			m.selEndY = msg.Y
		}
	case tea.MouseActionRelease:
		if m.selecting {
			m.selecting = false
			m.lastSnippet = m.snippetFromRows(m.selStartY, m.selEndY)
		}
	}
	return nil
}

// snippetFromRows maps a vertical screen range to selected lines using
// the row index built during the last View pass.
func (m *Model) snippetFromRows(startY, endY int) *session.Snippet {
	if startY > endY {
		startY, endY = endY, startY
	}

	var lines []session.SelectedLine
	var path string
	for y := startY; y <= endY; y++ {
		row := y - m.headerRows
		if row < 0 || row >= len(m.rowIndex) {
			continue
		}
		ref := m.rowIndex[row]
		if !ref.meta.Selectable {
			continue
		}
		rec, ok := m.sess.Record(ref.key)
		if !ok {
			continue
		}
		// Selections stay within one file; the first selectable row
		// decides which.
		if path == "" {
			path = rec.DisplayPath()
		} else if rec.DisplayPath() != path {
			break
		}
		lines = append(lines, ref.meta.Line)
	}
	return session.ExtractSnippet(path, lines)
}

// appendLogLine records one log entry for the overlay, keeping only
// the newest logOverlayMax entries.
func (m *Model) appendLogLine(entry string) {
	m.logLines = append(m.logLines, strings.TrimRight(entry, "\n"))
	if len(m.logLines) > logOverlayMax {
		m.logLines = m.logLines[len(m.logLines)-logOverlayMax:]
	}
}

// scrollBy moves the viewport and keeps it inside the content.
func (m *Model) scrollBy(units int) {
	m.scrollTop += units
	m.clampScroll()
}

func (m *Model) clampScroll() {
	maxTop := m.sess.TotalHeight() - m.viewportUnits()
	if m.scrollTop > maxTop {
		m.scrollTop = maxTop
	}
	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
}

// selectRecord moves the file selection and scrolls it into view.
func (m *Model) selectRecord(i int) {
	count := m.sess.Count()
	if count == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= count {
		i = count - 1
	}
	m.selected = i
	m.scrollTop = m.sess.OffsetOf(i)
	m.clampScroll()
}

// selectedKey returns the key of the currently selected record.
func (m *Model) selectedKey() (string, bool) {
	rec, ok := m.selectedRecord()
	return rec.Key, ok
}

func (m *Model) selectedRecord() (diff.FileRecord, bool) {
	records := m.sess.Records()
	if m.selected < 0 || m.selected >= len(records) {
		return diff.FileRecord{}, false
	}
	return records[m.selected], true
}

// recordIndex finds the index of a record key in the current list.
func (m *Model) recordIndex(key string) (int, bool) {
	for i, rec := range m.sess.Records() {
		if rec.Key == key {
			return i, true
		}
	}
	return 0, false
}

// perLine returns the configured units-per-row conversion factor.
func (m *Model) perLine() int {
	per := m.cfg.Engine.PerLineHeight
	if per <= 0 {
		per = config.Defaults().Engine.PerLineHeight
	}
	return per
}

// viewportUnits returns the diff pane height in render units.
func (m *Model) viewportUnits() int {
	return m.bodyRows() * m.perLine()
}
