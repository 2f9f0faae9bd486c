package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/juanibiapina/ptree/internal/dispatch"
	"github.com/juanibiapina/ptree/internal/process"
	"github.com/juanibiapina/ptree/internal/telemetry"
	"github.com/juanibiapina/ptree/internal/tree"
	"github.com/juanibiapina/ptree/internal/version"
)

// Modal mode
type modalMode int

const (
	modalNone modalMode = iota
	modalHelp
)

const messageTTL = 3 * time.Second

// Row is one line of the tree view.
type Row struct {
	process.Record
	Depth int
}

type tickMsg time.Time

type treeLoadedMsg struct {
	rows []Row
	err  error
}

type actionResultMsg struct {
	message string
	isError bool
}

// Model is the bubbletea model of the tree view.
type Model struct {
	root       int
	engine     *tree.Engine
	dispatcher *dispatch.Dispatcher
	interval   time.Duration

	rows        []Row
	scroll      ScrollState
	modal       modalMode
	width       int
	height      int
	ready       bool
	loaded      bool
	rootGone    bool
	message     string
	messageTime time.Time
	isError     bool

	help help.Model

	// copy writes to the system clipboard. Replaced in tests.
	copy func(string) error
}

// New creates a tree view rooted at root.
func New(root int, engine *tree.Engine, d *dispatch.Dispatcher, interval time.Duration) Model {
	h := help.New()
	h.ShowAll = true

	if interval <= 0 {
		interval = time.Second
	}

	return Model{
		root:       root,
		engine:     engine,
		dispatcher: d,
		interval:   interval,
		help:       h,
		copy:       clipboard.WriteAll,
	}
}

// Init loads the tree and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// load takes a fresh snapshot and flattens root's subtree.
func (m Model) load() tea.Cmd {
	engine, root := m.engine, m.root
	return func() tea.Msg {
		snap, err := engine.Snapshot()
		if err != nil {
			return treeLoadedMsg{err: err}
		}
		return treeLoadedMsg{rows: BuildRows(snap, root)}
	}
}

// BuildRows flattens the subtree of root in depth-first order. The root is
// the first row. It returns nil when root is not in the snapshot.
func BuildRows(snap *tree.Snapshot, root int) []Row {
	rec, ok := snap.Get(root)
	if !ok {
		return nil
	}

	rows := []Row{{Record: rec}}
	seen := map[int]bool{root: true}

	var walk func(pid, depth int)
	walk = func(pid, depth int) {
		for _, child := range snap.ChildrenOf(pid) {
			if seen[child] {
				continue
			}
			seen[child] = true
			r, _ := snap.Get(child)
			rows = append(rows, Row{Record: r, Depth: depth})
			walk(child, depth+1)
		}
	}
	walk(root, 1)

	return rows
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		// header (1) + panel border (2) + column header (1) + status bar (1)
		m.scroll.VisibleRows = max(m.height-5, 1)

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case treeLoadedMsg:
		m.applyRows(msg)

	case actionResultMsg:
		m.setMessage(msg.message, msg.isError)
		return m, m.load()

	case tea.KeyMsg:
		if m.modal == modalHelp {
			if key.Matches(msg, keys.Help, keys.Escape, keys.Quit) {
				m.modal = modalNone
			}
			return m, nil
		}
		return m.updateMain(msg)
	}

	return m, nil
}

// applyRows swaps in a new listing, keeping the cursor on the same PID when
// it still exists.
func (m *Model) applyRows(msg treeLoadedMsg) {
	m.loaded = true
	if msg.err != nil {
		m.setMessage(fmt.Sprintf("Scan failed: %v", msg.err), true)
		return
	}

	selected := m.selectedPID()
	m.rows = msg.rows
	m.rootGone = len(m.rows) == 0

	for i, r := range m.rows {
		if r.PID == selected {
			m.scroll.SetCursorTo(i)
			return
		}
	}
	m.scroll.Clamp(len(m.rows))
}

func (m *Model) setMessage(message string, isError bool) {
	m.message = message
	m.isError = isError
	m.messageTime = time.Now()
}

func (m Model) selectedPID() int {
	if m.scroll.Cursor < 0 || m.scroll.Cursor >= len(m.rows) {
		return 0
	}
	return m.rows[m.scroll.Cursor].PID
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.modal = modalHelp
		telemetry.TUIActionExecute("help")

	case key.Matches(msg, keys.Up):
		m.scroll.Move(-1, len(m.rows))

	case key.Matches(msg, keys.Down):
		m.scroll.Move(1, len(m.rows))

	case key.Matches(msg, keys.PageUp):
		m.scroll.Move(-m.scroll.Page(), len(m.rows))

	case key.Matches(msg, keys.PageDown):
		m.scroll.Move(m.scroll.Page(), len(m.rows))

	case key.Matches(msg, keys.First):
		m.scroll.Move(-len(m.rows), len(m.rows))

	case key.Matches(msg, keys.Last):
		m.scroll.Move(len(m.rows), len(m.rows))

	case key.Matches(msg, keys.Refresh):
		telemetry.TUIActionExecute("refresh")
		return m, m.load()

	case key.Matches(msg, keys.Copy):
		if pid := m.selectedPID(); pid > 0 {
			telemetry.TUIActionExecute("copy_pid")
			if err := m.copy(fmt.Sprint(pid)); err != nil {
				m.setMessage(fmt.Sprintf("Failed to copy: %v", err), true)
			} else {
				m.setMessage(fmt.Sprintf("PID %d copied to clipboard", pid), false)
			}
		}

	case key.Matches(msg, keys.Stop):
		return m, m.runDispatch("stop", "Stop", m.dispatcher.Stop)

	case key.Matches(msg, keys.Continue):
		return m, m.runDispatch("continue", "Continue", m.dispatcher.Continue)

	case key.Matches(msg, keys.Kill):
		return m, m.runDispatch("kill", "Kill", m.dispatcher.Kill)

	case key.Matches(msg, keys.KillZombieParents):
		return m, m.runDispatch("kill_zombie_parents", "Kill zombie parents", m.dispatcher.KillZombieParents)
	}

	return m, nil
}

// runDispatch applies op to the subtree of the selected process.
func (m Model) runDispatch(action, label string, op func(int) (*dispatch.Report, error)) tea.Cmd {
	pid := m.selectedPID()
	if pid <= 0 {
		return nil
	}
	telemetry.TUIActionExecute(action)

	return func() tea.Msg {
		report, err := op(pid)
		if err != nil {
			return actionResultMsg{message: fmt.Sprintf("%s under %d failed: %v", label, pid, err), isError: true}
		}
		telemetry.DispatchRun(action, len(report.Signaled()), len(report.Failures()), report.Reconciled())
		return actionResultMsg{
			message: summarize(label, pid, report),
			isError: len(report.Failures()) > 0,
		}
	}
}

func summarize(label string, pid int, report *dispatch.Report) string {
	signaled := len(report.Signaled())
	failed := len(report.Failures())
	if signaled == 0 && failed == 0 {
		return fmt.Sprintf("%s under %d: nothing to signal", label, pid)
	}
	msg := fmt.Sprintf("%s under %d: %d signaled", label, pid, signaled)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	if n := report.Reconciled(); n > 0 {
		msg += fmt.Sprintf(", %d missed in first pass", n)
	}
	return msg
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderPanel(fmt.Sprintf("tree of %d", m.root), m.renderTree(m.width-4), m.width, m.height-2))
	s.WriteString("\n")
	s.WriteString(m.renderStatusBar())

	if m.modal == modalHelp {
		return m.renderModal(s.String())
	}
	return s.String()
}

func (m Model) renderHeader() string {
	left := headerStyle.Render("ptree")
	right := mutedStyle.Render(fmt.Sprintf("%d processes • %s ", len(m.rows), version.Version))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

const (
	pidColWidth   = 8
	ppidColWidth  = 8
	stateColWidth = 10
)

func (m Model) renderTree(width int) string {
	if !m.loaded {
		return mutedStyle.Render("Scanning...")
	}
	if m.rootGone {
		return errorStyle.Render(fmt.Sprintf("Root process %d does not exist or is inaccessible", m.root))
	}

	nameWidth := width - pidColWidth - ppidColWidth - stateColWidth - 3
	header := columnHeaderStyle.Render(
		fit("PID", pidColWidth, "…") + " " +
			fit("PPID", ppidColWidth, "…") + " " +
			fit("STATE", stateColWidth, "…") + " " +
			fit("COMMAND", nameWidth, "…"),
	)

	lines := []string{header}
	start, end := m.scroll.Window(len(m.rows))
	for i := start; i < end; i++ {
		lines = append(lines, m.formatRow(m.rows[i], i == m.scroll.Cursor, nameWidth))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatRow(r Row, selected bool, nameWidth int) string {
	ps, ss, ns, sep := pidStyle, stateStyleFor(r.State), nameStyle, " "
	if selected {
		ps = ps.Background(selectionBg)
		ss = ss.Background(selectionBg)
		ns = ns.Background(selectionBg)
		sep = selectedBgStyle.Render(" ")
	}

	name := SanitizeName(r.Name)
	if r.Depth > 0 {
		name = strings.Repeat("  ", r.Depth-1) + "└ " + name
	}

	return ps.Render(fit(fmt.Sprint(r.PID), pidColWidth, "…")) + sep +
		ps.Render(fit(fmt.Sprint(r.PPID), ppidColWidth, "…")) + sep +
		ss.Render(fit(string(r.Code)+" "+r.State.String(), stateColWidth, "…")) + sep +
		ns.Render(fit(name, nameWidth, "…"))
}

func (m Model) renderPanel(title, content string, width, height int) string {
	borderColor := primaryColor

	tl, tr, bl, br := "╭", "╮", "╰", "╯"
	h, v := "─", "│"

	border := lipgloss.NewStyle().Foreground(borderColor)
	styledTitle := lipgloss.NewStyle().Foreground(borderColor).Bold(true).Render(title)

	// Format: ╭─title─────...─╮
	topBorderRight := width - 3 - lipgloss.Width(title) - 1
	if topBorderRight < 0 {
		topBorderRight = 0
	}
	topLine := border.Render(tl+h) + styledTitle + border.Render(h+strings.Repeat(h, topBorderRight)+tr)
	bottomLine := border.Render(bl + strings.Repeat(h, max(width-2, 0)) + br)
	vBorder := border.Render(v)

	contentWidth := width - 4 // 2 for borders, 2 for padding
	contentHeight := height - 2

	contentLines := strings.Split(content, "\n")
	var paddedLines []string
	for i := 0; i < contentHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines, vBorder+" "+fit(line, contentWidth, "")+" "+vBorder)
	}

	return topLine + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomLine
}

func (m Model) renderStatusBar() string {
	var content string

	if m.message != "" && time.Since(m.messageTime) < messageTTL {
		var styledMessage string
		if m.isError {
			styledMessage = errorStyle.Render(m.message)
		} else {
			styledMessage = successStyle.Render(m.message)
		}
		content = " " + styledMessage
	} else {
		parts := []string{
			m.renderKey("↑↓", "navigate"),
			m.renderKey("s", "stop"),
			m.renderKey("c", "continue"),
			m.renderKey("K", "kill"),
			m.renderKey("x", "kill zombie parents"),
			m.renderKey("y", "copy"),
			m.renderKey("?", "help"),
			m.renderKey("q", "quit"),
		}
		content = " " + strings.Join(parts, " ")
	}

	return statusBarStyle.Render(fit(content, m.width, ""))
}

func (m Model) renderKey(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

func (m Model) renderModal(background string) string {
	title := dialogTitleStyle.Render("Keyboard Shortcuts")
	body := m.help.View(keys)
	hint := helpDescStyle.Render("press esc or ? to close")
	content := dialogStyle.Render(title + "\n\n" + body + "\n\n" + hint)

	x := (m.width - lipgloss.Width(content)) / 2
	y := (m.height - lipgloss.Height(content)) / 2
	return placeOverlay(x, y, content, background)
}

// placeOverlay places the foreground string on top of the background string
// at position (x, y). Characters from fg replace characters in bg.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, fgLine := range fgLines {
		bgY := y + i
		if bgY < 0 || bgY >= len(bgLines) {
			continue
		}

		bgLine := bgLines[bgY]
		bgLineWidth := ansi.StringWidth(bgLine)

		var newLine strings.Builder
		if x > 0 {
			left := ansi.Truncate(bgLine, x, "")
			newLine.WriteString(left)
			if leftWidth := ansi.StringWidth(left); leftWidth < x {
				newLine.WriteString(strings.Repeat(" ", x-leftWidth))
			}
		}

		newLine.WriteString(fgLine)

		rightStart := x + ansi.StringWidth(fgLine)
		if rightStart < bgLineWidth {
			newLine.WriteString(ansi.TruncateLeft(bgLine, rightStart, ""))
		}

		bgLines[bgY] = newLine.String()
	}

	return strings.Join(bgLines, "\n")
}

// Start runs the tree view until the user quits.
func Start(root int, engine *tree.Engine, d *dispatch.Dispatcher, interval time.Duration) error {
	telemetry.TUISessionStart()
	defer telemetry.TUISessionEnd()

	p := tea.NewProgram(New(root, engine, d, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
