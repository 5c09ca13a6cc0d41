package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio-cli/internal/actions"
	"folio-cli/internal/menu"
	"folio-cli/internal/model"
	"folio-cli/internal/notify"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const headerLines = 2

var flashTimeout = 3 * time.Second

type settledMsg struct{ res actions.Result }
type syncedMsg struct{ err error }
type flashDoneMsg struct{ seq int }

// runQueue collects mutation bodies spawned during one Update so they can be
// returned as commands.
type runQueue struct{ runs []func() actions.Result }

func (q *runQueue) spawn(run func() actions.Result) { q.runs = append(q.runs, run) }

func (q *runQueue) drain() []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(q.runs))
	for _, run := range q.runs {
		run := run
		cmds = append(cmds, func() tea.Msg { return settledMsg{res: run()} })
	}
	q.runs = nil
	return cmds
}

// prompts records dialog requests raised by menu items.
type prompts struct {
	dialog  *folderDialog
	confirm *actions.Gate
	prompt  actions.Prompt
}

func (p *prompts) FolderDialog(mode actions.FolderMode, initial model.FolderInput, submit func(context.Context, model.FolderInput)) {
	p.dialog = newFolderDialog(mode, initial, submit)
}

func (p *prompts) Confirm(g *actions.Gate) {
	p.confirm = g
	p.prompt, _ = g.Pending()
}

type appModel struct {
	ctx   context.Context
	a     *actions.Actions
	notes *notify.Recorder
	queue *runQueue
	ui    *prompts

	width  int
	height int

	rows      []row
	cursor    int
	offset    int
	collapsed map[string]bool

	list   *menu.Surface
	menu   *menu.Model
	opened string
	marker *rowMarker
	marks  *actions.BlockMenus

	confirmFocus confirmModalFocus

	flash     string
	flashKind notify.Kind
	flashSeq  int
}

func newAppModel(ctx context.Context, a *actions.Actions, notes *notify.Recorder) appModel {
	q := &runQueue{}
	a.D.Spawn = q.spawn
	marker := &rowMarker{cache: a.D.Cache}
	m := appModel{
		ctx:       ctx,
		a:         a,
		notes:     notes,
		queue:     q,
		ui:        &prompts{},
		collapsed: map[string]bool{},
		list:      &menu.Surface{Name: "workspace"},
		marker:    marker,
		marks:     &actions.BlockMenus{Highlighter: marker},
		width:     80,
		height:    24,
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd { return nil }

func (m *appModel) refresh() {
	selected := ""
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		selected = m.rows[m.cursor].id()
	}
	m.rows = buildRows(m.a.D.Cache, m.collapsed)
	m.cursor = 0
	for i, r := range m.rows {
		if r.id() == selected {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

func (m *appModel) bodyHeight() int {
	h := m.height - headerLines - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *appModel) clampOffset() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m *appModel) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// surfaceFor builds the clickable surface of a row nested in the list.
func (m *appModel) surfaceFor(r row) *menu.Surface {
	id, label := r.id(), r.label()
	kind := r.kind
	return &menu.Surface{
		Name:   id,
		Parent: m.list,
		OnClick: func(*menu.Event) {
			if kind == rowFolder {
				m.collapsed[id] = !m.collapsed[id]
				return
			}
			m.opened = id
			m.setFlash(notify.KindSuccess, "Opened "+label)
		},
	}
}

// menuFor builds the row's menu. A nil trigger yields the inline variant.
func (m *appModel) menuFor(r row, trigger *menu.Surface) *menu.Menu {
	var mm *menu.Menu
	if r.kind == rowFolder {
		mm = m.a.FolderMenu(r.folder, trigger, m.ui)
	} else {
		mm = m.a.DocumentMenu(r.doc, trigger)
	}
	if mm.Anchor == nil {
		mm.Anchor = m.surfaceFor(r)
	}
	return mm
}

// openMenu shows mm and marks the row it acts on; an empty target only clears
// the previous mark.
func (m *appModel) openMenu(mm *menu.Menu, ev *menu.Event, target string) {
	if !mm.IsOpen() {
		if !mm.HasEnabled() {
			return
		}
		mm.Open()
	}
	if ev == nil {
		ev = menu.NewEvent(m.ctx, menu.Click)
	}
	m.marks.Trigger(ev, target)
	mv := menu.NewModel(m.ctx, mm)
	m.menu = &mv
}

func (m *appModel) closeMenu() {
	if m.menu != nil {
		m.menu.Menu.Close()
	}
	m.menu = nil
	m.marks.ClearHighlight()
}

func (m *appModel) setFlash(kind notify.Kind, msg string) tea.Cmd {
	m.flashSeq++
	m.flash, m.flashKind = msg, kind
	seq := m.flashSeq
	return tea.Tick(flashTimeout, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampOffset()

	case settledMsg:
		if g := m.ui.confirm; g != nil && !g.InFlight() {
			if _, waiting := g.Pending(); !waiting {
				m.ui.confirm = nil
			}
		}

	case syncedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setFlash(notify.KindError, "Sync failed: "+msg.err.Error()))
		} else {
			cmds = append(cmds, m.setFlash(notify.KindSuccess, "Synced"))
		}

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}

	case menu.ActivatedMsg, menu.ClosedMsg:
		m.closeMenu()

	case tea.MouseMsg:
		cmds = append(cmds, m.updateMouse(msg))

	case tea.KeyMsg:
		cmd, quit := m.updateKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.queue.drain()...)
	if m.ui.confirm == nil {
		cmds = append(cmds, m.drainNotes())
	}
	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *appModel) drainNotes() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	var cmd tea.Cmd
	for _, n := range m.notes.Drain() {
		cmd = m.setFlash(n.Kind, n.Message)
	}
	return cmd
}

func (m *appModel) updateKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if d := m.ui.dialog; d != nil {
		done, cmd := d.update(m.ctx, msg)
		if done {
			m.ui.dialog = nil
		}
		return cmd, false
	}
	if g := m.ui.confirm; g != nil {
		return m.updateConfirm(msg, g), false
	}
	if m.menu != nil {
		next, cmd := m.menu.Update(msg)
		m.menu = &next
		if !next.Menu.IsOpen() {
			m.closeMenu()
		}
		return cmd, false
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return nil, true
	case "down", "j":
		m.cursor++
	case "up", "k":
		m.cursor--
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.rows) - 1
	case "enter", " ":
		if r, ok := m.selected(); ok {
			m.surfaceFor(r).Dispatch(m.ctx, menu.Click)
			m.refresh()
		}
	case "x", ".":
		if r, ok := m.selected(); ok {
			m.openMenu(m.menuFor(r, nil), nil, r.id())
		}
	case "n", "+":
		var folderID *string
		target := ""
		if r, ok := m.selected(); ok && r.kind == rowFolder {
			id := r.folder.ID
			folderID, target = &id, id
		}
		m.openMenu(m.a.NewItemMenu(folderID, m.ui), nil, target)
	case "r":
		a, ctx := m.a, m.ctx
		return func() tea.Msg { return syncedMsg{err: a.Sync(ctx)} }, false
	}
	m.clampOffset()
	return nil, false
}

// updateConfirm keeps the modal up while the confirmed mutation is in flight.
func (m *appModel) updateConfirm(msg tea.KeyMsg, g *actions.Gate) tea.Cmd {
	if g.InFlight() {
		return nil
	}
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
	case "esc", "ctrl+g", "n":
		g.Cancel()
		m.ui.confirm = nil
	case "enter", "y":
		if msg.String() == "enter" && m.confirmFocus == confirmFocusCancel {
			g.Cancel()
			m.ui.confirm = nil
			return nil
		}
		_ = m.a.D.Confirm(menu.NewEvent(m.ctx, menu.Click), g)
		if !g.InFlight() {
			m.ui.confirm = nil
		}
		m.confirmFocus = confirmFocusConfirm
	}
	return nil
}

func (m *appModel) updateMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || m.ui.dialog != nil || m.ui.confirm != nil {
		return nil
	}
	if m.menu != nil {
		m.closeMenu()
		return nil
	}
	i := msg.Y - headerLines + m.offset
	if msg.Y < headerLines || i < 0 || i >= len(m.rows) {
		return nil
	}
	m.cursor = i
	r := m.rows[i]
	switch msg.Button {
	case tea.MouseButtonLeft:
		m.surfaceFor(r).Dispatch(m.ctx, menu.Click)
	case tea.MouseButtonRight:
		trigger := m.surfaceFor(r)
		mm := m.menuFor(r, trigger)
		ev := trigger.Dispatch(m.ctx, menu.ContextMenu)
		if mm.IsOpen() {
			m.openMenu(mm, ev, r.id())
		}
	}
	return nil
}

func (m appModel) View() string {
	title := styleHeader().Render("folio")
	ws := m.a.Session.WorkspaceID
	if ws == "" {
		ws = "no workspace"
	}
	header := title + " " + styleMuted().Render(glyphSeparator()+" "+ws)

	listW := m.width
	showDetail := m.width >= 90
	if showDetail {
		listW = m.width * 3 / 5
	}
	body := m.viewRows(listW)
	if showDetail {
		detail := normalizePane(m.viewDetail(m.width-listW-1), m.width-listW-1, m.bodyHeight())
		sep := normalizePane(strings.Repeat(styleMuted().Render(glyphSeparator())+"\n", m.bodyHeight()), 1, m.bodyHeight())
		body = lipgloss.JoinHorizontal(lipgloss.Top, normalizePane(body, listW, m.bodyHeight()), sep, detail)
	}

	footer := styleMuted().Render("x: actions  n: new  enter: open/toggle  r: sync  q: quit")
	if m.flash != "" {
		st := styleSuccess()
		if m.flashKind == notify.KindError {
			st = styleError()
		}
		footer = st.Render(truncate(m.flash, m.width))
	}

	out := strings.Join([]string{header, "", normalizePane(body, m.width, m.bodyHeight()), "", footer}, "\n")

	var overlay string
	switch {
	case m.ui.dialog != nil:
		overlay = m.ui.dialog.view(m.width)
	case m.ui.confirm != nil:
		overlay = renderConfirmModal(m.width, m.ui.prompt, m.confirmFocus, m.ui.confirm.InFlight())
	case m.menu != nil:
		overlay = m.menu.View()
	}
	if overlay != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return out
}

func (m appModel) viewRows(width int) string {
	if len(m.rows) == 0 {
		return styleMuted().Render("Nothing cached yet. Press r to sync.")
	}
	end := m.offset + m.bodyHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		mark := glyphDocument()
		if r.kind == rowFolder {
			mark = glyphTwistyCollapsed()
			if r.open {
				mark = glyphTwistyExpanded()
			}
		}
		line := truncate(strings.Repeat("  ", r.depth)+mark+" "+r.label(), width)
		switch {
		case i == m.cursor:
			line = styleSelected().Width(width).Render(line)
		case r.id() == m.marker.marked():
			line = lipgloss.NewStyle().Foreground(colorAccent).Underline(true).Render(line)
		case r.kind == rowDocument && r.doc.ID == m.opened:
			line = lipgloss.NewStyle().Background(colorHighlightBg).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewDetail(width int) string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	if r.kind == rowDocument {
		return styleHeader().Render(r.label()) + "\n" + styleMuted().Render(r.doc.ID)
	}
	lines := []string{styleHeader().Render(r.label()), styleMuted().Render(r.folder.ID)}
	if desc := model.StrOrEmpty(r.folder.Description); desc != "" {
		lines = append(lines, "", renderMarkdown(desc, width))
	}
	return strings.Join(lines, "\n")
}

// String is used in tests to describe the visible rows.
func (m appModel) String() string {
	var b strings.Builder
	for _, r := range m.rows {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", r.depth), r.label())
	}
	return b.String()
}
