package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/adapters/kvstore"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	consoleTab  string
	consoleLink string
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Launch the interactive asset console (alias: ui)",
	Long: `Launch a full-screen console for the selected parks.

The console provides:
- Details, transfer and disposal tabs for the selected parks
- Live filtering with match highlighting and a barcode scan mode
- Inline edit and delete with two-step confirmation
- Add forms per tab and a cross-type search

Keyboard Shortcuts:
  Navigation:
    ↑/k ↓/j     Move cursor
    g / G       Jump to top / bottom
    1 2 3       Details / Transfer / Disposal tab
    tab         Next tab

  Actions:
    e           Edit row
    d           Delete row
    a           Add record
    o / Enter   Follow a disposal tag
    y           Copy row id
    r           Refresh

  Views:
    /           Filter (Enter searches all record types)
    s           Toggle scan mode
    p           Choose parks
    ?           Show help

  General:
    q           Quit console
    Ctrl+C      Force quit

A link such as "tab=disposal&highlightOld=A-17" opens the console on that
view.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVarP(&consoleTab, "tab", "t", "", "Initial tab (details, transfer or disposal)")
	consoleCmd.Flags().StringVar(&consoleLink, "link", "", "Open a view link (q, tab and highlightOld parameters)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(getContext())
	defer cancel()

	tabName := appConfig.DefaultTab
	if consoleTab != "" {
		tabName = consoleTab
	}
	tab, err := services.ParseTab(tabName)
	if err != nil {
		return err
	}

	opts := consoleOptions{tab: tab}
	if consoleLink != "" {
		link, err := services.ParseDeepLink(consoleLink)
		if err != nil {
			return err
		}
		opts.link = &link
	}

	watch, err := sessionKV.Watch(ctx)
	if err != nil {
		// The console still works without it, it just won't notice a logout elsewhere
		fmt.Println(ui.FormatWarning(err.Error()))
	}
	opts.watch = watch

	m, err := newConsoleModel(ctx, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running console: %w", err)
	}

	if fm, ok := final.(consoleModel); ok && fm.ended {
		fmt.Println(ui.FormatWarning("Session ended"))
	}
	return nil
}

// Console view modes
type viewMode int

const (
	modeList viewMode = iota
	modeLogin
	modeSearch
	modeEdit
	modeConfirmDelete
	modeAdd
	modeParks
	modeResults
	modeHelp
)

type consoleOptions struct {
	tab   services.Tab
	link  *services.DeepLink
	watch <-chan kvstore.Change
	now   func() time.Time
}

// Console model
type consoleModel struct {
	ctx  context.Context
	now  func() time.Time
	list *services.AssetList
	user *domain.User
	sel  *services.ParkSelection
	link *services.DeepLink // applied once after login

	cursor int
	offset int
	mode   viewMode

	searchInput textinput.Model
	fieldInput  textinput.Model // edit and add forms
	field       int             // focused form field

	loginInputs []textinput.Model
	loginFocus  int
	remember    bool
	loginErr    string
	loggingIn   bool

	parkCursor int
	results    []services.SearchRow
	resultsFor string
	resultCur  int
	searching  bool

	spinner       spinner.Model
	help          help.Model
	keys          keyMap
	width         int
	height        int
	ready         bool
	message       string
	messageStyle  lipgloss.Style
	messageExpiry time.Time
	statusFor     time.Duration

	watch <-chan kvstore.Change
	ended bool
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	NextTab key.Binding
	Details key.Binding
	Xfer    key.Binding
	Dispose key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Add     key.Binding
	Follow  key.Binding
	Copy    key.Binding
	Refresh key.Binding
	Search  key.Binding
	Scan    key.Binding
	Parks   key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Edit, k.Add, k.Search, k.Parks, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.NextTab, k.Details, k.Xfer, k.Dispose},
		{k.Edit, k.Delete, k.Add, k.Follow, k.Copy, k.Refresh},
		{k.Search, k.Scan, k.Parks, k.Help, k.Escape, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "bottom"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next tab"),
	),
	Details: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "details"),
	),
	Xfer: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "transfer"),
	),
	Dispose: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "disposal"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Follow: key.NewBinding(
		key.WithKeys("enter", "o"),
		key.WithHelp("enter/o", "open disposal"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy id"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Scan: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "scan mode"),
	),
	Parks: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "parks"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y", "enter"),
		key.WithHelp("y/enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

func newConsoleModel(ctx context.Context, opts consoleOptions) (consoleModel, error) {
	now := opts.now
	if now == nil {
		now = time.Now
	}

	scanner, err := services.NewScanner(appConfig.ScanGap(), appConfig.Scan.IDPattern)
	if err != nil {
		return consoleModel{}, err
	}
	list := services.NewAssetList(fetcher, scanner, now)
	if opts.tab != "" {
		list.Tab = opts.tab
	}

	si := textinput.New()
	si.Placeholder = "Filter rows..."
	si.CharLimit = 100
	si.Width = 50

	fi := textinput.New()
	fi.CharLimit = 200
	fi.Width = 40

	user := textinput.New()
	user.Placeholder = "User ID"
	user.CharLimit = 64
	user.Width = 30
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "Password"
	pass.CharLimit = 128
	pass.Width = 30
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.StylePrimary

	return consoleModel{
		ctx:         ctx,
		now:         now,
		list:        list,
		link:        opts.link,
		mode:        modeList,
		searchInput: si,
		fieldInput:  fi,
		loginInputs: []textinput.Model{user, pass},
		spinner:     sp,
		help:        help.New(),
		keys:        keys,
		statusFor:   appConfig.StatusDuration(),
		watch:       opts.watch,
	}, nil
}

// Messages
type statusMsg struct {
	message string
	style   lipgloss.Style
}

type clearMessageMsg struct{}

type sessionMsg struct {
	user *domain.User
	sel  *services.ParkSelection
	err  error
}

type fetchMsg struct {
	res services.FetchResult
}

type commitMsg struct {
	commit services.RowCommit
	err    error
}

type addMsg struct {
	req  services.AddRequest
	item *domain.Record
	err  error
}

type searchMsg struct {
	query string
	resp  *services.SearchResponse
	err   error
}

type storeChangeMsg struct {
	change kvstore.Change
	open   bool
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.restoreSession(), m.waitForChange())
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeParks:
			return m.updateParks(msg)
		case modeResults:
			return m.updateResults(msg)
		case modeHelp:
			return m.updateHelp(msg)
		default:
			return m.updateList(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.message = msg.message
		m.messageStyle = msg.style
		m.messageExpiry = m.now().Add(m.statusFor)
		return m, tea.Tick(m.statusFor, func(time.Time) tea.Msg { return clearMessageMsg{} })

	case clearMessageMsg:
		if !m.now().Before(m.messageExpiry) {
			m.message = ""
		}
		return m, nil

	case sessionMsg:
		return m.applySession(msg)

	case fetchMsg:
		if !m.list.ApplyFetch(msg.res) {
			return m, nil
		}
		if services.IsUnauthorized(msg.res.Err) {
			return m.sessionExpired()
		}
		m.clampCursor()
		return m, nil

	case commitMsg:
		req, ok := m.list.ApplyCommit(msg.commit, msg.err)
		if msg.err != nil {
			if services.IsUnauthorized(msg.err) {
				return m.sessionExpired()
			}
			return m, nil
		}
		m.mode = modeList
		text := "Updated"
		if msg.commit.Delete {
			text = "Deleted"
		}
		cmds := []tea.Cmd{status(text, ui.StyleSuccess)}
		if ok {
			cmds = append(cmds, m.fetch(req))
		}
		return m, tea.Batch(cmds...)

	case addMsg:
		m.list.ApplyAdd(msg.req, msg.item, msg.err)
		if msg.err != nil {
			if services.IsUnauthorized(msg.err) {
				return m.sessionExpired()
			}
			return m, status(services.MsgAddFailed, ui.StyleError)
		}
		m.clampCursor()
		return m, status(msg.req.Type.Label()+" added", ui.StyleSuccess)

	case searchMsg:
		m.searching = false
		if msg.err != nil {
			if services.IsUnauthorized(msg.err) {
				return m.sessionExpired()
			}
			return m, status(services.DisplayMessage(msg.err, "Search failed"), ui.StyleError)
		}
		m.results = msg.resp.Rows
		m.resultsFor = msg.query
		m.resultCur = 0
		m.mode = modeResults
		return m, nil

	case storeChangeMsg:
		if !msg.open {
			return m, nil
		}
		// Our own logout on an expired token lands here while the login prompt is up
		if msg.change.Key == services.KeyToken && msg.change.Deleted && m.mode != modeLogin && m.user != nil {
			m.ended = true
			return m, tea.Quit
		}
		return m, m.waitForChange()
	}

	return m, nil
}

func (m consoleModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.list.Visible()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
			m.adjustViewport()
		}

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.offset = 0

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(rows)-1, 0)
		m.adjustViewport()

	case key.Matches(msg, m.keys.NextTab):
		next := services.Tabs[0]
		for i, t := range services.Tabs {
			if t == m.list.Tab {
				next = services.Tabs[(i+1)%len(services.Tabs)]
			}
		}
		return m.switchTab(next)

	case key.Matches(msg, m.keys.Details):
		return m.switchTab(services.TabDetails)

	case key.Matches(msg, m.keys.Xfer):
		return m.switchTab(services.TabTransfer)

	case key.Matches(msg, m.keys.Dispose):
		return m.switchTab(services.TabDisposal)

	case key.Matches(msg, m.keys.Edit):
		if row, ok := m.currentRow(); ok {
			if err := m.list.StartEdit(row.ID); err != nil {
				return m, status(err.Error(), ui.StyleError)
			}
			if m.list.Rows.IsRow(row.ID) {
				m.mode = modeEdit
				m.field = 0
				cmd := m.focusEditField()
				return m, cmd
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.currentRow(); ok {
			if err := m.list.StartDelete(row.ID); err != nil {
				return m, status(err.Error(), ui.StyleError)
			}
			if m.list.Rows.IsRow(row.ID) {
				m.mode = modeConfirmDelete
			}
		}

	case key.Matches(msg, m.keys.Add):
		if len(m.list.Parks) == 0 {
			return m, status("Select a park first", ui.StyleWarning)
		}
		m.list.OpenForm()
		m.mode = modeAdd
		m.field = 0
		cmd := m.focusAddField()
		return m, cmd

	case key.Matches(msg, m.keys.Follow):
		if row, ok := m.currentRow(); ok && m.list.FlagRow(row) == services.FlagDisposed {
			return m.openLink(services.DisposalLink(row.Get(domain.FieldOldCode)))
		}

	case key.Matches(msg, m.keys.Copy):
		if row, ok := m.currentRow(); ok {
			return m, copyToClipboard(row.ID)
		}

	case key.Matches(msg, m.keys.Refresh):
		req, ok := m.list.Refresh()
		if ok {
			return m, m.fetch(req)
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.list.Query)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Scan):
		m.list.ToggleScan()
		m.searchInput.SetValue(m.list.Query)
		m.cursor, m.offset = 0, 0
		if m.list.ScanEnabled {
			return m, status("Scan mode on", ui.StyleInfo)
		}
		return m, status("Scan mode off", ui.StyleInfo)

	case key.Matches(msg, m.keys.Parks):
		if m.sel != nil {
			m.mode = modeParks
			m.parkCursor = 0
		}

	case key.Matches(msg, m.keys.Escape):
		if m.list.Query != "" || m.list.ScanFilterID != "" {
			m.list.ClearSearch()
			m.searchInput.SetValue("")
			m.cursor, m.offset = 0, 0
		}

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
	}

	return m, nil
}

func (m consoleModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.list.ClearSearch()
		m.cursor, m.offset = 0, 0
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = modeList
		m.searchInput.Blur()
		link, cross := m.list.SubmitSearch()
		m.cursor, m.offset = 0, 0
		if !cross || link.Query == "" {
			return m, nil
		}
		m.searching = true
		return m, m.search(link.Query)

	case msg.Type == tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.cursor < len(m.list.Visible())-1 {
			m.cursor++
			m.adjustViewport()
		}
		return m, nil
	}

	if m.list.ScanEnabled {
		switch msg.Type {
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				m.list.ScanKey(r, m.now())
			}
		case tea.KeyBackspace:
			m.list.ScanBackspace(m.now())
		}
		m.searchInput.SetValue(m.list.Query)
		m.searchInput.CursorEnd()
		m.cursor, m.offset = 0, 0
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.list.Query {
		m.list.SetQuery(m.searchInput.Value())
		m.cursor, m.offset = 0, 0
	}
	return m, cmd
}

func (m consoleModel) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = modeList
	}
	return m, nil
}

// editColumns are the draft fields of the active edit session
func (m consoleModel) editColumns() []domain.Column {
	return domain.SchemaFor(m.list.Rows.Type).EditableColumns()
}

func (m consoleModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.Committing {
		return m, nil
	}
	cols := m.editColumns()
	if len(cols) == 0 {
		m.list.CancelRow()
		m.mode = modeList
		return m, nil
	}
	col := cols[m.field]

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.list.CancelRow()
		m.fieldInput.Blur()
		m.mode = modeList
		return m, nil

	case msg.Type == tea.KeyEnter:
		if m.list.Rows.Phase == services.PhaseEditing {
			if err := m.flushEditField(col); err != nil {
				m.list.RowErr = err.Error()
				return m, nil
			}
		}
		commit, send, err := m.list.ConfirmRow()
		if err != nil {
			m.list.RowErr = err.Error()
			return m, nil
		}
		m.fieldInput.Blur()
		if send {
			return m, m.commit(commit)
		}
		return m, nil
	}

	// Once confirmation is pending the draft is frozen
	if m.list.Rows.Phase != services.PhaseEditing {
		return m.switchRow(msg)
	}

	switch msg.Type {
	case tea.KeyUp, tea.KeyShiftTab, tea.KeyDown, tea.KeyTab:
		if err := m.flushEditField(col); err != nil {
			m.list.RowErr = err.Error()
			return m, nil
		}
		m.list.RowErr = ""
		if msg.Type == tea.KeyUp || msg.Type == tea.KeyShiftTab {
			m.field = (m.field + len(cols) - 1) % len(cols)
		} else {
			m.field = (m.field + 1) % len(cols)
		}
		cmd := m.focusEditField()
		return m, cmd

	case tea.KeyLeft, tea.KeyRight:
		if options := m.fieldOptions(col.Kind, col.Options); options != nil {
			value := cycleOption(options, m.list.Rows.Draft[col.Field], msg.Type == tea.KeyRight)
			if err := m.list.SetDraft(col.Field, value); err != nil {
				m.list.RowErr = err.Error()
			}
			return m, nil
		}
	}

	if m.fieldOptions(col.Kind, col.Options) != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.fieldInput, cmd = m.fieldInput.Update(msg)
	return m, cmd
}

// flushEditField writes a typed value into the draft
func (m consoleModel) flushEditField(col domain.Column) error {
	if m.fieldOptions(col.Kind, col.Options) != nil {
		return nil
	}
	return m.list.SetDraft(col.Field, m.fieldInput.Value())
}

func (m *consoleModel) focusEditField() tea.Cmd {
	cols := m.editColumns()
	if len(cols) == 0 {
		return nil
	}
	col := cols[m.field]
	m.fieldInput.SetValue(m.list.Rows.Draft[col.Field])
	m.fieldInput.CursorEnd()
	m.fieldInput.Placeholder = col.Field
	if col.Kind == domain.KindDate {
		m.fieldInput.Placeholder = "YYYY-MM-DD"
	}
	if m.fieldOptions(col.Kind, col.Options) != nil {
		m.fieldInput.Blur()
		return nil
	}
	return m.fieldInput.Focus()
}

func (m consoleModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.Committing {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Confirm):
		commit, send, err := m.list.ConfirmRow()
		if err != nil {
			m.list.RowErr = err.Error()
			return m, nil
		}
		if send {
			return m, m.commit(commit)
		}

	case key.Matches(msg, m.keys.Cancel):
		m.list.CancelRow()
		m.mode = modeList

	default:
		return m.switchRow(msg)
	}
	return m, nil
}

// switchRow handles the row keys of the list while a confirmation is
// pending. Starting an edit or delete replaces the pending session.
func (m consoleModel) switchRow(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.list.Visible()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
			m.adjustViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit, m.keys.Delete):
		m.fieldInput.Blur()
		return m.updateList(msg)
	}
	return m, nil
}

func (m consoleModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.list.Form()
	if w.Submitting {
		return m, nil
	}

	if w.Success {
		switch {
		case msg.String() == "n":
			w.AddAnother()
			m.field = 0
			cmd := m.focusAddField()
			return m, cmd
		case key.Matches(msg, m.keys.Escape), msg.Type == tea.KeyEnter:
			w.Close()
			m.fieldInput.Blur()
			m.mode = modeList
		}
		return m, nil
	}

	fields := domain.AddFormFields(w.Type)
	f := fields[m.field]

	switch {
	case key.Matches(msg, m.keys.Escape):
		w.Close()
		m.fieldInput.Blur()
		m.mode = modeList
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.flushAddField(f)
		req, ok := w.Prepare()
		if !ok {
			return m, nil
		}
		return m, m.send(req)
	}

	switch msg.Type {
	case tea.KeyUp, tea.KeyShiftTab, tea.KeyDown, tea.KeyTab:
		m.flushAddField(f)
		if msg.Type == tea.KeyUp || msg.Type == tea.KeyShiftTab {
			m.field = (m.field + len(fields) - 1) % len(fields)
		} else {
			m.field = (m.field + 1) % len(fields)
		}
		cmd := m.focusAddField()
		return m, cmd

	case tea.KeyLeft, tea.KeyRight:
		if options := m.fieldOptions(f.Kind, f.Options); options != nil {
			w.Set(f.Key, cycleOption(options, w.Form.Get(f.Key), msg.Type == tea.KeyRight))
			return m, nil
		}
	}

	if m.fieldOptions(f.Kind, f.Options) != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.fieldInput, cmd = m.fieldInput.Update(msg)
	return m, cmd
}

// flushAddField records a typed value when it differs from the form
func (m consoleModel) flushAddField(f domain.FormField) {
	if m.fieldOptions(f.Kind, f.Options) != nil {
		return
	}
	w := m.list.Form()
	if v := m.fieldInput.Value(); v != w.Form.Get(f.Key) {
		w.Set(f.Key, v)
	}
}

func (m *consoleModel) focusAddField() tea.Cmd {
	w := m.list.Form()
	fields := domain.AddFormFields(w.Type)
	f := fields[m.field]
	m.fieldInput.SetValue(w.Form.Get(f.Key))
	m.fieldInput.CursorEnd()
	m.fieldInput.Placeholder = f.Label
	if f.Kind == domain.KindDate {
		m.fieldInput.Placeholder = "YYYY-MM-DD"
	}
	if m.fieldOptions(f.Kind, f.Options) != nil {
		m.fieldInput.Blur()
		return nil
	}
	return m.fieldInput.Focus()
}

// fieldOptions returns the choices of an enum or location input, nil for free text
func (m consoleModel) fieldOptions(kind domain.ColumnKind, options []string) []string {
	switch kind {
	case domain.KindEnum:
		return options
	case domain.KindLocation:
		ids := m.list.ParkIDs()
		if ids == nil {
			ids = []string{}
		}
		return ids
	}
	return nil
}

// cycleOption steps through options starting from current
func cycleOption(options []string, current string, forward bool) string {
	if len(options) == 0 {
		return current
	}
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return options[0]
	case forward:
		return options[(idx+1)%len(options)]
	default:
		return options[(idx+len(options)-1)%len(options)]
	}
}

// parkItem is one line of the park picker
type parkItem struct {
	label string
	area  string // area code; empty with park empty means all parks
	park  string
}

func (m consoleModel) parkItems() []parkItem {
	if m.sel == nil {
		return nil
	}
	items := []parkItem{{label: "All parks"}}
	for _, a := range m.sel.Areas() {
		label := a.Code
		if a.Name != "" {
			label += " - " + a.Name
		}
		items = append(items, parkItem{label: "Area " + label, area: a.Code})
	}
	for _, p := range m.sel.UserParks() {
		items = append(items, parkItem{label: p.Label(), park: p.ParkID})
	}
	return items
}

func (m consoleModel) updateParks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.parkItems()

	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Parks):
		m.mode = modeList

	case key.Matches(msg, m.keys.Up):
		if m.parkCursor > 0 {
			m.parkCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.parkCursor < len(items)-1 {
			m.parkCursor++
		}

	case msg.Type == tea.KeyEnter:
		if m.parkCursor >= len(items) {
			return m, nil
		}
		item := items[m.parkCursor]
		var err error
		if item.park != "" {
			err = m.sel.PickPark(item.park)
		} else {
			err = m.sel.ChooseArea(item.area)
		}
		if err != nil {
			return m, status(err.Error(), ui.StyleError)
		}
		m.mode = modeList
		return m.applySelection()
	}
	return m, nil
}

// applySelection persists the park choice and refetches the active tab
func (m consoleModel) applySelection() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if err := session.SetSelectedParkIDs(m.sel.SelectedIDs()); err != nil {
		cmds = append(cmds, status(err.Error(), ui.StyleWarning))
	}
	m.cursor, m.offset = 0, 0
	if req, ok := m.list.SetParks(m.sel.SelectedParks()); ok {
		cmds = append(cmds, m.fetch(req))
	}
	return m, tea.Batch(cmds...)
}

func (m consoleModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.mode = modeList

	case key.Matches(msg, m.keys.Up):
		if m.resultCur > 0 {
			m.resultCur--
		}

	case key.Matches(msg, m.keys.Down):
		if m.resultCur < len(m.results)-1 {
			m.resultCur++
		}

	case key.Matches(msg, m.keys.Copy):
		if m.resultCur < len(m.results) {
			return m, copyToClipboard(m.results[m.resultCur].ID)
		}

	case msg.Type == tea.KeyEnter:
		if m.resultCur >= len(m.results) {
			return m, nil
		}
		row := m.results[m.resultCur]
		m.mode = modeList
		if row.Source != domain.RecordDisposal && row.IsTaggedDisposal() {
			return m.openLink(services.DisposalLink(row.Get(domain.FieldOldCode)))
		}
		m.list.ClearSearch()
		m.list.SetQuery(row.ID)
		m.searchInput.SetValue(row.ID)
		return m.openLink(services.DeepLink{Tab: services.TabFor(row.Source)})
	}
	return m, nil
}

// openLink moves the view to a deep link target
func (m consoleModel) openLink(link services.DeepLink) (tea.Model, tea.Cmd) {
	if link.Query != "" {
		m.list.SetQuery(link.Query)
		m.searchInput.SetValue(link.Query)
	}
	m.cursor, m.offset = 0, 0
	req, ok := m.list.ApplyDeepLink(link)
	if !ok {
		return m, nil
	}
	return m, m.fetch(req)
}

func (m consoleModel) switchTab(tab services.Tab) (tea.Model, tea.Cmd) {
	if tab == m.list.Tab {
		return m, nil
	}
	m.cursor, m.offset = 0, 0
	m.list.HighlightOld = ""
	req, ok := m.list.SetTab(tab)
	if !ok {
		return m, nil
	}
	return m, m.fetch(req)
}

func (m consoleModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyCtrlC, msg.Type == tea.KeyEsc:
		return m, tea.Quit

	case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		m.loginInputs[m.loginFocus].Blur()
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		cmd := m.loginInputs[m.loginFocus].Focus()
		return m, cmd

	case msg.Type == tea.KeyCtrlR:
		m.remember = !m.remember
		return m, nil

	case msg.Type == tea.KeyEnter:
		if m.loginFocus == 0 {
			m.loginInputs[0].Blur()
			m.loginFocus = 1
			cmd := m.loginInputs[1].Focus()
			return m, cmd
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, m.login(services.LoginRequest{
			UserID:        m.loginInputs[0].Value(),
			Password:      m.loginInputs[1].Value(),
			Remember7Days: m.remember,
		})
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

// applySession installs a restored or fresh login and loads the first view
func (m consoleModel) applySession(msg sessionMsg) (tea.Model, tea.Cmd) {
	m.loggingIn = false
	if msg.err != nil {
		m.mode = modeLogin
		m.user = nil
		if !errors.Is(msg.err, services.ErrNotLoggedIn) || m.loginInputs[1].Value() != "" {
			m.loginErr = services.DisplayMessage(msg.err, services.MsgLoginFailed)
		}
		m.loginInputs[1].SetValue("")
		m.loginFocus = 0
		for i := range m.loginInputs {
			m.loginInputs[i].Blur()
		}
		cmd := m.loginInputs[0].Focus()
		return m, cmd
	}

	m.user = msg.user
	m.sel = msg.sel
	m.mode = modeList
	m.loginErr = ""
	m.loginInputs[1].SetValue("")

	req, ok := m.list.SetParks(m.sel.SelectedParks())
	if m.link != nil {
		link := *m.link
		m.link = nil
		if link.Query != "" {
			m.list.SetQuery(link.Query)
			m.searchInput.SetValue(link.Query)
		}
		req, ok = m.list.ApplyDeepLink(link)
	}
	if !ok {
		return m, nil
	}
	return m, m.fetch(req)
}

// sessionExpired drops the token and shows the login prompt
func (m consoleModel) sessionExpired() (tea.Model, tea.Cmd) {
	if err := session.ClearToken(); err != nil {
		slog.Warn("failed to clear token", "error", err)
	}
	m.user = nil
	m.mode = modeLogin
	m.loginErr = "Session expired, please log in again"
	m.loginFocus = 0
	m.loginInputs[1].SetValue("")
	m.loginInputs[1].Blur()
	cmd := m.loginInputs[0].Focus()
	return m, cmd
}

func (m *consoleModel) clampCursor() {
	n := len(m.list.Visible())
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.adjustViewport()
}

func (m *consoleModel) adjustViewport() {
	listHeight := m.listHeight()

	// Scroll down
	if m.cursor >= m.offset+listHeight {
		m.offset = m.cursor - listHeight + 1
	}

	// Scroll up
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

func (m consoleModel) listHeight() int {
	h := m.height - 12 // header, tabs, search bar, footer
	if h < 3 {
		h = 3
	}
	return h
}

func (m consoleModel) currentRow() (domain.Record, bool) {
	rows := m.list.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return domain.Record{}, false
	}
	return rows[m.cursor], true
}

// Commands

func status(message string, style lipgloss.Style) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{message: message, style: style}
	}
}

func (m consoleModel) restoreSession() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		user, err := authService.Restore(ctx)
		if err != nil {
			return sessionMsg{err: err}
		}
		sel, err := loadSelection(ctx, user)
		return sessionMsg{user: user, sel: sel, err: err}
	}
}

func (m consoleModel) login(req services.LoginRequest) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		user, err := authService.Login(ctx, req)
		if err != nil {
			return sessionMsg{err: err}
		}
		sel, err := loadSelection(ctx, user)
		return sessionMsg{user: user, sel: sel, err: err}
	}
}

func (m consoleModel) fetch(req services.FetchRequest) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return fetchMsg{res: fetcher.Run(ctx, req)}
	}
}

func (m consoleModel) commit(c services.RowCommit) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commitMsg{commit: c, err: rowEditor.Execute(ctx, c)}
	}
}

func (m consoleModel) send(req services.AddRequest) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		item, err := addService.Send(ctx, req)
		return addMsg{req: req, item: item, err: err}
	}
}

func (m consoleModel) search(query string) tea.Cmd {
	ctx := m.ctx
	parkIDs := m.list.ParkIDs()
	return func() tea.Msg {
		resp, err := searchService.Execute(ctx, services.SearchRequest{Query: query, LocationIDs: parkIDs})
		return searchMsg{query: query, resp: resp, err: err}
	}
}

func (m consoleModel) waitForChange() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	ch := m.watch
	return func() tea.Msg {
		change, ok := <-ch
		return storeChangeMsg{change: change, open: ok}
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return statusMsg{message: fmt.Sprintf("Copy failed: %v", err), style: ui.StyleError}
		}
		return statusMsg{message: "Copied " + text, style: ui.StyleSuccess}
	}
}
