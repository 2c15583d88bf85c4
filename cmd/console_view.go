package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

func (m consoleModel) View() string {
	if !m.ready {
		return "\n  Loading console..."
	}

	switch m.mode {
	case modeLogin:
		return m.viewLogin()
	case modeHelp:
		return m.viewHelp()
	case modeConfirmDelete:
		return m.viewConfirmDelete()
	case modeParks:
		return m.viewParks()
	case modeResults:
		return m.viewResults()
	default:
		return m.viewList()
	}
}

func (m consoleModel) viewList() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	s.WriteString(m.renderSearchBar())
	s.WriteString("\n")

	switch m.mode {
	case modeEdit:
		s.WriteString(m.renderTable())
		s.WriteString("\n")
		s.WriteString(m.renderEditPanel())
	case modeAdd:
		s.WriteString(m.renderAddPanel())
	default:
		s.WriteString(m.renderTable())
	}

	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m consoleModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	statsStyle := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Align(lipgloss.Right)

	title := titleStyle.Render("assetctl")
	var who []string
	if m.user != nil {
		name := m.user.UserName
		if name == "" {
			name = m.user.UserID
		}
		who = append(who, name)
	}
	if m.sel != nil {
		who = append(who, ui.IconPark+" "+selectionSummary(m.sel))
	}
	stats := statsStyle.Render(strings.Join(who, "  "))

	spacer := m.width - lipgloss.Width(title) - lipgloss.Width(stats)
	if spacer < 0 {
		spacer = 0
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", spacer),
		stats,
	)
}

func (m consoleModel) renderTabs() string {
	active := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true).
		Underline(true).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Padding(0, 1)

	parts := make([]string, len(services.Tabs))
	for i, tab := range services.Tabs {
		label := fmt.Sprintf("%d %s", i+1, tab.RecordType().Title())
		if tab == m.list.Tab {
			parts[i] = active.Render(label)
		} else {
			parts[i] = inactive.Render(label)
		}
	}

	counts := ""
	if !m.list.Loading && m.list.FetchErr == "" {
		counts = ui.StyleMuted.Render(fmt.Sprintf("  %d of %d rows", len(m.list.Visible()), len(m.list.Records)))
	}
	return strings.Join(parts, " ") + counts
}

func (m consoleModel) renderSearchBar() string {
	borderColor := ui.ColorMuted
	if m.mode == modeSearch {
		borderColor = ui.ColorPrimary
	}

	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(m.width-4, 20))

	prompt := ui.StyleMuted.Render("/ ")
	if m.mode == modeSearch {
		prompt = ui.StylePrimary.Render("/ ")
	}
	if m.list.ScanEnabled {
		prompt = ui.StyleWarning.Render(ui.IconScan + " ")
	}

	content := prompt + m.searchInput.View()
	if m.mode != modeSearch && m.list.Query == "" {
		hint := "Press / to filter, s to scan..."
		if m.list.ScanEnabled {
			hint = "Scan mode: press / and scan a code"
		}
		content = prompt + ui.StyleMuted.Render(hint)
	}
	if m.list.ScanFilterID != "" {
		content += ui.StyleAccent.Render("  id = " + m.list.ScanFilterID)
	}
	if m.searching {
		content += "  " + m.spinner.View() + ui.StyleMuted.Render(" searching all records")
	}

	return searchStyle.Render(content)
}

func (m consoleModel) renderTable() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Italic(true).
		Padding(1, 4)

	switch {
	case m.sel != nil && len(m.list.Parks) == 0:
		return emptyStyle.Render("No parks selected. Press 'p' to choose parks.")
	case m.list.Loading:
		return lipgloss.NewStyle().Padding(1, 4).Render(m.spinner.View() + " Loading " + string(m.list.Tab) + "...")
	case m.list.FetchErr != "":
		return lipgloss.NewStyle().Padding(1, 4).Render(ui.FormatError(m.list.FetchErr))
	}

	rows := m.list.Visible()
	if len(rows) == 0 {
		if m.list.Query != "" || m.list.ScanFilterID != "" {
			return emptyStyle.Render("No rows match your filter.")
		}
		return emptyStyle.Render("No records. Press 'a' to add one.")
	}

	schema := m.list.Tab.Schema()
	cols := schema.DataColumns()
	columns := make([]ui.TableColumn, 0, len(cols)+1)
	columns = append(columns, ui.TableColumn{Header: "", Width: 1})
	for _, c := range cols {
		columns = append(columns, ui.TableColumn{Header: c.Field, MaxWidth: 28})
	}
	table := ui.NewTable(columns)

	start := min(m.offset, len(rows)-1)
	end := min(start+m.listHeight(), len(rows))
	window := rows[start:end]

	for _, r := range window {
		marker := ""
		switch m.list.FlagRow(r) {
		case services.FlagDisposed:
			marker = ui.IconWarning
		case services.FlagTarget:
			marker = "→"
		}
		cells := []string{marker}
		for _, c := range cols {
			v := r.Get(c.Field)
			if m.list.Rows.IsRow(r.ID) && m.list.Rows.Draft != nil {
				if d, ok := m.list.Rows.Draft[c.Field]; ok {
					v = d
				}
			}
			if c.Kind == domain.KindDate {
				v = domain.DateOnly(v)
			}
			cells = append(cells, v)
		}
		table.AddRow(cells)
	}

	table.RowStyle = func(idx int) (lipgloss.Style, bool) {
		r := window[idx]
		switch {
		case start+idx == m.cursor:
			return ui.StyleSelected, true
		case m.list.Rows.IsRow(r.ID):
			return ui.StyleEditing, true
		}
		switch m.list.FlagRow(r) {
		case services.FlagTarget:
			return ui.StyleTarget, true
		case services.FlagDisposed:
			return ui.StyleDisposed, true
		}
		return ui.StyleTableRow, false
	}
	if q := m.list.HighlightQuery(); q != "" {
		table.Cell = func(row, col int, padded string) string {
			return services.Highlight(padded, q).Render(ui.Mark)
		}
	}

	return table.Render()
}

func (m consoleModel) renderEditPanel() string {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorAccent).
		Padding(0, 1)

	var s strings.Builder
	rows := m.list.Rows
	s.WriteString(ui.StyleHeader.Render("Edit " + rows.Type.Label()))
	s.WriteString(ui.StyleMuted.Render("  " + rows.RowID))
	s.WriteString("\n\n")

	for i, c := range m.editColumns() {
		s.WriteString(m.renderFormLine(c.Field, rows.Draft[c.Field], c.Kind, c.Options, i == m.field && rows.Phase == services.PhaseEditing))
	}

	s.WriteString("\n")
	switch {
	case m.list.Committing:
		s.WriteString(m.spinner.View() + " Saving...")
	case rows.Phase == services.PhaseConfirmEdit:
		s.WriteString(ui.StyleWarning.Render("Save these changes? Press Enter again to confirm, Esc to cancel"))
	default:
		s.WriteString(ui.StyleMuted.Render("[↑↓] Field  [←→] Choose  [Enter] Confirm  [Esc] Cancel"))
	}
	if m.list.RowErr != "" {
		s.WriteString("\n")
		s.WriteString(ui.FormatError(m.list.RowErr))
	}

	return panel.Render(s.String())
}

func (m consoleModel) renderAddPanel() string {
	w := m.list.Form()

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorSuccess).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(ui.StyleHeader.Render("Add " + w.Type.Label()))
	s.WriteString("\n\n")

	if w.Success {
		s.WriteString(ui.FormatSuccess(w.Type.Label() + " added"))
		s.WriteString("\n\n")
		s.WriteString(ui.StyleMuted.Render("[n] Add another  [Enter/Esc] Close"))
		return panel.Render(s.String())
	}

	for i, f := range domain.AddFormFields(w.Type) {
		s.WriteString(m.renderFormLine(f.Label, w.Form.Get(f.Key), f.Kind, f.Options, i == m.field))
	}

	s.WriteString("\n")
	if w.Submitting {
		s.WriteString(m.spinner.View() + " Submitting...")
	} else {
		s.WriteString(ui.StyleMuted.Render("[↑↓] Field  [←→] Choose  [Enter] Submit  [Esc] Close"))
	}
	if w.Error != "" {
		s.WriteString("\n")
		s.WriteString(ui.FormatError(w.Error))
	}

	return panel.Render(s.String())
}

// renderFormLine draws one labelled input. The focused free-text field shows
// the live text input; choice fields show their value between arrows.
func (m consoleModel) renderFormLine(label, value string, kind domain.ColumnKind, options []string, focused bool) string {
	labelStyle := lipgloss.NewStyle().Width(16)
	cursor := "  "
	if focused {
		cursor = ui.StylePrimary.Render("▶ ")
		labelStyle = labelStyle.Foreground(ui.ColorPrimary).Bold(true)
	}

	choice := m.fieldOptions(kind, options) != nil
	field := value
	switch {
	case focused && choice:
		field = ui.StyleAccent.Render("◀ " + value + " ▶")
	case focused:
		field = m.fieldInput.View()
	case value == "":
		field = ui.StyleMuted.Render("-")
	}

	return cursor + labelStyle.Render(label) + field + "\n"
}

func (m consoleModel) viewLogin() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(50)

	var s strings.Builder
	s.WriteString(ui.StyleHeader.Render("assetctl login"))
	s.WriteString(ui.StyleMuted.Render("  " + appConfig.ServerURL))
	s.WriteString("\n\n")
	s.WriteString(m.loginInputs[0].View())
	s.WriteString("\n")
	s.WriteString(m.loginInputs[1].View())
	s.WriteString("\n\n")

	check := "[ ]"
	if m.remember {
		check = "[x]"
	}
	s.WriteString(ui.StyleMuted.Render(check + " Remember for 7 days (ctrl+r)"))
	s.WriteString("\n")

	if m.loggingIn {
		s.WriteString("\n" + m.spinner.View() + " Logging in...")
	}
	if m.loginErr != "" {
		s.WriteString("\n")
		s.WriteString(ui.FormatError(m.loginErr))
	}

	box := boxStyle.Render(s.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m consoleModel) viewHelp() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		Padding(1, 2)

	sectionStyle := lipgloss.NewStyle().
		Foreground(ui.ColorAccent).
		Bold(true).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(ui.ColorSuccess).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(ui.ColorDefault)

	s.WriteString(titleStyle.Render("assetctl console - Keyboard Shortcuts"))
	s.WriteString("\n\n")

	sections := []struct {
		title string
		keys  []struct{ key, desc string }
	}{
		{
			title: "Navigation",
			keys: []struct{ key, desc string }{
				{"↑ / k", "Move cursor up"},
				{"↓ / j", "Move cursor down"},
				{"g / G", "Jump to top / bottom"},
				{"1 2 3", "Details, transfer or disposal tab"},
				{"tab", "Next tab"},
			},
		},
		{
			title: "Rows",
			keys: []struct{ key, desc string }{
				{"e", "Edit row (Enter twice saves)"},
				{"d", "Delete row (with confirmation)"},
				{"a", "Add a record to this tab"},
				{"Enter / o", "Open the disposal of a tagged asset"},
				{"y", "Copy row id"},
				{"r", "Refresh"},
			},
		},
		{
			title: "Filter & Search",
			keys: []struct{ key, desc string }{
				{"/", "Filter rows (Enter searches every record type)"},
				{"s", "Toggle scan mode (scanned ids filter exactly)"},
				{"Esc", "Clear filter / Cancel"},
			},
		},
		{
			title: "General",
			keys: []struct{ key, desc string }{
				{"p", "Choose area or park"},
				{"?", "Show this help"},
				{"q", "Quit console"},
				{"Ctrl+C", "Force quit"},
			},
		},
	}

	for _, section := range sections {
		s.WriteString(sectionStyle.Render(section.title))
		s.WriteString("\n")
		for _, binding := range section.keys {
			s.WriteString("  ")
			s.WriteString(keyStyle.Render(binding.key))
			s.WriteString(descStyle.Render(binding.desc))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render("  Press ESC or ? to return to the console"))
	s.WriteString("\n")

	return s.String()
}

func (m consoleModel) viewConfirmDelete() string {
	row, ok := m.list.Row(m.list.Rows.RowID)
	if !ok {
		return ""
	}

	var s strings.Builder

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorWarning).
		Padding(1, 2).
		Width(60).
		Align(lipgloss.Center)

	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorWarning).
		Bold(true)

	recordStyle := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true)

	promptStyle := lipgloss.NewStyle().
		Foreground(ui.ColorDefault).
		MarginTop(1)

	prompt := promptStyle.Render("Press 'y' to confirm, 'n' or ESC to cancel")
	if m.list.Committing {
		prompt = m.spinner.View() + " Deleting..."
	}

	content := fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		titleStyle.Render(ui.IconWarning+"  Delete "+row.Type.Label()+"?"),
		recordStyle.Render(recordLabel(row)),
		ui.StyleMuted.Render(row.ID),
		prompt,
	)
	if m.list.RowErr != "" {
		content += "\n\n" + ui.FormatError(m.list.RowErr)
	}

	box := boxStyle.Render(content)

	// Center the box vertically
	verticalPadding := (m.height - lipgloss.Height(box)) / 2
	if verticalPadding < 0 {
		verticalPadding = 0
	}

	for i := 0; i < verticalPadding; i++ {
		s.WriteString("\n")
	}

	// Center horizontally
	s.WriteString(lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, box))

	return s.String()
}

func (m consoleModel) viewParks() string {
	var s strings.Builder

	s.WriteString("\n")
	s.WriteString(ui.StyleHeader.Render("  Choose parks"))
	s.WriteString(ui.StyleMuted.Render("  (" + selectionSummary(m.sel) + ")"))
	s.WriteString("\n\n")

	for i, item := range m.parkItems() {
		cursor := "    "
		style := lipgloss.NewStyle().Foreground(ui.ColorDefault)
		if i == m.parkCursor {
			cursor = ui.StyleAccent.Render("  → ")
			style = ui.StyleSuccess
		}

		mark := "  "
		if item.park != "" && m.sel.IsSelected(item.park) {
			mark = ui.IconPark + " "
		}
		if item.area != "" && m.sel.Area() != nil && m.sel.Area().Code == item.area {
			mark = ui.IconPark + " "
		}

		s.WriteString(cursor)
		s.WriteString(mark)
		s.WriteString(style.Render(item.label))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render("  [↑↓] Navigate  [Enter] Select  [p/Esc] Back"))
	s.WriteString("\n")
	return s.String()
}

func (m consoleModel) viewResults() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")
	s.WriteString(ui.StyleHeader.Render(fmt.Sprintf("  Search: %s", m.resultsFor)))
	s.WriteString(ui.StyleMuted.Render(fmt.Sprintf("  %d matches across all record types", len(m.results))))
	s.WriteString("\n\n")

	if len(m.results) == 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true).Padding(1, 4).Render("No records match."))
	} else {
		height := m.listHeight()
		start := 0
		if m.resultCur >= height {
			start = m.resultCur - height + 1
		}
		end := min(start+height, len(m.results))

		table := searchTable(m.results[start:end], m.resultsFor)
		base := table.RowStyle
		table.RowStyle = func(idx int) (lipgloss.Style, bool) {
			if start+idx == m.resultCur {
				return ui.StyleSelected, true
			}
			return base(idx)
		}
		s.WriteString(table.Render())
	}

	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render("  [↑↓] Navigate  [Enter] Open in tab  [y] Copy id  [Esc] Back  [q] Quit"))
	s.WriteString("\n")
	return s.String()
}

func (m consoleModel) renderFooter() string {
	// Status message
	var statusLine string
	if m.message != "" && m.now().Before(m.messageExpiry) {
		statusLine = m.messageStyle.Render(m.message)
	} else if m.list.Rows.Phase != services.PhaseIdle && m.mode == modeList {
		statusLine = ui.StyleWarning.Render(m.list.Rows.Phase.String())
	} else {
		statusLine = ui.StyleMuted.Render("Ready")
	}

	footerStyle := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		statusLine,
		m.help.ShortHelpView(m.keys.ShortHelp()),
	)

	return footerStyle.Render(content)
}
