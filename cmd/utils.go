package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

// errCancelled is returned when the user backs out of a prompt or picker
var errCancelled = errors.New("operation cancelled")

// requireUser restores the session or tells the user to log in
func requireUser(ctx context.Context) (*domain.User, error) {
	user, err := authService.Restore(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNotLoggedIn) {
			fmt.Println(ui.FormatWarning("Not logged in"))
			fmt.Println(ui.FormatInfo("Run 'assetctl login' first"))
		}
		return nil, err
	}
	return user, nil
}

// loadSelection builds the park selection of user and restores the persisted
// choice. A stored selection that no longer matches any granted park falls
// back to all user parks.
func loadSelection(ctx context.Context, user *domain.User) (*services.ParkSelection, error) {
	parks, err := backend.ListParks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parks: %w", err)
	}
	areas, err := backend.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load areas: %w", err)
	}

	sel := services.NewParkSelection(*user, parks, areas)
	stored, err := session.SelectedParkIDs()
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		sel.Select(stored)
		if len(sel.SelectedIDs()) == 0 {
			sel.ChooseArea("")
		}
	}
	return sel, nil
}

// selectedParkIDs is the shortcut used by the one-shot record commands
func selectedParkIDs(ctx context.Context) ([]string, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := loadSelection(ctx, user)
	if err != nil {
		return nil, err
	}
	return sel.SelectedIDs(), nil
}

// parseAssignments turns repeated key=value flags into a map
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
		}
		out[k] = v
	}
	return out, nil
}

// recordLabel is the one-line description of a record used in pickers
func recordLabel(r domain.Record) string {
	parts := []string{}
	for _, c := range domain.SchemaFor(r.Type).DataColumns() {
		if v := r.Get(c.Field); v != "" && c.Kind != domain.KindReadOnly {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return r.ID
	}
	return strings.Join(parts, " | ")
}

// recordPreview renders every field of a record for preview panes
func recordPreview(r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", r.Type.Label(), r.ID)
	for _, k := range r.Keys() {
		fmt.Fprintf(&b, "%s: %s\n", k, r.Values[k])
	}
	return b.String()
}

// pickRecord selects a record with the fuzzy finder
func pickRecord(records []domain.Record) (domain.Record, error) {
	if len(records) == 1 {
		return records[0], nil
	}
	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string {
			return recordLabel(records[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return recordPreview(records[i])
		}),
	)
	if err != nil {
		return domain.Record{}, errCancelled
	}
	return records[idx], nil
}

// findRecord resolves a record of t by id among the selected parks, or
// lets the user pick one when id is empty
func findRecord(ctx context.Context, t domain.RecordType, id string) (domain.Record, []string, error) {
	parkIDs, err := selectedParkIDs(ctx)
	if err != nil {
		return domain.Record{}, nil, err
	}
	records, err := fetcher.Fetch(ctx, t, parkIDs)
	if err != nil {
		return domain.Record{}, nil, err
	}
	if len(records) == 0 {
		return domain.Record{}, nil, fmt.Errorf("no %s records in the selected parks", t)
	}

	if id == "" {
		r, err := pickRecord(records)
		return r, parkIDs, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, parkIDs, nil
		}
	}
	return domain.Record{}, nil, fmt.Errorf("%s %s not found in the selected parks", t.Label(), id)
}

// confirm asks a yes/no question on stdin
func confirm(in io.Reader, prompt string) bool {
	fmt.Print(ui.StyleWarning.Render(prompt + " (y/n): "))
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// recordTable lays out records in their tab's fixed columns. Matches of
// query are marked and disposed assets are emphasised.
func recordTable(t domain.RecordType, records []domain.Record, query string) *ui.Table {
	schema := domain.SchemaFor(t)
	cols := schema.DataColumns()

	columns := []ui.TableColumn{{Header: "ID", Width: 8, MaxWidth: 24}}
	for _, c := range cols {
		columns = append(columns, ui.TableColumn{Header: c.Field, MaxWidth: 32})
	}
	table := ui.NewTable(columns)

	tab := services.TabFor(t)
	for _, r := range records {
		row := []string{r.ID}
		for _, c := range cols {
			v := r.Get(c.Field)
			if c.Kind == domain.KindDate {
				v = domain.DateOnly(v)
			}
			row = append(row, v)
		}
		table.AddRow(row)
	}

	table.RowStyle = func(idx int) (lipgloss.Style, bool) {
		if services.FlagRow(tab, records[idx], "") == services.FlagDisposed {
			return ui.StyleDisposed, true
		}
		return ui.StyleTableRow, false
	}
	if query != "" {
		table.Cell = func(row, col int, padded string) string {
			return services.Highlight(padded, query).Render(ui.Mark)
		}
	}
	return table
}

// printErr prints err, preferring the server's message over msg
func printErr(msg string, err error) {
	fmt.Fprintln(os.Stderr, ui.FormatError(services.DisplayMessage(err, msg)))
}

// readPassword reads a password without echo when stdin is a terminal
func readPassword(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
