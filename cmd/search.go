package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search assets, transfers and disposals at once",
	Long: `Search every record type of the selected parks.

Rows containing the query in any field are listed with their type.
Disposal rows and assets tagged for disposal are highlighted.

Examples:
  assetctl search pump
  assetctl search A-17 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the rows as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	parkIDs, err := selectedParkIDs(ctx)
	if err != nil {
		return err
	}

	query := args[0]
	resp, err := searchService.Execute(ctx, services.SearchRequest{
		Query:       query,
		LocationIDs: parkIDs,
	})
	if err != nil {
		printErr("Search failed", err)
		return err
	}

	if searchJSON {
		type row struct {
			Type       string            `json:"type"`
			ID         string            `json:"_id"`
			IsDisposal bool              `json:"isDisposal"`
			Values     map[string]string `json:"values"`
		}
		out := make([]row, len(resp.Rows))
		for i, r := range resp.Rows {
			out[i] = row{Type: string(r.Source), ID: r.ID, IsDisposal: r.IsDisposal, Values: r.Record.Values}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(resp.Rows) == 0 {
		fmt.Println(ui.FormatWarning("No records match: " + query))
		return nil
	}

	fmt.Print(searchTable(resp.Rows, query).Render())
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d of %d records match", len(resp.Rows), resp.Total)))
	return nil
}

// searchTable lays out combined rows in the cross-type columns
func searchTable(rows []services.SearchRow, query string) *ui.Table {
	columns := make([]ui.TableColumn, len(services.SearchColumns))
	for i, c := range services.SearchColumns {
		columns[i] = ui.TableColumn{Header: c, MaxWidth: 24}
	}
	table := ui.NewTable(columns)

	for _, r := range rows {
		cells := make([]string, len(services.SearchColumns))
		for i, c := range services.SearchColumns {
			cells[i] = r.Cell(c)
		}
		table.AddRow(cells)
	}

	table.RowStyle = func(idx int) (lipgloss.Style, bool) {
		if rows[idx].IsDisposal {
			return ui.StyleDisposed, true
		}
		return ui.StyleTableRow, false
	}
	table.Cell = func(row, col int, padded string) string {
		return services.Highlight(padded, query).Render(ui.Mark)
	}
	return table
}
