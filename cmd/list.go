package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	listQuery string
	listJSON  bool
	listParks []string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list <asset|transfer|disposal>",
	Aliases: []string{"ls"},
	Short:   "List records of the selected parks (alias: ls)",
	Long: `List the records of one type for the selected parks, newest first.

Examples:
  assetctl list asset
  assetctl ls transfer -q pump
  assetctl list disposal --park NP360 --json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"asset", "transfer", "disposal"},
	RunE:      runList,
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only show rows containing this text")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the rows as JSON")
	listCmd.Flags().StringSliceVar(&listParks, "park", nil, "Parks to list instead of the saved selection")
}

func runList(cmd *cobra.Command, args []string) error {
	t, err := domain.ParseRecordType(args[0])
	if err != nil {
		return err
	}

	ctx := getContext()
	parkIDs := listParks
	if len(parkIDs) == 0 {
		parkIDs, err = selectedParkIDs(ctx)
		if err != nil {
			return err
		}
	}

	records, err := fetcher.Fetch(ctx, t, parkIDs)
	if err != nil {
		printErr("Failed to list records", err)
		return err
	}
	records = services.FilterRecords(records, listQuery)

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		if listQuery != "" {
			fmt.Println(ui.FormatWarning("No " + t.Endpoint() + " match: " + listQuery))
		} else {
			fmt.Println(ui.FormatWarning("No " + t.Endpoint() + " found"))
		}
		return nil
	}

	fmt.Println(ui.FormatTitle(t.Title()))
	fmt.Println()
	fmt.Print(recordTable(t, records, listQuery).Render())
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d %s", len(records), t.Endpoint())))
	return nil
}
