package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	showType  string
	showPlain bool
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one record as JSON",
	Long: `Print a record of the selected parks as highlighted JSON.

The id is looked up across all record types unless --type is given.
Without an id a picker lists every record.

Examples:
  assetctl show 65f0a1c2e4b0a1c2e4b0a1c2
  assetctl show --type transfer`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showType, "type", "t", "", "Record type to look in")
	showCmd.Flags().BoolVar(&showPlain, "plain", false, "Disable syntax highlighting")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	parkIDs, err := selectedParkIDs(ctx)
	if err != nil {
		return err
	}

	var rows []services.SearchRow
	if showType != "" {
		t, err := domain.ParseRecordType(showType)
		if err != nil {
			return err
		}
		records, err := fetcher.Fetch(ctx, t, parkIDs)
		if err != nil {
			printErr("Failed to load records", err)
			return err
		}
		rows = make([]services.SearchRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, services.SearchRow{Record: r, Source: t})
		}
	} else {
		sets, err := searchService.LoadAll(ctx, parkIDs)
		if err != nil {
			printErr("Failed to load records", err)
			return err
		}
		rows = services.CombineRecords(sets[domain.RecordAsset], sets[domain.RecordTransfer], sets[domain.RecordDisposal])
	}

	var rec domain.Record
	if len(args) == 1 {
		found := false
		for _, r := range rows {
			if r.ID == args[0] {
				rec, found = r.Record, true
				break
			}
		}
		if !found {
			fmt.Println(ui.FormatWarning("No record with id " + args[0] + " in the selected parks"))
			return fmt.Errorf("record %s not found", args[0])
		}
	} else {
		records := make([]domain.Record, len(rows))
		for i, r := range rows {
			records[i] = r.Record
		}
		if len(records) == 0 {
			fmt.Println(ui.FormatWarning("No records found"))
			return nil
		}
		picked, err := pickRecord(records)
		if err != nil {
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		rec = picked
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	fmt.Println(ui.StyleHeader.Render(rec.Type.Label()))
	if showPlain || appConfig.ColorTheme == ui.ThemeNone {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(highlightJSON(string(data)))
	return nil
}

// highlightJSON applies syntax highlighting to JSON content
func highlightJSON(content string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.TTY16m

	var buf strings.Builder
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	if err := formatter.Format(&buf, style, iterator); err != nil {
		return content
	}

	return buf.String()
}
