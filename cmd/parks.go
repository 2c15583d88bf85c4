package cmd

import (
	"fmt"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	parksSelectArea string
	parksSelectAll  bool
)

var parksCmd = &cobra.Command{
	Use:   "parks",
	Short: "Show and choose the parks you are working on",
	Long: `Show and choose the parks you are working on.

The selection is saved with the session and used by list, add, search,
export, report and the console.`,
	RunE: runParksList,
}

var parksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your parks and mark the selected ones",
	RunE:    runParksList,
}

var parksAreasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List the areas that hold your parks",
	RunE:  runParksAreas,
}

var parksSelectCmd = &cobra.Command{
	Use:   "select [park-id...]",
	Short: "Choose the parks to work on",
	Long: `Choose the parks to work on.

With park ids the selection becomes exactly those parks. With --area every
park of that area is selected; --all selects every granted park. Without
arguments a picker opens (tab to mark several).

Examples:
  assetctl parks select NP360 NP361
  assetctl parks select --area N
  assetctl parks select --all`,
	RunE: runParksSelect,
}

func init() {
	parksSelectCmd.Flags().StringVar(&parksSelectArea, "area", "", "Select every park of an area (code or id)")
	parksSelectCmd.Flags().BoolVar(&parksSelectAll, "all", false, "Select every granted park")

	parksCmd.AddCommand(parksListCmd)
	parksCmd.AddCommand(parksAreasCmd)
	parksCmd.AddCommand(parksSelectCmd)
}

func runParksList(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}
	sel, err := loadSelection(ctx, user)
	if err != nil {
		printErr("Failed to load parks", err)
		return err
	}

	parks := sel.UserParks()
	if len(parks) == 0 {
		fmt.Println(ui.FormatWarning("No parks are granted to this account"))
		return nil
	}

	fmt.Println(ui.FormatTitle(fmt.Sprintf("Parks (%d selected of %d)", len(sel.SelectedIDs()), len(parks))))
	fmt.Println()

	table := ui.NewTable([]ui.TableColumn{
		{Header: "", Width: 1},
		{Header: "Park", Width: 8},
		{Header: "Name", MaxWidth: 40},
		{Header: "Area", Width: 4},
	})
	for _, p := range parks {
		mark := ""
		if sel.IsSelected(p.ParkID) {
			mark = ui.IconPark
		}
		table.AddRow([]string{mark, p.ParkID, p.Name, p.AreaCode})
	}
	fmt.Print(table.Render())
	return nil
}

func runParksAreas(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}
	sel, err := loadSelection(ctx, user)
	if err != nil {
		printErr("Failed to load areas", err)
		return err
	}

	areas := sel.Areas()
	if len(areas) == 0 {
		fmt.Println(ui.FormatWarning("No areas found"))
		return nil
	}

	fmt.Println(ui.FormatTitle("Areas"))
	fmt.Println()
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Code", Width: 4},
		{Header: "Name", MaxWidth: 40},
		{Header: "Parks", Align: "right"},
	})
	counts := make(map[string]int)
	for _, p := range sel.UserParks() {
		counts[p.AreaCode]++
	}
	for _, a := range areas {
		table.AddRow([]string{a.Code, a.Name, fmt.Sprint(counts[a.Code])})
	}
	fmt.Print(table.Render())
	return nil
}

func runParksSelect(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}
	sel, err := loadSelection(ctx, user)
	if err != nil {
		printErr("Failed to load parks", err)
		return err
	}

	switch {
	case parksSelectAll:
		sel.ChooseArea("")

	case parksSelectArea != "":
		if err := sel.ChooseArea(parksSelectArea); err != nil {
			fmt.Println(ui.FormatError(err.Error()))
			return err
		}

	case len(args) > 0:
		if rejected := sel.Select(args); len(rejected) > 0 {
			fmt.Println(ui.FormatWarning("Not granted, skipped: " + strings.Join(rejected, ", ")))
		}

	default:
		ids, err := pickParks(sel.UserParks())
		if err != nil {
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		sel.Select(ids)
	}

	ids := sel.SelectedIDs()
	if len(ids) == 0 {
		fmt.Println(ui.FormatWarning("Nothing selected; selection unchanged"))
		return nil
	}
	if err := session.SetSelectedParkIDs(ids); err != nil {
		return err
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Selected %d park(s): %s", len(ids), strings.Join(ids, ", "))))
	return nil
}

// pickParks opens a multi-select picker over parks
func pickParks(parks []domain.Park) ([]string, error) {
	idxs, err := fuzzyfinder.FindMulti(
		parks,
		func(i int) string {
			return parks[i].Label()
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			p := parks[i]
			return fmt.Sprintf("Park: %s\nName: %s\nArea: %s", p.ParkID, p.Name, p.AreaCode)
		}),
	)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(idxs))
	for i, idx := range idxs {
		ids[i] = parks[idx].ParkID
	}
	return ids, nil
}

// selectionSummary describes the selection for headers
func selectionSummary(sel *services.ParkSelection) string {
	ids := sel.SelectedIDs()
	switch {
	case len(ids) == 0:
		return "no parks"
	case sel.Area() != nil && sel.IsAllInAreaSelected():
		return "all of " + sel.Area().Code
	case len(ids) == len(sel.UserParks()):
		return "all parks"
	case len(ids) <= 3:
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%d parks", len(ids))
}
