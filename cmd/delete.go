package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <asset|transfer|disposal> [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a record (alias: rm)",
	Long: `Delete a record after confirmation.

Without an id a picker lists the records of the selected parks.

Examples:
  assetctl delete disposal 65f0a1c2e4b0a1c2e4b0a1c2
  assetctl rm asset`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	t, err := domain.ParseRecordType(args[0])
	if err != nil {
		return err
	}
	id := ""
	if len(args) == 2 {
		id = args[1]
	}

	ctx := getContext()
	rec, _, err := findRecord(ctx, t, id)
	if errors.Is(err, errCancelled) {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}
	if err != nil {
		printErr("Failed to load record", err)
		return err
	}

	fmt.Println(ui.FormatTitle(fmt.Sprintf("Delete %s", t.Label())))
	fmt.Print(recordPreview(rec))
	fmt.Println()

	state := services.RowState{}.StartDelete(rec)
	if !deleteYes && !confirm(os.Stdin, "Are you sure you want to delete this record?") {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}

	commit, err := state.Commit()
	if err != nil {
		return err
	}
	if err := rowEditor.Execute(ctx, commit); err != nil {
		fmt.Println(ui.FormatError(commit.FailureMessage(err)))
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s deleted", t.Label())))
	return nil
}
