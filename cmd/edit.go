package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	editSet []string
	editYes bool
)

var editCmd = &cobra.Command{
	Use:   "edit <asset|transfer|disposal> [id]",
	Short: "Edit a record",
	Long: `Edit the editable fields of a record.

Without an id a picker lists the records of the selected parks. Changes
are given with --set or prompted for, then confirmed twice before they are
sent. --yes skips both confirmations.

Examples:
  assetctl edit asset 65f0a1c2e4b0a1c2e4b0a1c2 --set Details="Pump, rebuilt"
  assetctl edit transfer --set Reason=Repair`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringArrayVar(&editSet, "set", nil, "New field value as key=value (repeatable)")
	editCmd.Flags().BoolVarP(&editYes, "yes", "y", false, "Skip confirmation")
}

func runEdit(cmd *cobra.Command, args []string) error {
	t, err := domain.ParseRecordType(args[0])
	if err != nil {
		return err
	}
	id := ""
	if len(args) == 2 {
		id = args[1]
	}

	ctx := getContext()
	rec, parkIDs, err := findRecord(ctx, t, id)
	if errors.Is(err, errCancelled) {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}
	if err != nil {
		printErr("Failed to load record", err)
		return err
	}

	state := services.RowState{}.StartEdit(rec)
	stdin := bufio.NewReader(os.Stdin)

	if len(editSet) > 0 {
		values, err := parseAssignments(editSet)
		if err != nil {
			return err
		}
		for k, v := range values {
			if state, err = state.SetField(k, v, parkIDs); err != nil {
				fmt.Println(ui.FormatError(err.Error()))
				return err
			}
		}
	} else {
		if state, err = promptDraft(stdin, state, parkIDs); err != nil {
			if errors.Is(err, errCancelled) {
				fmt.Println(ui.FormatInfo("Operation cancelled."))
				return nil
			}
			return err
		}
	}

	changes := draftChanges(rec, state)
	if len(changes) == 0 {
		fmt.Println(ui.FormatInfo("No changes"))
		return nil
	}
	fmt.Println(ui.FormatTitle(fmt.Sprintf("Edit %s %s", t.Label(), rec.ID)))
	fmt.Print(ui.RenderSimpleList(changes))
	fmt.Println()

	if !editYes && !confirm(stdin, "Apply these changes?") {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}
	if state, err = state.Confirm(); err != nil {
		return err
	}
	if !editYes && !confirm(stdin, "Are you sure you want to update this record?") {
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

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s updated", t.Label())))
	return nil
}

// promptDraft asks for each editable column, keeping the value on empty input
func promptDraft(in io.Reader, state services.RowState, parkIDs []string) (services.RowState, error) {
	reader := bufio.NewReader(in)
	for _, c := range domain.SchemaFor(state.Type).EditableColumns() {
		hint := ""
		switch c.Kind {
		case domain.KindEnum:
			hint = " " + ui.FormatMuted("("+strings.Join(c.Options, "|")+")")
		case domain.KindLocation:
			hint = " " + ui.FormatMuted("("+strings.Join(parkIDs, "|")+")")
		case domain.KindDate:
			hint = " " + ui.FormatMuted("(YYYY-MM-DD)")
		}
		fmt.Print(ui.StyleAccent.Render(c.Field) + hint + " [" + state.Draft[c.Field] + "]: ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return state, errCancelled
			}
			return state, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		next, err := state.SetField(c.Field, line, parkIDs)
		if err != nil {
			fmt.Println(ui.FormatError(err.Error()))
			continue
		}
		state = next
	}
	fmt.Println()
	return state, nil
}

// draftChanges lists the fields whose draft value differs from the record
func draftChanges(rec domain.Record, state services.RowState) []string {
	var out []string
	for _, c := range domain.SchemaFor(rec.Type).EditableColumns() {
		before := rec.Get(c.Field)
		if c.Kind == domain.KindDate {
			before = domain.DateOnly(before)
		}
		if after := state.Draft[c.Field]; after != before {
			out = append(out, fmt.Sprintf("%s: %s → %s", c.Field, ui.FormatMuted(before), after))
		}
	}
	return out
}
