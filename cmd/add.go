package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var addSet []string

var addCmd = &cobra.Command{
	Use:   "add <asset|transfer|disposal>",
	Short: "Create a record",
	Long: `Create an asset, transfer or disposal record.

Fields are given with --set; without any --set every field is prompted for.
Location and To default to the first selected park, When to today.

Fields:
  asset     Location, Old Asset Code, SN, Details
  transfer  Old Asset Code, By, To, Reason (Operation|Repair), whenDate
  disposal  Location, Old Asset Code, SN, Details,
            reasonBase (Scrapped|Sold to Third Party|Trade in), Vendor, whenDate

Examples:
  assetctl add asset --set Details="Water pump" --set SN=WP-114
  assetctl add transfer --set "Old Asset Code=A-17" --set To=NP361
  assetctl add disposal`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"asset", "transfer", "disposal"},
	RunE:      runAdd,
}

func init() {
	addCmd.Flags().StringArrayVar(&addSet, "set", nil, "Field value as key=value (repeatable)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	t, err := domain.ParseRecordType(args[0])
	if err != nil {
		return err
	}

	ctx := getContext()
	parkIDs, err := selectedParkIDs(ctx)
	if err != nil {
		return err
	}

	w := services.NewAddWorkflow(t, time.Now)
	w.ApplyDefaults(parkIDs)
	w.Show()

	if len(addSet) > 0 {
		values, err := parseAssignments(addSet)
		if err != nil {
			return err
		}
		if err := applyFormValues(w, values); err != nil {
			return err
		}
	} else {
		if err := promptForm(os.Stdin, w, parkIDs); err != nil {
			return err
		}
	}

	req, ok := w.Prepare()
	if !ok {
		fmt.Println(ui.FormatError(w.Error))
		return fmt.Errorf("invalid %s: %s", t, w.Error)
	}

	item, err := addService.Send(ctx, req)
	w.Finish(err)
	if err != nil {
		printErr(services.MsgAddFailed, err)
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s added", t.Label())))
	fmt.Println(ui.RenderKeyValue("ID", item.ID))
	if code := item.Get(domain.FieldOldCode); code != "" {
		fmt.Println(ui.RenderKeyValue(domain.FieldOldCode, code))
	}
	return nil
}

// applyFormValues sets form inputs, rejecting keys the form does not have
func applyFormValues(w *services.AddWorkflow, values map[string]string) error {
	fields := domain.AddFormFields(w.Type)
	for k, v := range values {
		idx := slices.IndexFunc(fields, func(f domain.FormField) bool {
			return f.Key == k || strings.EqualFold(f.Label, k)
		})
		if idx < 0 {
			return fmt.Errorf("unknown %s field %q", w.Type, k)
		}
		f := fields[idx]
		if f.Kind == domain.KindEnum && v != "" && !slices.Contains(f.Options, v) {
			return fmt.Errorf("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
		}
		w.Set(f.Key, v)
	}
	return nil
}

// promptForm asks for every field of the form, showing the current value as default
func promptForm(in io.Reader, w *services.AddWorkflow, parkIDs []string) error {
	reader := bufio.NewReader(in)
	fmt.Println(ui.FormatTitle("New " + w.Type.Label()))
	fmt.Println()

	for _, f := range domain.AddFormFields(w.Type) {
		current := w.Form.Get(f.Key)
		hint := ""
		switch f.Kind {
		case domain.KindEnum:
			hint = strings.Join(f.Options, "|")
		case domain.KindLocation:
			hint = strings.Join(parkIDs, "|")
		case domain.KindDate:
			hint = "YYYY-MM-DD"
		}

		prompt := f.Label
		if hint != "" {
			prompt += " " + ui.FormatMuted("("+hint+")")
		}
		if current != "" {
			prompt += " [" + current + "]"
		}
		fmt.Print(ui.StyleAccent.Render(prompt) + ": ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return errCancelled
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if f.Kind == domain.KindEnum && !slices.Contains(f.Options, line) {
			return fmt.Errorf("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
		}
		w.Set(f.Key, line)
	}
	fmt.Println()
	return nil
}
