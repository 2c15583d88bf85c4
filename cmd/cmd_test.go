package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/services"
)

// TestCommandStructure verifies that all commands are properly registered
func TestCommandStructure(t *testing.T) {
	commands := []string{
		"login", "logout", "whoami", "parks", "list", "add", "edit", "delete",
		"search", "show", "export", "report", "console", "serve", "admin",
		"config", "version",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", cmdName, err)
			}
			if cmd == nil {
				t.Fatalf("Command '%s' is nil", cmdName)
			}
			if cmd.Use == "" {
				t.Errorf("Command '%s' has no Use field", cmdName)
			}
		})
	}
}

func TestSubcommands(t *testing.T) {
	tests := [][]string{
		{"parks", "list"},
		{"parks", "areas"},
		{"parks", "select"},
		{"config", "show"},
		{"config", "set"},
		{"config", "path"},
		{"admin", "add-area"},
		{"admin", "add-park"},
		{"admin", "add-user"},
		{"admin", "grant"},
		{"admin", "cleanup"},
		{"admin", "seed"},
	}

	for _, path := range tests {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			cmd, _, err := rootCmd.Find(path)
			if err != nil {
				t.Fatalf("Command not found: %v", err)
			}
			if cmd.Name() != path[len(path)-1] {
				t.Errorf("Expected '%s', got '%s'", path[len(path)-1], cmd.Name())
			}
		})
	}
}

// TestRootCommandExists verifies the root command is properly configured
func TestRootCommandExists(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("Root command is nil")
	}

	if rootCmd.Use != "assetctl" {
		t.Errorf("Expected root command Use to be 'assetctl', got '%s'", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Root command Short description is empty")
	}
}

// TestCommandsHaveHelp verifies all commands have help text
func TestCommandsHaveHelp(t *testing.T) {
	commands := rootCmd.Commands()

	if len(commands) == 0 {
		t.Fatal("No commands registered")
	}

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			if cmd.Short == "" {
				t.Errorf("Command '%s' has no Short description", cmd.Name())
			}
		})
	}
}

func TestIsServerCommand(t *testing.T) {
	tests := []struct {
		path []string
		want bool
	}{
		{[]string{"serve"}, true},
		{[]string{"admin", "grant"}, true},
		{[]string{"version"}, true},
		{[]string{"console"}, false},
		{[]string{"parks", "list"}, false},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.path, " "), func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.path)
			if err != nil {
				t.Fatalf("Command not found: %v", err)
			}
			if got := isServerCommand(cmd); got != tt.want {
				t.Errorf("isServerCommand() = %v, want %v", got, tt.want)
			}
		})
	}

	if isServerCommand(&cobra.Command{Use: "orphan"}) {
		t.Error("Expected a detached command not to be a server command")
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"Details=Water pump", " SN =X1", "Vendor="})
	if err != nil {
		t.Fatalf("parseAssignments failed: %v", err)
	}
	want := map[string]string{"Details": "Water pump", "SN": "X1", "Vendor": ""}
	if len(got) != len(want) {
		t.Fatalf("Expected %d values, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got[k])
		}
	}

	for _, bad := range []string{"Details", "=value"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestRecordLabel(t *testing.T) {
	r := domain.NewRecord(domain.RecordAsset, "abc", map[string]string{
		domain.FieldLocation: "P1",
		domain.FieldOldCode:  "A-1",
		domain.FieldDetails:  "Pump",
		domain.FieldTag:      domain.TagDisposal,
	})

	label := recordLabel(r)
	if label != "P1 | A-1 | Pump" {
		t.Errorf("Expected 'P1 | A-1 | Pump', got %q", label)
	}

	empty := domain.NewRecord(domain.RecordAsset, "abc", nil)
	if got := recordLabel(empty); got != "abc" {
		t.Errorf("Expected the id for an empty record, got %q", got)
	}
}

func TestDraftChanges(t *testing.T) {
	r := domain.NewRecord(domain.RecordAsset, "abc", map[string]string{
		domain.FieldLocation: "P1",
		domain.FieldDetails:  "Pump",
	})
	state := services.RowState{}.StartEdit(r)

	if got := draftChanges(r, state); len(got) != 0 {
		t.Errorf("Expected no changes, got %v", got)
	}

	state, err := state.SetField(domain.FieldDetails, "Rebuilt pump", []string{"P1"})
	if err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	got := draftChanges(r, state)
	if len(got) != 1 {
		t.Fatalf("Expected one change, got %v", got)
	}
	if !strings.HasPrefix(got[0], domain.FieldDetails+": ") || !strings.HasSuffix(got[0], "Rebuilt pump") {
		t.Errorf("Unexpected change line %q", got[0])
	}
}

func TestApplyFormValues(t *testing.T) {
	w := services.NewAddWorkflow(domain.RecordDisposal, nil)

	err := applyFormValues(w, map[string]string{
		"Old Asset Code":   "A-9",
		"reason":           domain.ReasonSold,
		domain.FieldVendor: "Acme",
	})
	if err != nil {
		t.Fatalf("applyFormValues failed: %v", err)
	}
	if got := w.Form.Get(domain.FieldOldCode); got != "A-9" {
		t.Errorf("Expected old code A-9, got %q", got)
	}
	if got := w.Form.Get(domain.FormReasonBase); got != domain.ReasonSold {
		t.Errorf("Expected the reason matched by label, got %q", got)
	}

	if err := applyFormValues(w, map[string]string{"Color": "red"}); err == nil {
		t.Error("Expected an error for an unknown field")
	}
	if err := applyFormValues(w, map[string]string{"Reason": "Lost"}); err == nil {
		t.Error("Expected an error for a reason outside the options")
	}
}

func TestPromptForm(t *testing.T) {
	w := services.NewAddWorkflow(domain.RecordAsset, nil)
	w.ApplyDefaults([]string{"P1", "P2"})

	// Location keeps its default, SN stays empty
	in := strings.NewReader("\nA-5\n\nPump\n")
	if err := promptForm(in, w, []string{"P1", "P2"}); err != nil {
		t.Fatalf("promptForm failed: %v", err)
	}

	want := map[string]string{
		domain.FieldLocation: "P1",
		domain.FieldOldCode:  "A-5",
		domain.FieldSN:       "",
		domain.FieldDetails:  "Pump",
	}
	for k, v := range want {
		if got := w.Form.Get(k); got != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got)
		}
	}
}

func TestPromptFormEOFCancels(t *testing.T) {
	w := services.NewAddWorkflow(domain.RecordAsset, nil)
	if err := promptForm(strings.NewReader(""), w, nil); err != errCancelled {
		t.Errorf("Expected errCancelled, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := confirm(strings.NewReader(tt.input), "Continue?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitParkFlags(t *testing.T) {
	got := splitParkFlags([]string{"P1,P2", " P3 ", ""})
	want := []string{"P1", "P2", "P3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSelectionSummary(t *testing.T) {
	user := domain.User{UserID: "ops", ParkIDs: []string{"P1", "P2", "P3", "P4"}}
	parks := []domain.Park{
		{ParkID: "P1", AreaCode: "N"},
		{ParkID: "P2", AreaCode: "N"},
		{ParkID: "P3", AreaCode: "S"},
		{ParkID: "P4", AreaCode: "S"},
	}
	areas := []domain.Area{{AreaID: "a1", Code: "N"}, {AreaID: "a2", Code: "S"}}

	sel := services.NewParkSelection(user, parks, areas)
	if got := selectionSummary(sel); got != "all parks" {
		t.Errorf("Expected 'all parks', got %q", got)
	}

	if err := sel.ChooseArea("N"); err != nil {
		t.Fatalf("ChooseArea failed: %v", err)
	}
	if got := selectionSummary(sel); got != "all of N" {
		t.Errorf("Expected 'all of N', got %q", got)
	}

	if err := sel.PickPark("P3"); err != nil {
		t.Fatalf("PickPark failed: %v", err)
	}
	if got := selectionSummary(sel); got != "P3" {
		t.Errorf("Expected 'P3', got %q", got)
	}
}

func TestDBFlagsShared(t *testing.T) {
	for _, path := range [][]string{{"serve"}, {"admin", "cleanup"}} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Fatalf("Command not found: %v", err)
		}
		for _, name := range []string{"db-driver", "dsn", "utc-offset"} {
			if cmd.Flag(name) == nil {
				t.Errorf("Expected --%s on %s", name, strings.Join(path, " "))
			}
		}
	}

	if f := dbFlags().Lookup("db-driver"); f == nil || f.DefValue != "sqlite" {
		t.Errorf("Expected sqlite as the default driver, got %+v", f)
	}
}
