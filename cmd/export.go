package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/adapters/report"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	exportOut  string
	reportOut  string
	reportOpen bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the selected parks to an Excel workbook",
	Long: `Export assets, transfers and disposals of the selected parks to an
.xlsx workbook with one sheet per record type.

The file goes to the export directory unless --out is given.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an HTML chart of records per park",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "Open the report in the browser")
}

// loadDataset fetches every record type of the selected parks
func loadDataset() (report.Dataset, error) {
	ctx := getContext()
	parkIDs, err := selectedParkIDs(ctx)
	if err != nil {
		return report.Dataset{}, err
	}
	if len(parkIDs) == 0 {
		return report.Dataset{}, fmt.Errorf("no parks selected")
	}

	sets, err := searchService.LoadAll(ctx, parkIDs)
	if err != nil {
		return report.Dataset{}, err
	}
	return report.Dataset{ParkIDs: parkIDs, Records: sets, GeneratedAt: time.Now()}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := loadDataset()
	if err != nil {
		printErr("Failed to load records", err)
		return err
	}

	path := exportOut
	if path == "" {
		path = appDirs.GetExportPath(appConfig.ExportDir, "assetctl-"+data.GeneratedAt.Format("20060102-150405")+".xlsx")
	}
	if err := writeFile(path, func(w io.Writer) error { return report.WriteWorkbook(w, data) }); err != nil {
		fmt.Println(ui.FormatError("Export failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Exported to " + path))
	for _, t := range domain.RecordTypes {
		fmt.Println(ui.RenderKeyValue(report.SheetName(t), fmt.Sprint(len(data.Records[t]))))
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	data, err := loadDataset()
	if err != nil {
		printErr("Failed to load records", err)
		return err
	}

	path := reportOut
	if path == "" {
		path = appDirs.GetExportPath(appConfig.ExportDir, "assetctl-report-"+data.GeneratedAt.Format("20060102-150405")+".html")
	}
	if err := writeFile(path, func(w io.Writer) error { return report.WriteChart(w, data) }); err != nil {
		fmt.Println(ui.FormatError("Report failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Report written to " + path))
	if reportOpen {
		if err := openFile(path); err != nil {
			fmt.Println(ui.FormatWarning(err.Error()))
		}
	}
	return nil
}

// writeFile creates path and its directory and streams content into it
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// openFile opens a file with the OS default application
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	// Start() detaches so the viewer outlives assetctl
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	return nil
}
