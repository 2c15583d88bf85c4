package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// Dataset is a snapshot of every record type for a park selection
type Dataset struct {
	ParkIDs     []string
	Records     map[domain.RecordType][]domain.Record
	GeneratedAt time.Time
}

// SheetName returns the worksheet name of a record type
func SheetName(t domain.RecordType) string {
	return t.Label() + "s"
}

// Columns returns the exported columns of a record type: id, then the schema columns
func Columns(t domain.RecordType) []string {
	cols := []string{domain.FieldID}
	for _, c := range domain.SchemaFor(t).DataColumns() {
		cols = append(cols, c.Field)
	}
	return cols
}

// WriteWorkbook writes one sheet per record type as xlsx
func WriteWorkbook(w io.Writer, data Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range domain.RecordTypes {
		sheet := SheetName(t)
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		cols := Columns(t)
		if err := setRow(f, sheet, 1, cols); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", sheet, err)
		}

		for n, r := range data.Records[t] {
			values := make([]string, len(cols))
			for j, c := range cols {
				values[j] = r.Get(c)
			}
			if err := setRow(f, sheet, n+2, values); err != nil {
				return err
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// ParkCount is the number of records of each type located in one park
type ParkCount struct {
	ParkID string
	Counts map[domain.RecordType]int
}

// CountByPark tallies records per park in selection order. Parks found in
// the data but missing from the selection are appended in sorted order.
func CountByPark(data Dataset) []ParkCount {
	order := slices.Clone(data.ParkIDs)
	counts := make(map[string]map[domain.RecordType]int)
	for _, id := range order {
		counts[id] = make(map[domain.RecordType]int)
	}

	var extra []string
	for _, t := range domain.RecordTypes {
		for _, r := range data.Records[t] {
			park := r.Get(domain.FieldLocation)
			if park == "" {
				continue
			}
			if _, ok := counts[park]; !ok {
				counts[park] = make(map[domain.RecordType]int)
				extra = append(extra, park)
			}
			counts[park][t]++
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	out := make([]ParkCount, len(order))
	for i, id := range order {
		out[i] = ParkCount{ParkID: id, Counts: counts[id]}
	}
	return out
}

// WriteChart renders an HTML bar chart of record counts per park
func WriteChart(w io.Writer, data Dataset) error {
	rows := CountByPark(data)
	parks := make([]string, len(rows))
	for i, r := range rows {
		parks[i] = r.ParkID
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "assetctl report"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Records per park",
			Subtitle: "Generated " + data.GeneratedAt.Format("2006-01-02 15:04"),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	bar.SetXAxis(parks)

	for _, t := range domain.RecordTypes {
		series := make([]opts.BarData, len(rows))
		for i, r := range rows {
			series[i] = opts.BarData{Value: r.Counts[t]}
		}
		bar.AddSeries(t.Label(), series)
	}

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
