package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"forestqc/internal/checks"
	"forestqc/internal/dataset"
)

// Column titles of the error report. Tree records are keyed by tag
// number, litter and seed records by collection date and trap. The last
// column is left blank for the site's response.
var (
	treeReportHeader = []string{"plotid", "tag_no", "target", "error_type", "response"}
	trapReportHeader = []string{"plotid", "s_date1", "trap_id", "error_type", "response"}
)

// ReportPath returns the error-report location for a data file: a
// checklist workbook named after the input, in outdir.
func ReportPath(outdir, dataPath string) string {
	stem := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	return filepath.Join(outdir, "checklist_"+stem+".xlsx")
}

// WriteReport writes the check records to a styled XLSX worksheet at
// path. Tree reports are sorted by tag number, trap-based reports by
// collection date and trap.
func WriteReport(records []checks.Record, dataType dataset.DataType, path string) error {
	header := trapReportHeader
	if dataType == dataset.TypeTree {
		header = treeReportHeader
	}

	recs := append([]checks.Record(nil), records...)
	sort.SliceStable(recs, func(i, j int) bool {
		if dataType == dataset.TypeTree {
			return recs[i].Key < recs[j].Key
		}
		if recs[i].Key != recs[j].Key {
			return recs[i].Key < recs[j].Key
		}
		return recs[i].Target < recs[j].Target
	})

	slog.Info("writing error report",
		slog.String("path", path),
		slog.Int("errors", len(recs)))

	f := excelize.NewFile()
	defer f.Close()

	sheet := "checklist" + time.Now().Format("060102")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	row := make([]interface{}, len(header))
	for j, title := range header {
		row[j] = title
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.PlotID, r.Key, r.Target, r.Kind, ""}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"7E7E7E"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return f.SaveAs(path)
}
