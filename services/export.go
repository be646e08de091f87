package services

import (
	"fmt"
	"io"

	"turbineops/models"

	"github.com/xuri/excelize/v2"
)

const (
	inspectionsSheet = "Inspections"
	findingsSheet    = "Findings"
)

// WriteInspectionsXLSX writes inspections and their findings as a two-sheet workbook.
func WriteInspectionsXLSX(w io.Writer, inspections []models.Inspection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inspectionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F0F0F0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(inspectionsSheet, "A1", &[]interface{}{
		"Inspection ID", "Turbine", "Date", "Inspector", "Data Source", "Findings", "Priority", "Total Cost",
	}); err != nil {
		return err
	}
	if err := f.SetSheetRow(findingsSheet, "A1", &[]interface{}{
		"Inspection ID", "Finding ID", "Category", "Severity", "Estimated Cost", "Notes",
	}); err != nil {
		return err
	}
	_ = f.SetCellStyle(inspectionsSheet, "A1", "H1", header)
	_ = f.SetCellStyle(findingsSheet, "A1", "F1", header)

	findingRow := 2
	for i, in := range inspections {
		turbine := ""
		if in.Turbine != nil {
			turbine = in.Turbine.Name
		}
		priority, total := "", ""
		if in.RepairPlan != nil {
			priority = string(in.RepairPlan.Priority)
			total = in.RepairPlan.TotalEstimatedCost.StringFixed(2)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(inspectionsSheet, cell, &[]interface{}{
			in.ID, turbine, in.Date.Format("2006-01-02"), deref(in.InspectorName, ""),
			string(in.DataSource), len(in.Findings), priority, total,
		}); err != nil {
			return err
		}

		for _, fd := range in.Findings {
			cell, _ := excelize.CoordinatesToCellName(1, findingRow)
			if err := f.SetSheetRow(findingsSheet, cell, &[]interface{}{
				in.ID, fd.ID, string(fd.Category), fd.Severity, fd.EstimatedCost.InexactFloat64(), deref(fd.Notes, ""),
			}); err != nil {
				return err
			}
			findingRow++
		}
	}

	_ = f.SetColWidth(inspectionsSheet, "A", "B", 38)
	_ = f.SetColWidth(findingsSheet, "A", "B", 38)
	_ = f.SetColWidth(findingsSheet, "F", "F", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
