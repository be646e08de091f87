package services

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"turbineops/models"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryLabel turns BLADE_DAMAGE into "Blade Damage".
func CategoryLabel(c models.FindingCategory) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(strings.ToLower(string(c)), "_", " "))
}

func deref(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// WriteRepairPlanPDF renders the plan of inspection as an A4 report.
func WriteRepairPlanPDF(w io.Writer, inspection *models.Inspection, plan *models.RepairPlan) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, "REPAIR PLAN")
	pdf.Ln(14)

	turbineName := "-"
	if inspection.Turbine != nil {
		turbineName = inspection.Turbine.Name
	}

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Turbine", turbineName},
		{"Inspection date", inspection.Date.Format("02-Jan-2006")},
		{"Inspector", deref(inspection.InspectorName, "-")},
		{"Data source", string(inspection.DataSource)},
		{"Priority", string(plan.Priority)},
		{"Total estimated cost", plan.TotalEstimatedCost.StringFixed(2)},
		{"Generated", plan.UpdatedAt.UTC().Format(time.RFC1123)},
	}
	for _, r := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(140, 7, tr(r[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(40, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Est. cost", "1", 0, "R", true, 0, "")
	pdf.CellFormat(100, 8, "Notes", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(plan.SnapshotJSON) == 0 {
		pdf.CellFormat(190, 8, "No findings recorded.", "1", 1, "C", false, 0, "")
	}
	for _, f := range plan.SnapshotJSON {
		notes := truncate(deref(f.Notes, ""), 60)
		pdf.CellFormat(40, 8, CategoryLabel(f.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", f.Severity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, f.EstimatedCost.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(100, 8, tr(notes), "1", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render repair plan pdf: %w", err)
	}
	return pdf.Output(w)
}

// truncate shortens s to at most max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
