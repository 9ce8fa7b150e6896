package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alerts "telematics-cloud/internal/alerts/domain"
	trips "telematics-cloud/internal/trips/domain"
)

// BuildAlertsXLSX renders an alert export workbook.
func BuildAlertsXLSX(items []alerts.Alert) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "alerts"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "ID")
	_ = f.SetCellValue(sheet, "B1", "Vehicle ID")
	_ = f.SetCellValue(sheet, "C1", "Event ID")
	_ = f.SetCellValue(sheet, "D1", "Type")
	_ = f.SetCellValue(sheet, "E1", "Severity")
	_ = f.SetCellValue(sheet, "F1", "Description")
	_ = f.SetCellValue(sheet, "G1", "Created")
	_ = f.SetCellValue(sheet, "H1", "Acknowledged")

	for i, alert := range items {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), alert.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), alert.VehicleID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), alert.EventID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), alert.Kind)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), alert.Severity)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), alert.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), alert.CreatedAt.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), alert.Acknowledged)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTripsPDF renders a trip report.
func BuildTripsPDF(items []trips.Trip, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Trip Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Trips: %d", len(items)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 6, "ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Vehicle", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Events", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, trip := range items {
		end := "open"
		if trip.EndTime != nil {
			end = trip.EndTime.Format(time.RFC3339)
		}
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", trip.ID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", trip.VehicleID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, trip.StartTime.Format(time.RFC3339), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, end, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", trip.EventCount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
