package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"tripconsole/internal/domain/models"
	"tripconsole/internal/reconcile"
	"tripconsole/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

// DocsService renders the trip sheet of a drawer as PDF or XLSX.
type DocsService struct {
	RequestID string
	Now       func() time.Time
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type resourceLine struct {
	Kind string
	IDs  []string
}

func collectionIDs[T reconcile.Record[string, T]](d models.ResourceDetails, key string) []string {
	rows, err := models.DecodeCollection[T](d, key)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.Identity(); ok {
			out = append(out, id)
		}
	}
	return out
}

func resourceLines(d models.ResourceDetails) []resourceLine {
	return []resourceLine{
		{"Equipment", collectionIDs[models.Equipment](d, models.ResourceEquipment.CollectionKey())},
		{"Supplier", collectionIDs[models.Supplier](d, models.ResourceSupplier.CollectionKey())},
		{"Driver", collectionIDs[models.Driver](d, models.ResourceDriver.CollectionKey())},
		{"Handler", collectionIDs[models.Handler](d, models.ResourceHandler.CollectionKey())},
		{"Vehicle", collectionIDs[models.Vehicle](d, models.ResourceVehicle.CollectionKey())},
		{"Schedule", collectionIDs[models.Schedule](d, models.ResourceSchedule.CollectionKey())},
	}
}

func (s DocsService) TripSheetPDF(trip models.Trip) ([]byte, string, error) {
	h := trip.Header
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip Sheet "+h.TripNo, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP SHEET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Trip No      : %s", utils.OrDefault(h.TripNo, "-")),
		fmt.Sprintf("Status       : %s", utils.OrDefault(h.TripStatus, "-")),
		fmt.Sprintf("Customer     : %s", utils.OrDefault(h.CustomerName, utils.OrDefault(h.CustomerID, "-"))),
		fmt.Sprintf("Supplier     : %s", utils.OrDefault(h.SupplierName, utils.OrDefault(h.SupplierID, "-"))),
		fmt.Sprintf("Planned      : %s -> %s", utils.OrDefault(h.PlannedStartDate, "-"), utils.OrDefault(h.PlannedEndDate, "-")),
		fmt.Sprintf("Actual       : %s -> %s", utils.OrDefault(h.ActualStartDate, "-"), utils.OrDefault(h.ActualEndDate, "-")),
	}
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}

	for _, leg := range trip.LegDetails {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, fmt.Sprintf("Leg %s  %s -> %s", leg.LegSequence, utils.OrDefault(leg.Departure, "-"), utils.OrDefault(leg.Arrival, "-")))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, a := range leg.Activities {
			pdf.Cell(0, 5, fmt.Sprintf("  %d. %s @ %s  planned %s %s  actual %s %s",
				a.SeqNo, utils.OrDefault(a.Activity, "-"), utils.OrDefault(a.Location, "-"),
				utils.OrDefault(a.PlannedDate, "-"), a.PlannedTime, utils.OrDefault(a.ActualDate, "-"), a.ActualTime))
			pdf.Ln(5)
		}
		for _, a := range leg.AdditionalActivities {
			pdf.Cell(0, 5, fmt.Sprintf("  + %d. %s %s", a.Sequence, utils.OrDefault(a.Category, "-"), a.Remarks))
			pdf.Ln(5)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Resources")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range resourceLines(trip.ResourceDetails) {
		pdf.Cell(0, 5, fmt.Sprintf("%-10s: %s", r.Kind, utils.OrDefault(strings.Join(r.IDs, ", "), "-")))
		pdf.Ln(5)
	}

	if len(trip.CustomerOrders) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Customer Orders")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, co := range trip.CustomerOrders {
			pdf.Cell(0, 5, fmt.Sprintf("%s (%s) %s", co.CustomerOrderNo, utils.OrDefault(co.LegBehaviour, "-"), co.CustomerName))
			pdf.Ln(5)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, "Generated "+utils.FormatDateTime(s.now()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "trip_sheet_pdf", "trip_no="+h.TripNo)
	return buf.Bytes(), fmt.Sprintf("TRIPSHEET_%s.pdf", safeFilenamePart(h.TripNo)), nil
}

var activityColumns = []string{"Leg", "Seq", "Activity", "Location", "Planned Date", "Planned Time", "Revised Date", "Revised Time", "Actual Date", "Actual Time", "Delay Reason", "Remarks"}

func (s DocsService) TripSheetXLSX(trip models.Trip) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Activities"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheet, "A1", "Trip "+trip.Header.TripNo)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated: %s", utils.FormatDateTime(s.now())))

	for i, label := range activityColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheet, cell, label)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "A", "L", 16)

	row := 5
	for _, leg := range trip.LegDetails {
		for _, a := range leg.Activities {
			values := []any{leg.LegSequence, a.SeqNo, a.Activity, a.Location, a.PlannedDate, a.PlannedTime,
				a.RevisedDate, a.RevisedTime, a.ActualDate, a.ActualTime, a.DelayedReason, a.Remarks}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, "", err
			}
			row++
		}
	}

	const resSheet = "Resources"
	if _, err := f.NewSheet(resSheet); err != nil {
		return nil, "", err
	}
	f.SetCellValue(resSheet, "A1", "Kind")
	f.SetCellValue(resSheet, "B1", "ID")
	f.SetCellStyle(resSheet, "A1", "B1", headerStyle)
	row = 2
	for _, r := range resourceLines(trip.ResourceDetails) {
		for _, id := range r.IDs {
			f.SetCellValue(resSheet, fmt.Sprintf("A%d", row), r.Kind)
			f.SetCellValue(resSheet, fmt.Sprintf("B%d", row), id)
			row++
		}
	}
	for _, co := range trip.CustomerOrders {
		f.SetCellValue(resSheet, fmt.Sprintf("A%d", row), "CustomerOrder")
		f.SetCellValue(resSheet, fmt.Sprintf("B%d", row), co.CustomerOrderNo+"/"+co.LegBehaviour)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "trip_sheet_xlsx", "trip_no="+trip.Header.TripNo)
	return buf.Bytes(), fmt.Sprintf("TRIPSHEET_%s.xlsx", safeFilenamePart(trip.Header.TripNo)), nil
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
