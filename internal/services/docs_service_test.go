package services

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"tripconsole/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

func fixtureTrip(t *testing.T) models.Trip {
	t.Helper()
	var trip models.Trip
	if err := json.Unmarshal([]byte(tripFixture), &trip); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return trip
}

func TestDocsServiceTripSheet(t *testing.T) {
	svc := DocsService{Now: func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }}
	trip := fixtureTrip(t)

	pdf, name, err := svc.TripSheetPDF(trip)
	if err != nil {
		t.Fatalf("TripSheetPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) || name != "TRIPSHEET_TRIP1.pdf" {
		t.Fatalf("unexpected pdf output name=%s len=%d", name, len(pdf))
	}

	xlsx, name, err := svc.TripSheetXLSX(trip)
	if err != nil {
		t.Fatalf("TripSheetXLSX returned error: %v", err)
	}
	if name != "TRIPSHEET_TRIP1.xlsx" {
		t.Fatalf("unexpected name %s", name)
	}
	f, err := excelize.OpenReader(bytes.NewReader(xlsx))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Activities", "C5"); v != "PICKUP" {
		t.Fatalf("first activity cell = %q", v)
	}
	rows, err := f.GetRows("Resources")
	if err != nil {
		t.Fatalf("resources sheet: %v", err)
	}
	// header + E1, E2, V1, D1, H1 + two customer orders
	if len(rows) != 8 {
		t.Fatalf("resource rows = %d: %v", len(rows), rows)
	}
}

func TestResourceLines(t *testing.T) {
	lines := resourceLines(fixtureTrip(t).ResourceDetails)
	if lines[0].Kind != "Equipment" || len(lines[0].IDs) != 2 || lines[2].IDs[0] != "D1" {
		t.Fatalf("lines = %+v", lines)
	}
	if len(lines[4].IDs) != 0 {
		t.Fatalf("no vehicles expected: %+v", lines[4])
	}
}
