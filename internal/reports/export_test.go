package reports

import (
	"bytes"
	"testing"
	"time"

	alerts "telematics-cloud/internal/alerts/domain"
	trips "telematics-cloud/internal/trips/domain"
)

func TestBuildAlertsXLSX(t *testing.T) {
	items := []alerts.Alert{
		{
			ID:          1,
			EventID:     10,
			VehicleID:   3,
			Kind:        alerts.KindSpeeding,
			Severity:    alerts.SeverityWarning,
			Description: "Vehicle exceeded speed limit: 131.0 km/h",
			CreatedAt:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
	}
	data, err := BuildAlertsXLSX(items)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook")
	}
	// XLSX files are ZIP archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected zip magic, got %q", data[:2])
	}
}

func TestBuildTripsPDF(t *testing.T) {
	end := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	items := []trips.Trip{
		{ID: 1, VehicleID: 3, StartTime: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), EventCount: 12},
		{ID: 2, VehicleID: 3, StartTime: time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), EndTime: &end, EventCount: 4},
	}
	data, err := BuildTripsPDF(items, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected pdf magic")
	}
}

func TestBuildExports_EmptyInput(t *testing.T) {
	if _, err := BuildAlertsXLSX(nil); err != nil {
		t.Fatalf("empty xlsx: %v", err)
	}
	if _, err := BuildTripsPDF(nil, time.Now()); err != nil {
		t.Fatalf("empty pdf: %v", err)
	}
}
