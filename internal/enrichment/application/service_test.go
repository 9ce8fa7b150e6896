package application

import (
	"context"
	"testing"
	"time"

	alerts "telematics-cloud/internal/alerts/domain"
	telemetry "telematics-cloud/internal/telemetry/domain"
)

type stubAlertRepo struct {
	groups [][]alerts.Alert
}

func (s *stubAlertRepo) InsertGroup(_ context.Context, group []alerts.Alert) error {
	s.groups = append(s.groups, group)
	return nil
}

func (s *stubAlertRepo) ListByVehicle(context.Context, int64, int) ([]alerts.Alert, error) {
	return nil, nil
}

func (s *stubAlertRepo) ListRecent(context.Context, int) ([]alerts.Alert, error) {
	return nil, nil
}

func (s *stubAlertRepo) Acknowledge(context.Context, int64) (*alerts.Alert, error) {
	return nil, alerts.ErrNotFound
}

func floatPtr(v float64) *float64 { return &v }

func newEnrichService(t *testing.T, alertRepo *stubAlertRepo, prior *stubPriorSource, tripRepo *stubTripRepo) *Service {
	t.Helper()
	segmenter, err := NewTripSegmenter(prior, tripRepo, fixedClock{at: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new segmenter: %v", err)
	}
	service, err := NewService(alertRepo, segmenter, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestEnrich_AlertsPersistedAsOneGroup(t *testing.T) {
	alertRepo := &stubAlertRepo{}
	service := newEnrichService(t, alertRepo, &stubPriorSource{}, &stubTripRepo{})

	event := &telemetry.Event{
		ID:          5,
		VehicleID:   2,
		Timestamp:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Speed:       floatPtr(140.0),
		CoolantTemp: floatPtr(108.0),
	}
	if err := service.Enrich(context.Background(), event); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(alertRepo.groups) != 1 {
		t.Fatalf("expected one insert group, got %d", len(alertRepo.groups))
	}
	if len(alertRepo.groups[0]) != 2 {
		t.Fatalf("expected 2 alerts in group, got %d", len(alertRepo.groups[0]))
	}
}

func TestEnrich_CleanEventNoAlertsNoTrip(t *testing.T) {
	alertRepo := &stubAlertRepo{}
	tripRepo := &stubTripRepo{}
	service := newEnrichService(t, alertRepo, &stubPriorSource{}, tripRepo)

	event := &telemetry.Event{
		ID:        5,
		VehicleID: 2,
		Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Speed:     floatPtr(80.0),
	}
	if err := service.Enrich(context.Background(), event); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(alertRepo.groups) != 0 {
		t.Fatalf("expected no alert groups, got %d", len(alertRepo.groups))
	}
	if len(tripRepo.inserted) != 0 {
		t.Fatalf("expected no trips, got %d", len(tripRepo.inserted))
	}
}

func TestEnrich_GapOpensTripAlongsideAlerts(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	alertRepo := &stubAlertRepo{}
	tripRepo := &stubTripRepo{}
	prior := &stubPriorSource{prior: &telemetry.Event{ID: 1, VehicleID: 2, Timestamp: base}}
	service := newEnrichService(t, alertRepo, prior, tripRepo)

	event := &telemetry.Event{
		ID:        2,
		VehicleID: 2,
		Timestamp: base.Add(time.Hour),
		Speed:     floatPtr(130.0),
	}
	if err := service.Enrich(context.Background(), event); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(alertRepo.groups) != 1 {
		t.Fatalf("expected alert group, got %d", len(alertRepo.groups))
	}
	if len(tripRepo.inserted) != 1 {
		t.Fatalf("expected trip opened, got %d", len(tripRepo.inserted))
	}
}
