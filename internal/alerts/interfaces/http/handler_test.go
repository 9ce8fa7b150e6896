package alerthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	alerts "telematics-cloud/internal/alerts/domain"
	vehicles "telematics-cloud/internal/vehicles/domain"
)

type stubAlertRepo struct {
	recent   []alerts.Alert
	byID     map[int64]*alerts.Alert
	ackedIDs []int64
}

func (s *stubAlertRepo) InsertGroup(context.Context, []alerts.Alert) error { return nil }

func (s *stubAlertRepo) ListByVehicle(_ context.Context, vehicleID int64, _ int) ([]alerts.Alert, error) {
	var result []alerts.Alert
	for _, alert := range s.recent {
		if alert.VehicleID == vehicleID {
			result = append(result, alert)
		}
	}
	return result, nil
}

func (s *stubAlertRepo) ListRecent(_ context.Context, limit int) ([]alerts.Alert, error) {
	if limit > len(s.recent) {
		limit = len(s.recent)
	}
	return s.recent[:limit], nil
}

func (s *stubAlertRepo) Acknowledge(_ context.Context, id int64) (*alerts.Alert, error) {
	alert, ok := s.byID[id]
	if !ok {
		return nil, alerts.ErrNotFound
	}
	alert.Acknowledged = true
	s.ackedIDs = append(s.ackedIDs, id)
	return alert, nil
}

type stubRegistry struct {
	byIdentifier map[string]*vehicles.Vehicle
}

func (s *stubRegistry) ResolveOrCreate(_ context.Context, identifier string) (*vehicles.Vehicle, error) {
	return s.GetByIdentifier(context.Background(), identifier)
}

func (s *stubRegistry) GetByIdentifier(_ context.Context, identifier string) (*vehicles.Vehicle, error) {
	vehicle, ok := s.byIdentifier[identifier]
	if !ok {
		return nil, vehicles.ErrNotFound
	}
	return vehicle, nil
}

func (s *stubRegistry) List(context.Context) ([]vehicles.Vehicle, error) { return nil, nil }

func (s *stubRegistry) Stats(context.Context, string) (*vehicles.Stats, error) {
	return nil, vehicles.ErrNotFound
}

func newTestHandler(t *testing.T, repo *stubAlertRepo) *Handler {
	t.Helper()
	registry := &stubRegistry{byIdentifier: map[string]*vehicles.Vehicle{
		"TRUCK-001": {ID: 1, Identifier: "TRUCK-001"},
	}}
	handler, err := NewHandler(repo, registry)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func sampleAlerts() []alerts.Alert {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return []alerts.Alert{
		{ID: 2, VehicleID: 1, Kind: alerts.KindSpeeding, Severity: alerts.SeverityWarning, CreatedAt: created.Add(time.Minute)},
		{ID: 1, VehicleID: 2, Kind: alerts.KindEngineOverheating, Severity: alerts.SeverityCritical, CreatedAt: created},
	}
}

func TestAlertsHandler_ListRecent(t *testing.T) {
	handler := newTestHandler(t, &stubAlertRepo{recent: sampleAlerts()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out []alerts.Alert
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(out))
	}
}

func TestAlertsHandler_ListByVehicle(t *testing.T) {
	handler := newTestHandler(t, &stubAlertRepo{recent: sampleAlerts()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?vehicle=TRUCK-001", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out []alerts.Alert
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].VehicleID != 1 {
		t.Fatalf("expected vehicle 1 alerts only, got %+v", out)
	}
}

func TestAlertsHandler_ListUnknownVehicle(t *testing.T) {
	handler := newTestHandler(t, &stubAlertRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?vehicle=TRUCK-404", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAlertsHandler_Acknowledge(t *testing.T) {
	repo := &stubAlertRepo{byID: map[int64]*alerts.Alert{
		7: {ID: 7, VehicleID: 1, Kind: alerts.KindSpeeding},
	}}
	handler := newTestHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/7/ack", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out alerts.Alert
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Acknowledged {
		t.Fatal("expected acknowledged alert")
	}
	if len(repo.ackedIDs) != 1 || repo.ackedIDs[0] != 7 {
		t.Fatalf("expected ack of id 7, got %v", repo.ackedIDs)
	}
}

func TestAlertsHandler_AcknowledgeUnknown(t *testing.T) {
	handler := newTestHandler(t, &stubAlertRepo{byID: map[int64]*alerts.Alert{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/99/ack", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAlertsHandler_AcknowledgeBadID(t *testing.T) {
	handler := newTestHandler(t, &stubAlertRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/abc/ack", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
