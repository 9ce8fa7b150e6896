package apihttp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	ingest "telematics-cloud/internal/telemetry/application"
	telemetry "telematics-cloud/internal/telemetry/domain"
	vehicleapp "telematics-cloud/internal/vehicles/application"
	vehicles "telematics-cloud/internal/vehicles/domain"

	"telematics-cloud/internal/observability/metrics"
)

const timeLayout = time.RFC3339

// EventsHandler accepts telemetry submissions.
type EventsHandler struct {
	service *ingest.IngestService
	logger  *log.Logger
}

// NewEventsHandler constructs an events handler.
func NewEventsHandler(service *ingest.IngestService, logger *log.Logger) (*EventsHandler, error) {
	if service == nil {
		return nil, errors.New("events handler: nil ingest service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &EventsHandler{service: service, logger: logger}, nil
}

// ServeHTTP routes POST /api/v1/telematics/events and .../events/batch.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/batch") {
		h.submitBatch(w, r)
		return
	}
	h.submitOne(w, r)
}

func (h *EventsHandler) submitOne(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	var input telemetry.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("invalid_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.VehicleIdentifier == "" || input.Timestamp.IsZero() {
		result = metrics.ResultError
		metrics.IncIngestError("invalid_payload")
		http.Error(w, "vehicleIdentifier and timestamp are required", http.StatusBadRequest)
		return
	}

	event, err := h.service.Ingest(r.Context(), input)
	if err != nil {
		h.logger.Printf("api: ingest error: %v", err)
		result = metrics.ResultError
		metrics.IncIngestError("ingest_error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"eventId": event.ID, "status": "Processed"})
}

func (h *EventsHandler) submitBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	var req struct {
		Events []telemetry.EventInput `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("invalid_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Events) == 0 {
		result = metrics.ResultError
		metrics.IncIngestError("empty_batch")
		http.Error(w, "events are required", http.StatusBadRequest)
		return
	}

	// Best-effort: item failures are reflected in the counts, not the status.
	batch := h.service.IngestBatch(r.Context(), req.Events)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"processedCount": batch.Processed,
		"totalSubmitted": batch.Submitted,
		"status":         "Batch processed",
	})
}

// VehiclesHandler serves the vehicle read surface.
type VehiclesHandler struct {
	service *vehicleapp.Service
	events  telemetry.Repository
	logger  *log.Logger
}

// NewVehiclesHandler constructs a vehicles handler.
func NewVehiclesHandler(service *vehicleapp.Service, events telemetry.Repository, logger *log.Logger) (*VehiclesHandler, error) {
	if service == nil {
		return nil, errors.New("vehicles handler: nil service")
	}
	if events == nil {
		return nil, errors.New("vehicles handler: nil event repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &VehiclesHandler{service: service, events: events, logger: logger}, nil
}

// ServeHTTP routes GET /api/v1/vehicles, .../{identifier}/stats and
// .../{identifier}/events.
func (h *VehiclesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == "/api/v1/vehicles" {
		h.list(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/vehicles/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	switch parts[1] {
	case "stats":
		h.stats(w, r, parts[0])
	case "events":
		h.eventsFor(w, r, parts[0])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *VehiclesHandler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Printf("api: list vehicles error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []vehicles.Vehicle{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *VehiclesHandler) stats(w http.ResponseWriter, r *http.Request, identifier string) {
	stats, err := h.service.Stats(r.Context(), identifier)
	if errors.Is(err, vehicles.ErrNotFound) {
		http.Error(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Printf("api: vehicle stats error: vehicle=%s err=%v", identifier, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *VehiclesHandler) eventsFor(w http.ResponseWriter, r *http.Request, identifier string) {
	vehicle, err := h.service.Lookup(r.Context(), identifier)
	if errors.Is(err, vehicles.ErrNotFound) {
		http.Error(w, "vehicle not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	start, err := parseTimeQuery(r, "startTime")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseTimeQuery(r, "endTime")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.events.ListByVehicle(r.Context(), vehicle.ID, start, end)
	if err != nil {
		h.logger.Printf("api: vehicle events error: vehicle=%s err=%v", identifier, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []telemetry.Event{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return nil, errors.New(key + " must be RFC3339")
	}
	return &parsed, nil
}
