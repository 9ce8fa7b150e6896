package alerthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	alerts "telematics-cloud/internal/alerts/domain"
	vehicles "telematics-cloud/internal/vehicles/domain"
)

// Handler serves alert queries and acknowledgement.
type Handler struct {
	alerts   alerts.Repository
	registry vehicles.Repository
}

// NewHandler constructs an alerts handler.
func NewHandler(alertRepo alerts.Repository, registry vehicles.Repository) (*Handler, error) {
	if alertRepo == nil {
		return nil, errors.New("alerts handler: nil repository")
	}
	if registry == nil {
		return nil, errors.New("alerts handler: nil vehicle registry")
	}
	return &Handler{alerts: alertRepo, registry: registry}, nil
}

// ServeHTTP routes GET /api/v1/alerts and POST /api/v1/alerts/{id}/ack.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/alerts":
		h.list(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/ack"):
		h.acknowledge(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	var result []alerts.Alert
	var err error
	if identifier := r.URL.Query().Get("vehicle"); identifier != "" {
		vehicle, verr := h.registry.GetByIdentifier(r.Context(), identifier)
		if errors.Is(verr, vehicles.ErrNotFound) {
			http.Error(w, "vehicle not found", http.StatusNotFound)
			return
		}
		if verr != nil {
			http.Error(w, "lookup error", http.StatusInternalServerError)
			return
		}
		result, err = h.alerts.ListByVehicle(r.Context(), vehicle.ID, limit)
	} else {
		result, err = h.alerts.ListRecent(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []alerts.Alert{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAckID(r.URL.Path)
	if !ok {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}
	alert, err := h.alerts.Acknowledge(r.Context(), id)
	if errors.Is(err, alerts.ErrNotFound) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "acknowledge error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alert)
}

func parseAckID(path string) (int64, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/alerts/"), "/ack")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
