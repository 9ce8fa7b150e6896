package triphttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	trips "telematics-cloud/internal/trips/domain"
	vehicles "telematics-cloud/internal/vehicles/domain"
)

// Handler serves trip queries.
type Handler struct {
	trips    trips.Repository
	registry vehicles.Repository
}

// NewHandler constructs a trips handler.
func NewHandler(tripRepo trips.Repository, registry vehicles.Repository) (*Handler, error) {
	if tripRepo == nil {
		return nil, errors.New("trips handler: nil repository")
	}
	if registry == nil {
		return nil, errors.New("trips handler: nil vehicle registry")
	}
	return &Handler{trips: tripRepo, registry: registry}, nil
}

// ServeHTTP handles GET /api/v1/trips.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var result []trips.Trip
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
		result, err = h.trips.ListByVehicle(r.Context(), vehicle.ID, limit)
	} else {
		result, err = h.trips.ListRecent(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []trips.Trip{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
