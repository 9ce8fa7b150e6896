package apihttp

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler reports database connectivity and backlog counters.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	status := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status["status"] = "unhealthy"
		status["database"] = "disconnected"
		code = http.StatusServiceUnavailable
	} else {
		var unprocessed int64
		if err := h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM telematics_events WHERE is_processed = FALSE").Scan(&unprocessed); err == nil {
			status["unprocessed_events"] = unprocessed
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
