package apihttp

import (
	"errors"
	"log"
	"net/http"
	"time"

	alerts "telematics-cloud/internal/alerts/domain"
	"telematics-cloud/internal/reports"
	trips "telematics-cloud/internal/trips/domain"
)

const exportLimit = 1000

// ExportsHandler serves alert/trip file exports.
type ExportsHandler struct {
	alerts alerts.Repository
	trips  trips.Repository
	logger *log.Logger
}

// NewExportsHandler constructs an exports handler.
func NewExportsHandler(alertRepo alerts.Repository, tripRepo trips.Repository, logger *log.Logger) (*ExportsHandler, error) {
	if alertRepo == nil || tripRepo == nil {
		return nil, errors.New("exports handler: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportsHandler{alerts: alertRepo, trips: tripRepo, logger: logger}, nil
}

// ServeHTTP routes GET /api/v1/exports/alerts.xlsx and .../trips.pdf.
func (h *ExportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/exports/alerts.xlsx":
		h.alertsXLSX(w, r)
	case "/api/v1/exports/trips.pdf":
		h.tripsPDF(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *ExportsHandler) alertsXLSX(w http.ResponseWriter, r *http.Request) {
	items, err := h.alerts.ListRecent(r.Context(), exportLimit)
	if err != nil {
		h.logger.Printf("api: alerts export query error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	data, err := reports.BuildAlertsXLSX(items)
	if err != nil {
		h.logger.Printf("api: alerts export build error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.xlsx"`)
	_, _ = w.Write(data)
}

func (h *ExportsHandler) tripsPDF(w http.ResponseWriter, r *http.Request) {
	items, err := h.trips.ListRecent(r.Context(), exportLimit)
	if err != nil {
		h.logger.Printf("api: trips export query error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	data, err := reports.BuildTripsPDF(items, time.Now().UTC())
	if err != nil {
		h.logger.Printf("api: trips export build error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.pdf"`)
	_, _ = w.Write(data)
}
