package alerts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an alert id is unknown.
var ErrNotFound = errors.New("alerts: not found")

// Alert kinds produced by the rule engine.
const (
	KindSpeeding          = "SPEEDING"
	KindEngineOverheating = "ENGINE_OVERHEATING"
)

// Severities in ascending order of urgency.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Alert is a safety finding derived from one telemetry event. Immutable after
// creation except for acknowledgement.
type Alert struct {
	ID           int64     `json:"id"`
	EventID      int64     `json:"event_id"`
	VehicleID    int64     `json:"vehicle_id"`
	Kind         string    `json:"alert_type"`
	Severity     string    `json:"severity"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"is_acknowledged"`
}

// Repository persists alerts.
type Repository interface {
	// InsertGroup persists all alerts for one event atomically.
	InsertGroup(ctx context.Context, group []Alert) error
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]Alert, error)
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
	// Acknowledge flips the flag; ErrNotFound for unknown ids.
	Acknowledge(ctx context.Context, id int64) (*Alert, error)
}
