package vehicles

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a vehicle identifier is unknown.
var ErrNotFound = errors.New("vehicles: not found")

// Vehicle is a registered vehicle, created lazily on first telemetry sight.
type Vehicle struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"vehicle_identifier"`
	Make       string    `json:"make,omitempty"`
	Model      string    `json:"model,omitempty"`
	Year       int       `json:"year,omitempty"`
	VIN        string    `json:"vin,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Stats summarizes a vehicle's telemetry history for reporting.
type Stats struct {
	Identifier         string     `json:"vehicle_identifier"`
	TotalEvents        int64      `json:"total_events"`
	LastEventTime      *time.Time `json:"last_event_time,omitempty"`
	LastKnownSpeed     *float64   `json:"last_known_speed,omitempty"`
	LastKnownLatitude  *float64   `json:"last_known_latitude,omitempty"`
	LastKnownLongitude *float64   `json:"last_known_longitude,omitempty"`
	ActiveTrips        int64      `json:"active_trips"`
	TotalAlerts        int64      `json:"total_alerts"`
}

// Repository persists and resolves vehicles.
type Repository interface {
	// ResolveOrCreate returns the vehicle for identifier, creating it on
	// first sight. Safe under concurrent first-sight creation: the
	// unique-identifier conflict is absorbed and the winning row returned.
	ResolveOrCreate(ctx context.Context, identifier string) (*Vehicle, error)
	// GetByIdentifier returns ErrNotFound for unknown identifiers.
	GetByIdentifier(ctx context.Context, identifier string) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	Stats(ctx context.Context, identifier string) (*Stats, error)
}
