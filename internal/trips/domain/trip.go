package trips

import (
	"context"
	"time"

	telemetry "telematics-cloud/internal/telemetry/domain"
)

// Trip is a driving session inferred from telemetry gaps. A nil EndTime means
// the trip is still considered open. Distance, speed and fuel aggregates are
// placeholders: the current segmenter only opens trips, it does not close or
// extend them.
type Trip struct {
	ID        int64     `json:"id"`
	VehicleID int64     `json:"vehicle_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	StartLocation *telemetry.Position `json:"start_location,omitempty"`
	EndLocation   *telemetry.Position `json:"end_location,omitempty"`

	DistanceKm   *float64 `json:"distance_traveled,omitempty"`
	AverageSpeed *float64 `json:"average_speed,omitempty"`
	MaxSpeed     *float64 `json:"max_speed,omitempty"`
	FuelConsumed *float64 `json:"fuel_consumed,omitempty"`

	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists trips.
type Repository interface {
	Insert(ctx context.Context, trip *Trip) error
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]Trip, error)
	ListRecent(ctx context.Context, limit int) ([]Trip, error)
}
