package telemetry

import (
	"context"
	"time"
)

// DefaultEventType tags plain position samples.
const DefaultEventType = "POSITION"

// MaxAdditionalDataLen bounds the opaque extension payload.
const MaxAdditionalDataLen = 500

// Position is a WGS84 point.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event is one persisted telemetry sample. Created unprocessed by ingestion
// and mutated exactly once when the backlog reprocessor marks it enriched.
type Event struct {
	ID        int64     `json:"id"`
	VehicleID int64     `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`

	Position *Position `json:"position,omitempty"`

	Speed          *float64 `json:"speed,omitempty"`
	Heading        *float64 `json:"heading,omitempty"`
	Altitude       *float64 `json:"altitude,omitempty"`
	Odometer       *float64 `json:"odometer,omitempty"`
	FuelLevel      *float64 `json:"fuel_level,omitempty"`
	EngineLoad     *float64 `json:"engine_load,omitempty"`
	EngineRPM      *int     `json:"engine_rpm,omitempty"`
	CoolantTemp    *float64 `json:"engine_coolant_temperature,omitempty"`
	EventType      string   `json:"event_type"`
	AdditionalData *string  `json:"additional_data,omitempty"`

	Processed   bool       `json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// EventInput is a submitted sample before vehicle resolution.
type EventInput struct {
	VehicleIdentifier string    `json:"vehicleIdentifier"`
	Timestamp         time.Time `json:"timestamp"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	Speed             *float64  `json:"speed,omitempty"`
	Heading           *float64  `json:"heading,omitempty"`
	Altitude          *float64  `json:"altitude,omitempty"`
	Odometer          *float64  `json:"odometer,omitempty"`
	FuelLevel         *float64  `json:"fuelLevel,omitempty"`
	EngineLoad        *float64  `json:"engineLoad,omitempty"`
	EngineRPM         *int      `json:"engineRPM,omitempty"`
	CoolantTemp       *float64  `json:"engineCoolantTemperature,omitempty"`
	EventType         string    `json:"eventType,omitempty"`
	AdditionalData    *string   `json:"additionalData,omitempty"`
}

// Repository persists telemetry events and serves history queries.
type Repository interface {
	Insert(ctx context.Context, event *Event) error
	// ListByVehicle returns events for one vehicle ordered by timestamp
	// ascending, optionally bounded by [start, end].
	ListByVehicle(ctx context.Context, vehicleID int64, start, end *time.Time) ([]Event, error)
}

// PriorEventSource resolves the most recent sample before a given event.
// Ordering: timestamp descending with internal id descending as tie-break.
type PriorEventSource interface {
	LatestPrior(ctx context.Context, vehicleID, beforeID int64) (*Event, error)
}

// Backlog is the work queue over the unprocessed flag column: claim a bounded
// batch, process, acknowledge. A claim does not lock rows; deployments run a
// single reprocessor instance.
type Backlog interface {
	// Claim returns up to limit unprocessed events, oldest timestamp first.
	Claim(ctx context.Context, limit int) ([]Event, error)
	// Ack marks exactly the given event ids processed and stamps processed_at.
	Ack(ctx context.Context, ids []int64) error
	// Size returns the number of unprocessed events.
	Size(ctx context.Context) (int64, error)
}
