package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	telemetry "telematics-cloud/internal/telemetry/domain"
)

const defaultEventTable = "telematics_events"

const eventColumns = `id, vehicle_id, ts, latitude, longitude, speed, heading, altitude,
	odometer, fuel_level, engine_load, engine_rpm, coolant_temp,
	event_type, additional_data, is_processed, processed_at`

// EventRepository is the Postgres event store. It implements the telemetry
// Repository, PriorEventSource and Backlog contracts.
type EventRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*EventRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *EventRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEventRepository constructs a repository with default table name.
func NewEventRepository(db *sql.DB, opts ...RepositoryOption) *EventRepository {
	repo := &EventRepository{db: db, table: defaultEventTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert appends one event and fills its generated id.
func (r *EventRepository) Insert(ctx context.Context, event *telemetry.Event) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
	}
	if event == nil {
		return errors.New("event repo: nil event")
	}
	if event.VehicleID == 0 || event.Timestamp.IsZero() {
		return errors.New("event repo: invalid event")
	}

	var lat, lon sql.NullFloat64
	if event.Position != nil {
		lat = sql.NullFloat64{Float64: event.Position.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: event.Position.Longitude, Valid: true}
	}

	query := `
INSERT INTO ` + r.table + ` (
	vehicle_id, ts, latitude, longitude, speed, heading, altitude,
	odometer, fuel_level, engine_load, engine_rpm, coolant_temp,
	event_type, additional_data, is_processed
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE
)
RETURNING id`
	return r.db.QueryRowContext(
		ctx,
		query,
		event.VehicleID,
		event.Timestamp,
		lat,
		lon,
		nullFloat(event.Speed),
		nullFloat(event.Heading),
		nullFloat(event.Altitude),
		nullFloat(event.Odometer),
		nullFloat(event.FuelLevel),
		nullFloat(event.EngineLoad),
		nullInt(event.EngineRPM),
		nullFloat(event.CoolantTemp),
		event.EventType,
		nullString(event.AdditionalData),
	).Scan(&event.ID)
}

// ListByVehicle returns a vehicle's events ordered by timestamp ascending.
func (r *EventRepository) ListByVehicle(ctx context.Context, vehicleID int64, start, end *time.Time) ([]telemetry.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}

	var builder strings.Builder
	builder.WriteString("SELECT " + eventColumns + " FROM " + r.table + " WHERE vehicle_id = $1")
	args := []any{vehicleID}
	if start != nil {
		args = append(args, *start)
		builder.WriteString(fmt.Sprintf(" AND ts >= $%d", len(args)))
	}
	if end != nil {
		args = append(args, *end)
		builder.WriteString(fmt.Sprintf(" AND ts <= $%d", len(args)))
	}
	builder.WriteString(" ORDER BY ts ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// LatestPrior returns the most recent sample strictly before beforeID for the
// same vehicle: timestamp descending, id descending as tie-break.
func (r *EventRepository) LatestPrior(ctx context.Context, vehicleID, beforeID int64) (*telemetry.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}

	query := `
SELECT ` + eventColumns + `
FROM ` + r.table + `
WHERE vehicle_id = $1 AND id < $2
ORDER BY ts DESC, id DESC
LIMIT 1`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, beforeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// Claim returns up to limit unprocessed events, oldest timestamp first.
func (r *EventRepository) Claim(ctx context.Context, limit int) ([]telemetry.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
SELECT ` + eventColumns + `
FROM ` + r.table + `
WHERE is_processed = FALSE
ORDER BY ts ASC, id ASC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Ack marks exactly the given ids processed in one statement.
func (r *EventRepository) Ack(ctx context.Context, ids []int64) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}
	query := `
UPDATE ` + r.table + `
SET is_processed = TRUE, processed_at = NOW()
WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Size returns the unprocessed backlog count.
func (r *EventRepository) Size(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("event repo: nil db")
	}
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.table+" WHERE is_processed = FALSE").Scan(&count)
	return count, err
}

func scanEvents(rows *sql.Rows) ([]telemetry.Event, error) {
	var events []telemetry.Event
	for rows.Next() {
		var event telemetry.Event
		var lat, lon, speed, heading, altitude, odometer, fuel, load, coolant sql.NullFloat64
		var rpm sql.NullInt64
		var extra sql.NullString
		var processedAt sql.NullTime
		if err := rows.Scan(
			&event.ID,
			&event.VehicleID,
			&event.Timestamp,
			&lat,
			&lon,
			&speed,
			&heading,
			&altitude,
			&odometer,
			&fuel,
			&load,
			&rpm,
			&coolant,
			&event.EventType,
			&extra,
			&event.Processed,
			&processedAt,
		); err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			event.Position = &telemetry.Position{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		event.Speed = floatPtr(speed)
		event.Heading = floatPtr(heading)
		event.Altitude = floatPtr(altitude)
		event.Odometer = floatPtr(odometer)
		event.FuelLevel = floatPtr(fuel)
		event.EngineLoad = floatPtr(load)
		event.CoolantTemp = floatPtr(coolant)
		if rpm.Valid {
			value := int(rpm.Int64)
			event.EngineRPM = &value
		}
		if extra.Valid {
			value := extra.String
			event.AdditionalData = &value
		}
		if processedAt.Valid {
			value := processedAt.Time
			event.ProcessedAt = &value
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
