package postgres

import (
	"context"
	"database/sql"
	"errors"

	telemetry "telematics-cloud/internal/telemetry/domain"
	trips "telematics-cloud/internal/trips/domain"
)

const defaultTripTable = "trips"

const tripColumns = `id, vehicle_id, start_time, end_time,
	start_latitude, start_longitude, end_latitude, end_longitude,
	distance_km, avg_speed, max_speed, fuel_consumed, event_count, created_at`

// TripRepository is a Postgres implementation of the trip store.
type TripRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*TripRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *TripRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewTripRepository constructs a repository with default table name.
func NewTripRepository(db *sql.DB, opts ...RepositoryOption) *TripRepository {
	repo := &TripRepository{db: db, table: defaultTripTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert appends one trip and fills its generated id.
func (r *TripRepository) Insert(ctx context.Context, trip *trips.Trip) error {
	if r == nil || r.db == nil {
		return errors.New("trip repo: nil db")
	}
	if trip == nil {
		return errors.New("trip repo: nil trip")
	}
	if trip.VehicleID == 0 || trip.StartTime.IsZero() {
		return errors.New("trip repo: invalid trip")
	}

	var startLat, startLon sql.NullFloat64
	if trip.StartLocation != nil {
		startLat = sql.NullFloat64{Float64: trip.StartLocation.Latitude, Valid: true}
		startLon = sql.NullFloat64{Float64: trip.StartLocation.Longitude, Valid: true}
	}

	query := `
INSERT INTO ` + r.table + ` (
	vehicle_id, start_time, start_latitude, start_longitude, event_count, created_at
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	return r.db.QueryRowContext(
		ctx,
		query,
		trip.VehicleID,
		trip.StartTime,
		startLat,
		startLon,
		trip.EventCount,
		trip.CreatedAt,
	).Scan(&trip.ID)
}

// ListByVehicle returns a vehicle's trips, newest start first.
func (r *TripRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]trips.Trip, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("trip repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + tripColumns + `
FROM ` + r.table + `
WHERE vehicle_id = $1
ORDER BY start_time DESC, id DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

// ListRecent returns the newest trips across all vehicles.
func (r *TripRepository) ListRecent(ctx context.Context, limit int) ([]trips.Trip, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("trip repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + tripColumns + `
FROM ` + r.table + `
ORDER BY start_time DESC, id DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

func scanTrips(rows *sql.Rows) ([]trips.Trip, error) {
	var result []trips.Trip
	for rows.Next() {
		var trip trips.Trip
		var endTime sql.NullTime
		var startLat, startLon, endLat, endLon sql.NullFloat64
		var distance, avgSpeed, maxSpeed, fuel sql.NullFloat64
		if err := rows.Scan(
			&trip.ID,
			&trip.VehicleID,
			&trip.StartTime,
			&endTime,
			&startLat,
			&startLon,
			&endLat,
			&endLon,
			&distance,
			&avgSpeed,
			&maxSpeed,
			&fuel,
			&trip.EventCount,
			&trip.CreatedAt,
		); err != nil {
			return nil, err
		}
		if endTime.Valid {
			t := endTime.Time
			trip.EndTime = &t
		}
		if startLat.Valid && startLon.Valid {
			trip.StartLocation = &telemetry.Position{Latitude: startLat.Float64, Longitude: startLon.Float64}
		}
		if endLat.Valid && endLon.Valid {
			trip.EndLocation = &telemetry.Position{Latitude: endLat.Float64, Longitude: endLon.Float64}
		}
		trip.DistanceKm = nullableFloat(distance)
		trip.AverageSpeed = nullableFloat(avgSpeed)
		trip.MaxSpeed = nullableFloat(maxSpeed)
		trip.FuelConsumed = nullableFloat(fuel)
		result = append(result, trip)
	}
	return result, rows.Err()
}

func nullableFloat(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
