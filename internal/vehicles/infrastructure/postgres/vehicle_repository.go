package postgres

import (
	"context"
	"database/sql"
	"errors"

	vehicles "telematics-cloud/internal/vehicles/domain"
)

const defaultVehicleTable = "vehicles"

// VehicleRepository is a Postgres implementation of the vehicle registry.
type VehicleRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*VehicleRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *VehicleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewVehicleRepository constructs a repository with default table name.
func NewVehicleRepository(db *sql.DB, opts ...RepositoryOption) *VehicleRepository {
	repo := &VehicleRepository{db: db, table: defaultVehicleTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ResolveOrCreate inserts the identifier if unseen and returns the row.
// ON CONFLICT DO NOTHING absorbs concurrent first-sight races; the follow-up
// select returns whichever insert won.
func (r *VehicleRepository) ResolveOrCreate(ctx context.Context, identifier string) (*vehicles.Vehicle, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}
	if identifier == "" {
		return nil, errors.New("vehicle repo: empty identifier")
	}

	insert := `
INSERT INTO ` + r.table + ` (vehicle_identifier, make, model, year, vin, created_at, updated_at)
VALUES ($1, '', '', 0, '', NOW(), NOW())
ON CONFLICT (vehicle_identifier) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, identifier); err != nil {
		return nil, err
	}
	return r.GetByIdentifier(ctx, identifier)
}

// GetByIdentifier loads a vehicle by its external identifier.
func (r *VehicleRepository) GetByIdentifier(ctx context.Context, identifier string) (*vehicles.Vehicle, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}

	query := `
SELECT id, vehicle_identifier, make, model, year, vin, created_at, updated_at
FROM ` + r.table + `
WHERE vehicle_identifier = $1`
	row := r.db.QueryRowContext(ctx, query, identifier)

	var v vehicles.Vehicle
	err := row.Scan(&v.ID, &v.Identifier, &v.Make, &v.Model, &v.Year, &v.VIN, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vehicles.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all registered vehicles.
func (r *VehicleRepository) List(ctx context.Context) ([]vehicles.Vehicle, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}

	query := `
SELECT id, vehicle_identifier, make, model, year, vin, created_at, updated_at
FROM ` + r.table + `
ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []vehicles.Vehicle
	for rows.Next() {
		var v vehicles.Vehicle
		if err := rows.Scan(&v.ID, &v.Identifier, &v.Make, &v.Model, &v.Year, &v.VIN, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// Stats aggregates event, trip and alert totals for one vehicle.
func (r *VehicleRepository) Stats(ctx context.Context, identifier string) (*vehicles.Stats, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}

	vehicle, err := r.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	stats := &vehicles.Stats{Identifier: vehicle.Identifier}

	counts := `
SELECT
	(SELECT COUNT(*) FROM telematics_events WHERE vehicle_id = $1),
	(SELECT COUNT(*) FROM trips WHERE vehicle_id = $1 AND end_time IS NULL),
	(SELECT COUNT(*) FROM alerts WHERE vehicle_id = $1)`
	row := r.db.QueryRowContext(ctx, counts, vehicle.ID)
	if err := row.Scan(&stats.TotalEvents, &stats.ActiveTrips, &stats.TotalAlerts); err != nil {
		return nil, err
	}

	last := `
SELECT ts, speed, latitude, longitude
FROM telematics_events
WHERE vehicle_id = $1
ORDER BY ts DESC, id DESC
LIMIT 1`
	var ts sql.NullTime
	var speed, lat, lon sql.NullFloat64
	err = r.db.QueryRowContext(ctx, last, vehicle.ID).Scan(&ts, &speed, &lat, &lon)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if ts.Valid {
		t := ts.Time
		stats.LastEventTime = &t
	}
	if speed.Valid {
		s := speed.Float64
		stats.LastKnownSpeed = &s
	}
	if lat.Valid {
		v := lat.Float64
		stats.LastKnownLatitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		stats.LastKnownLongitude = &v
	}
	return stats, nil
}
