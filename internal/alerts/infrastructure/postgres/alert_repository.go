package postgres

import (
	"context"
	"database/sql"
	"errors"

	alerts "telematics-cloud/internal/alerts/domain"
)

const defaultAlertTable = "alerts"

const alertColumns = "id, event_id, vehicle_id, alert_type, severity, description, created_at, is_acknowledged"

// AlertRepository is a Postgres implementation of the alert store.
type AlertRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*AlertRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *AlertRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAlertRepository constructs a repository with default table name.
func NewAlertRepository(db *sql.DB, opts ...RepositoryOption) *AlertRepository {
	repo := &AlertRepository{db: db, table: defaultAlertTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertGroup persists all alerts for one event in a single transaction.
func (r *AlertRepository) InsertGroup(ctx context.Context, group []alerts.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if len(group) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `
INSERT INTO ` + r.table + ` (event_id, vehicle_id, alert_type, severity, description, created_at, is_acknowledged)
VALUES ($1, $2, $3, $4, $5, $6, FALSE)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, alert := range group {
		if alert.EventID == 0 || alert.VehicleID == 0 || alert.Kind == "" {
			_ = tx.Rollback()
			return errors.New("alert repo: invalid alert")
		}
		if _, err := stmt.ExecContext(
			ctx,
			alert.EventID,
			alert.VehicleID,
			alert.Kind,
			alert.Severity,
			alert.Description,
			alert.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListByVehicle returns a vehicle's alerts, newest first.
func (r *AlertRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + alertColumns + `
FROM ` + r.table + `
WHERE vehicle_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListRecent returns the newest alerts across all vehicles.
func (r *AlertRepository) ListRecent(ctx context.Context, limit int) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + alertColumns + `
FROM ` + r.table + `
ORDER BY created_at DESC, id DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// Acknowledge sets the flag and returns the updated alert.
func (r *AlertRepository) Acknowledge(ctx context.Context, id int64) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	query := `
UPDATE ` + r.table + `
SET is_acknowledged = TRUE
WHERE id = $1
RETURNING ` + alertColumns
	row := r.db.QueryRowContext(ctx, query, id)
	var alert alerts.Alert
	err := row.Scan(
		&alert.ID,
		&alert.EventID,
		&alert.VehicleID,
		&alert.Kind,
		&alert.Severity,
		&alert.Description,
		&alert.CreatedAt,
		&alert.Acknowledged,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, alerts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func scanAlerts(rows *sql.Rows) ([]alerts.Alert, error) {
	var result []alerts.Alert
	for rows.Next() {
		var alert alerts.Alert
		if err := rows.Scan(
			&alert.ID,
			&alert.EventID,
			&alert.VehicleID,
			&alert.Kind,
			&alert.Severity,
			&alert.Description,
			&alert.CreatedAt,
			&alert.Acknowledged,
		); err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	return result, rows.Err()
}
