package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/machinemind/predictive-maintenance/pkg/models"
	"github.com/machinemind/predictive-maintenance/pkg/pagination"
)

var ErrReadingNotFound = errors.New("sensor reading not found")

type ReadingRepository struct {
	db *sql.DB
}

func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

const readingColumns = `reading_id, machine_id, air_temperature_k, process_temperature_k,
	rotational_speed_rpm, torque_nm, tool_wear_min, is_processed, processed_at, captured_at`

func scanReading(row interface {
	Scan(dest ...interface{}) error
}) (*models.SensorReading, error) {
	var r models.SensorReading

	err := row.Scan(
		&r.ID, &r.MachineID, &r.AirTemperatureK, &r.ProcessTemperatureK,
		&r.RotationalSpeedRPM, &r.TorqueNm, &r.ToolWearMin,
		&r.IsProcessed, &r.ProcessedAt, &r.CapturedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *ReadingRepository) GetByID(ctx context.Context, readingID string) (*models.SensorReading, error) {
	query := `SELECT ` + readingColumns + ` FROM sensor_readings WHERE reading_id = $1`

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, readingID))
	if err == sql.ErrNoRows {
		return nil, ErrReadingNotFound
	}
	if err != nil {
		return nil, err
	}

	return reading, nil
}

// GetUnprocessed returns every reading still awaiting a prediction, oldest
// first, so batch processing works through the backlog in capture order.
func (r *ReadingRepository) GetUnprocessed(ctx context.Context) ([]*models.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE is_processed = FALSE
		ORDER BY captured_at ASC`

	return r.queryReadings(ctx, query)
}

func (r *ReadingRepository) List(ctx context.Context, params pagination.Params) (pagination.Page[*models.SensorReading], error) {
	params = params.Normalize()

	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE ($1::timestamptz IS NULL OR captured_at < $1)
		ORDER BY captured_at DESC
		LIMIT $2`

	readings, err := r.queryReadings(ctx, query, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.SensorReading]{}, err
	}

	return pagination.NewPage(readings, params.Limit, readingCursor), nil
}

func (r *ReadingRepository) ListByMachine(ctx context.Context, machineID string, params pagination.Params) (pagination.Page[*models.SensorReading], error) {
	params = params.Normalize()

	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE machine_id = $1
		  AND ($2::timestamptz IS NULL OR captured_at < $2)
		ORDER BY captured_at DESC
		LIMIT $3`

	readings, err := r.queryReadings(ctx, query, machineID, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.SensorReading]{}, err
	}

	return pagination.NewPage(readings, params.Limit, readingCursor), nil
}

func (r *ReadingRepository) ListUnprocessed(ctx context.Context, params pagination.Params) (pagination.Page[*models.SensorReading], error) {
	params = params.Normalize()

	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE is_processed = FALSE
		  AND ($1::timestamptz IS NULL OR captured_at < $1)
		ORDER BY captured_at DESC
		LIMIT $2`

	readings, err := r.queryReadings(ctx, query, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.SensorReading]{}, err
	}

	return pagination.NewPage(readings, params.Limit, readingCursor), nil
}

func readingCursor(r *models.SensorReading) time.Time {
	return r.CapturedAt
}

func (r *ReadingRepository) queryReadings(ctx context.Context, query string, args ...interface{}) ([]*models.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*models.SensorReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

func (r *ReadingRepository) Create(ctx context.Context, reading *models.SensorReading) error {
	query := `
		INSERT INTO sensor_readings (
			machine_id, air_temperature_k, process_temperature_k,
			rotational_speed_rpm, torque_nm, tool_wear_min
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING reading_id, is_processed, captured_at`

	return r.db.QueryRowContext(ctx, query,
		reading.MachineID,
		reading.AirTemperatureK,
		reading.ProcessTemperatureK,
		reading.RotationalSpeedRPM,
		reading.TorqueNm,
		reading.ToolWearMin,
	).Scan(&reading.ID, &reading.IsProcessed, &reading.CapturedAt)
}

func (r *ReadingRepository) CountUnprocessed(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sensor_readings WHERE is_processed = FALSE`,
	).Scan(&count)
	return count, err
}
