package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/machinemind/predictive-maintenance/pkg/database"
	"github.com/machinemind/predictive-maintenance/pkg/models"
	"github.com/machinemind/predictive-maintenance/pkg/pagination"
)

var ErrPredictionNotFound = errors.New("prediction not found")

type PredictionRepository struct {
	db *database.DB
}

func NewPredictionRepository(db *database.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `prediction_id, reading_id, machine_id, is_failure, failure_type,
	confidence_score, explanation_data, natural_language_reason, created_at`

func scanPrediction(row interface {
	Scan(dest ...interface{}) error
}) (*models.Prediction, error) {
	var p models.Prediction
	var explanation []byte

	err := row.Scan(
		&p.ID, &p.ReadingID, &p.MachineID, &p.IsFailure, &p.FailureType,
		&p.ConfidenceScore, &explanation, &p.Reason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(explanation) > 0 {
		if err := json.Unmarshal(explanation, &p.Explanation); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// Save stores a prediction and flips its reading to processed in one
// transaction. The upsert on reading_id makes retries after a partial
// failure safe: reprocessing a reading replaces its prediction instead
// of violating the unique constraint.
func (r *PredictionRepository) Save(ctx context.Context, prediction *models.Prediction) error {
	explanation, err := json.Marshal(prediction.Explanation)
	if err != nil {
		return err
	}
	if prediction.Explanation == nil {
		explanation = []byte(`{}`)
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		upsert := `
			INSERT INTO predictions (
				reading_id, machine_id, is_failure, failure_type,
				confidence_score, explanation_data, natural_language_reason
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (reading_id) DO UPDATE SET
				is_failure = EXCLUDED.is_failure,
				failure_type = EXCLUDED.failure_type,
				confidence_score = EXCLUDED.confidence_score,
				explanation_data = EXCLUDED.explanation_data,
				natural_language_reason = EXCLUDED.natural_language_reason
			RETURNING prediction_id, created_at`

		err := tx.QueryRowContext(ctx, upsert,
			prediction.ReadingID,
			prediction.MachineID,
			prediction.IsFailure,
			prediction.FailureType,
			prediction.ConfidenceScore,
			explanation,
			prediction.Reason,
		).Scan(&prediction.ID, &prediction.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sensor_readings
			SET is_processed = TRUE, processed_at = CURRENT_TIMESTAMP
			WHERE reading_id = $1`,
			prediction.ReadingID,
		)
		return err
	})
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE prediction_id = $1`

	prediction, err := scanPrediction(r.db.QueryRowContext(ctx, query, predictionID))
	if err == sql.ErrNoRows {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, err
	}

	return prediction, nil
}

func (r *PredictionRepository) GetByReadingID(ctx context.Context, readingID string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE reading_id = $1`

	prediction, err := scanPrediction(r.db.QueryRowContext(ctx, query, readingID))
	if err == sql.ErrNoRows {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, err
	}

	return prediction, nil
}

func (r *PredictionRepository) List(ctx context.Context, params pagination.Params) (pagination.Page[*models.Prediction], error) {
	params = params.Normalize()

	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE ($1::timestamptz IS NULL OR created_at < $1)
		ORDER BY created_at DESC
		LIMIT $2`

	predictions, err := r.queryPredictions(ctx, query, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.Prediction]{}, err
	}

	return pagination.NewPage(predictions, params.Limit, predictionCursor), nil
}

func (r *PredictionRepository) ListByMachine(ctx context.Context, machineID string, params pagination.Params) (pagination.Page[*models.Prediction], error) {
	params = params.Normalize()

	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE machine_id = $1
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	predictions, err := r.queryPredictions(ctx, query, machineID, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.Prediction]{}, err
	}

	return pagination.NewPage(predictions, params.Limit, predictionCursor), nil
}

func (r *PredictionRepository) ListFailures(ctx context.Context, params pagination.Params) (pagination.Page[*models.Prediction], error) {
	params = params.Normalize()

	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE is_failure = TRUE
		  AND ($1::timestamptz IS NULL OR created_at < $1)
		ORDER BY created_at DESC
		LIMIT $2`

	predictions, err := r.queryPredictions(ctx, query, params.Cursor, params.Limit+1)
	if err != nil {
		return pagination.Page[*models.Prediction]{}, err
	}

	return pagination.NewPage(predictions, params.Limit, predictionCursor), nil
}

func predictionCursor(p *models.Prediction) time.Time {
	return p.CreatedAt
}

func (r *PredictionRepository) queryPredictions(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, prediction)
	}

	return predictions, rows.Err()
}
