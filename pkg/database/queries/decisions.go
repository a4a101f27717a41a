package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OldStager01/throughput-autoscaler/pkg/database"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

const decisionColumns = `id, run_id, resource_id, axis, timestamp, action, peak,
	previous_min, previous_max, target_value, new_min, new_max,
	applied, error_kind, error`

// DecisionRepository stores the audit journal of per-axis run outcomes
type DecisionRepository struct {
	db *sql.DB
}

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *DecisionRepository) Insert(ctx context.Context, record *models.DecisionRecord) error {
	return insertRecord(ctx, r.db, record)
}

// InsertRecords writes all records of one run atomically
func (r *DecisionRepository) InsertRecords(ctx context.Context, records []*models.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, record := range records {
			if err := insertRecord(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRecord(ctx context.Context, q rowQuerier, record *models.DecisionRecord) error {
	query := `
		INSERT INTO capacity_decisions (run_id, resource_id, axis, timestamp, action, peak,
			previous_min, previous_max, target_value, new_min, new_max,
			applied, error_kind, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_id, axis) DO NOTHING
		RETURNING id`

	err := q.QueryRowContext(ctx, query,
		record.RunID, record.ResourceID, string(record.Axis), record.Timestamp,
		string(record.Action), record.Peak,
		record.PreviousMin, record.PreviousMax, record.TargetValue,
		record.NewMin, record.NewMax,
		record.Applied, record.ErrorKind, record.Error,
	).Scan(&record.ID)
	if err == sql.ErrNoRows {
		// already journaled
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert decision record: %w", err)
	}
	return nil
}

func (r *DecisionRepository) GetRecent(ctx context.Context, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + decisionColumns + `
		FROM capacity_decisions
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *DecisionRepository) GetByResource(ctx context.Context, resourceID string, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + decisionColumns + `
		FROM capacity_decisions
		WHERE resource_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *DecisionRepository) GetByRun(ctx context.Context, runID string) ([]*models.DecisionRecord, error) {
	query := `SELECT ` + decisionColumns + `
		FROM capacity_decisions
		WHERE run_id = $1
		ORDER BY axis`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*models.DecisionRecord, error) {
	var records []*models.DecisionRecord
	for rows.Next() {
		var (
			rec    models.DecisionRecord
			axis   string
			action string
		)
		err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.ResourceID, &axis, &rec.Timestamp, &action,
			&rec.Peak, &rec.PreviousMin, &rec.PreviousMax, &rec.TargetValue,
			&rec.NewMin, &rec.NewMax, &rec.Applied, &rec.ErrorKind, &rec.Error,
		)
		if err != nil {
			return nil, err
		}
		rec.Axis = models.Axis(axis)
		rec.Action = models.ScalingAction(action)
		records = append(records, &rec)
	}

	return records, rows.Err()
}
