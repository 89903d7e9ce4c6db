package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// RunRepo is the PostgreSQL implementation of repository.RunRepository.
type RunRepo struct{ db *sql.DB }

// NewRunRepo constructs a PostgreSQL-backed RunRepository.
func NewRunRepo(db *sql.DB) repository.RunRepository {
	return &RunRepo{db: db}
}

const runColumns = `id, uuid, infospace_id, user_id, name, status, configuration,
	target_schema_ids, include_parent_context, context_window, error_message,
	created_at, updated_at, completed_at`

func scanRun(scanner interface{ Scan(...any) error }) (*entity.AnnotationRun, error) {
	var r entity.AnnotationRun
	var configJSON []byte
	var schemaIDs pq.Int64Array
	err := scanner.Scan(&r.ID, &r.UUID, &r.InfospaceID, &r.UserID, &r.Name, &r.Status,
		&configJSON, &schemaIDs, &r.IncludeParentContext, &r.ContextWindow, &r.ErrorMessage,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &r.Configuration); err != nil {
			return nil, fmt.Errorf("unmarshal configuration: %w", err)
		}
	}
	r.TargetSchemaIDs = []int64(schemaIDs)
	return &r, nil
}

func (repo *RunRepo) Get(ctx context.Context, id int64) (*entity.AnnotationRun, error) {
	query := `SELECT ` + runColumns + ` FROM annotation_runs WHERE id = $1 LIMIT 1`
	r, err := scanRun(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return r, nil
}

func (repo *RunRepo) List(ctx context.Context, infospaceID int64) ([]*entity.AnnotationRun, error) {
	query := `SELECT ` + runColumns + ` FROM annotation_runs WHERE infospace_id = $1 ORDER BY created_at DESC`
	return repo.queryRuns(ctx, query, infospaceID)
}

func (repo *RunRepo) ListByStatus(ctx context.Context, status entity.RunStatus) ([]*entity.AnnotationRun, error) {
	query := `SELECT ` + runColumns + ` FROM annotation_runs WHERE status = $1 ORDER BY created_at ASC`
	return repo.queryRuns(ctx, query, status)
}

func (repo *RunRepo) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*entity.AnnotationRun, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryRuns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*entity.AnnotationRun, 0, 20)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("queryRuns: Scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (repo *RunRepo) Create(ctx context.Context, r *entity.AnnotationRun) error {
	configJSON, err := json.Marshal(r.Configuration)
	if err != nil {
		return fmt.Errorf("Create: marshal configuration: %w", err)
	}
	const query = `
INSERT INTO annotation_runs (uuid, infospace_id, user_id, name, status, configuration,
	target_schema_ids, include_parent_context, context_window, error_message,
	created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
RETURNING id, created_at, updated_at`
	err = repo.db.QueryRowContext(ctx, query,
		r.UUID, r.InfospaceID, r.UserID, r.Name, r.Status, configJSON,
		pq.Array(r.TargetSchemaIDs), r.IncludeParentContext, r.ContextWindow, r.ErrorMessage,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *RunRepo) Update(ctx context.Context, r *entity.AnnotationRun) error {
	configJSON, err := json.Marshal(r.Configuration)
	if err != nil {
		return fmt.Errorf("Update: marshal configuration: %w", err)
	}
	const query = `
UPDATE annotation_runs SET
	status = $1, configuration = $2, error_message = $3, completed_at = $4, updated_at = NOW()
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query, r.Status, configJSON, r.ErrorMessage, r.CompletedAt, r.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *RunRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM annotation_runs WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

var _ repository.RunRepository = (*RunRepo)(nil)
