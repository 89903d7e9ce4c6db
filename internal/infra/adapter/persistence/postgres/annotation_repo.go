package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// AnnotationRepo is the PostgreSQL implementation of
// repository.AnnotationRepository.
type AnnotationRepo struct{ db *sql.DB }

// NewAnnotationRepo constructs a PostgreSQL-backed AnnotationRepository.
func NewAnnotationRepo(db *sql.DB) repository.AnnotationRepository {
	return &AnnotationRepo{db: db}
}

const annotationColumns = `id, uuid, asset_id, schema_id, run_id, value, status,
	error_message, region, links, created_at, updated_at`

func scanAnnotation(scanner interface{ Scan(...any) error }) (*entity.Annotation, error) {
	var a entity.Annotation
	var valueJSON, regionJSON, linksJSON []byte
	err := scanner.Scan(&a.ID, &a.UUID, &a.AssetID, &a.SchemaID, &a.RunID, &valueJSON,
		&a.Status, &a.ErrorMessage, &regionJSON, &linksJSON, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(valueJSON) > 0 {
		_ = json.Unmarshal(valueJSON, &a.Value)
	}
	if len(regionJSON) > 0 {
		_ = json.Unmarshal(regionJSON, &a.Region)
	}
	if len(linksJSON) > 0 {
		_ = json.Unmarshal(linksJSON, &a.Links)
	}
	return &a, nil
}

func (repo *AnnotationRepo) Get(ctx context.Context, id int64) (*entity.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1 LIMIT 1`
	a, err := scanAnnotation(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *AnnotationRepo) ListByRun(ctx context.Context, runID int64) ([]*entity.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE run_id = $1 ORDER BY id ASC`
	return repo.queryAnnotations(ctx, query, runID)
}

func (repo *AnnotationRepo) ListByAsset(ctx context.Context, assetID int64) ([]*entity.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE asset_id = $1 ORDER BY id ASC`
	return repo.queryAnnotations(ctx, query, assetID)
}

func (repo *AnnotationRepo) queryAnnotations(ctx context.Context, query string, args ...interface{}) ([]*entity.Annotation, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryAnnotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	annotations := make([]*entity.Annotation, 0, 50)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("queryAnnotations: Scan: %w", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

func (repo *AnnotationRepo) Upsert(ctx context.Context, a *entity.Annotation) error {
	valueJSON, err := json.Marshal(a.Value)
	if err != nil {
		return fmt.Errorf("Upsert: marshal value: %w", err)
	}
	regionJSON, err := json.Marshal(a.Region)
	if err != nil {
		return fmt.Errorf("Upsert: marshal region: %w", err)
	}
	linksJSON, err := json.Marshal(a.Links)
	if err != nil {
		return fmt.Errorf("Upsert: marshal links: %w", err)
	}
	const query = `
INSERT INTO annotations (uuid, asset_id, schema_id, run_id, value, status, error_message,
	region, links, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
ON CONFLICT (asset_id, schema_id, run_id)
DO UPDATE SET
	value = EXCLUDED.value,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	region = EXCLUDED.region,
	links = EXCLUDED.links,
	updated_at = NOW()
RETURNING id, created_at, updated_at`
	err = repo.db.QueryRowContext(ctx, query,
		a.UUID, a.AssetID, a.SchemaID, a.RunID, valueJSON, a.Status, a.ErrorMessage,
		regionJSON, linksJSON,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *AnnotationRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM annotations WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *AnnotationRepo) CreateJustifications(ctx context.Context, justifications []*entity.Justification) error {
	if len(justifications) == 0 {
		return nil
	}
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreateJustifications: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO justifications (annotation_id, field_name, reasoning, evidence_payload, score, model_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
RETURNING id, created_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("CreateJustifications: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, j := range justifications {
		evidenceJSON, err := json.Marshal(j.EvidencePayload)
		if err != nil {
			return fmt.Errorf("CreateJustifications: marshal evidence_payload: %w", err)
		}
		if err := stmt.QueryRowContext(ctx, j.AnnotationID, j.FieldName, j.Reasoning,
			evidenceJSON, j.Score, j.ModelName).Scan(&j.ID, &j.CreatedAt); err != nil {
			return fmt.Errorf("CreateJustifications: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CreateJustifications: commit: %w", err)
	}
	return nil
}

func (repo *AnnotationRepo) ListJustifications(ctx context.Context, annotationID int64) ([]*entity.Justification, error) {
	const query = `
SELECT id, annotation_id, field_name, reasoning, evidence_payload, score, model_name, created_at
FROM justifications WHERE annotation_id = $1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, annotationID)
	if err != nil {
		return nil, fmt.Errorf("ListJustifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	justifications := make([]*entity.Justification, 0, 10)
	for rows.Next() {
		var j entity.Justification
		var evidenceJSON []byte
		if err := rows.Scan(&j.ID, &j.AnnotationID, &j.FieldName, &j.Reasoning,
			&evidenceJSON, &j.Score, &j.ModelName, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListJustifications: Scan: %w", err)
		}
		if len(evidenceJSON) > 0 {
			_ = json.Unmarshal(evidenceJSON, &j.EvidencePayload)
		}
		justifications = append(justifications, &j)
	}
	return justifications, rows.Err()
}
