package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// SchemaRepo is the PostgreSQL implementation of repository.SchemaRepository.
type SchemaRepo struct{ db *sql.DB }

// NewSchemaRepo constructs a PostgreSQL-backed SchemaRepository.
func NewSchemaRepo(db *sql.DB) repository.SchemaRepository {
	return &SchemaRepo{db: db}
}

const schemaColumns = `id, uuid, infospace_id, name, version, output_contract, instructions,
	field_specific_justification_cfg, target_level, created_at`

func scanSchema(scanner interface{ Scan(...any) error }) (*entity.AnnotationSchema, error) {
	var s entity.AnnotationSchema
	var contractJSON, justificationJSON []byte
	err := scanner.Scan(&s.ID, &s.UUID, &s.InfospaceID, &s.Name, &s.Version, &contractJSON,
		&s.Instructions, &justificationJSON, &s.TargetLevel, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(contractJSON) > 0 {
		if err := json.Unmarshal(contractJSON, &s.OutputContract); err != nil {
			return nil, fmt.Errorf("unmarshal output_contract: %w", err)
		}
	}
	if len(justificationJSON) > 0 {
		if err := json.Unmarshal(justificationJSON, &s.FieldSpecificJustificationCfg); err != nil {
			return nil, fmt.Errorf("unmarshal field_specific_justification_cfg: %w", err)
		}
	}
	return &s, nil
}

func (repo *SchemaRepo) Get(ctx context.Context, id int64) (*entity.AnnotationSchema, error) {
	query := `SELECT ` + schemaColumns + ` FROM annotation_schemas WHERE id = $1 LIMIT 1`
	s, err := scanSchema(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

func (repo *SchemaRepo) GetLatestVersion(ctx context.Context, schemaUUID uuid.UUID) (*entity.AnnotationSchema, error) {
	query := `SELECT ` + schemaColumns + ` FROM annotation_schemas WHERE uuid = $1 ORDER BY version DESC LIMIT 1`
	s, err := scanSchema(repo.db.QueryRowContext(ctx, query, schemaUUID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetLatestVersion: %w", err)
	}
	return s, nil
}

func (repo *SchemaRepo) List(ctx context.Context, infospaceID int64) ([]*entity.AnnotationSchema, error) {
	query := `SELECT ` + schemaColumns + ` FROM annotation_schemas WHERE infospace_id = $1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, infospaceID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schemas := make([]*entity.AnnotationSchema, 0, 20)
	for rows.Next() {
		s, err := scanSchema(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		schemas = append(schemas, s)
	}
	return schemas, rows.Err()
}

func (repo *SchemaRepo) Create(ctx context.Context, s *entity.AnnotationSchema) error {
	contractJSON, err := json.Marshal(s.OutputContract)
	if err != nil {
		return fmt.Errorf("Create: marshal output_contract: %w", err)
	}
	justificationJSON, err := json.Marshal(s.FieldSpecificJustificationCfg)
	if err != nil {
		return fmt.Errorf("Create: marshal field_specific_justification_cfg: %w", err)
	}
	const query = `
INSERT INTO annotation_schemas (uuid, infospace_id, name, version, output_contract,
	instructions, field_specific_justification_cfg, target_level, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
RETURNING id, created_at`
	err = repo.db.QueryRowContext(ctx, query,
		s.UUID, s.InfospaceID, s.Name, s.Version, contractJSON,
		s.Instructions, justificationJSON, s.TargetLevel,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SchemaRepo) Update(ctx context.Context, s *entity.AnnotationSchema) error {
	justificationJSON, err := json.Marshal(s.FieldSpecificJustificationCfg)
	if err != nil {
		return fmt.Errorf("Update: marshal field_specific_justification_cfg: %w", err)
	}
	const query = `
UPDATE annotation_schemas SET
	instructions = $1, field_specific_justification_cfg = $2
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, s.Instructions, justificationJSON, s.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *SchemaRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM annotation_schemas WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}
