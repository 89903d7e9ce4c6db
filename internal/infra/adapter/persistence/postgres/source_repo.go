package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/pkg/search"
	"infospace/internal/repository"
)

// SourceRepo is the PostgreSQL implementation of repository.SourceRepository.
type SourceRepo struct{ db *sql.DB }

// NewSourceRepo constructs a PostgreSQL-backed SourceRepository.
func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, uuid, infospace_id, user_id, name, kind, details, status,
	error_message, imported_from_uuid, created_at, updated_at`

func scanSource(scanner interface{ Scan(...any) error }) (*entity.Source, error) {
	var s entity.Source
	var detailsJSON []byte
	err := scanner.Scan(
		&s.ID, &s.UUID, &s.InfospaceID, &s.UserID, &s.Name, &s.Kind, &detailsJSON,
		&s.Status, &s.ErrorMessage, &s.ImportedFromUUID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &s.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	return &s, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1 LIMIT 1`
	s, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

func (repo *SourceRepo) List(ctx context.Context, infospaceID int64) ([]*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE infospace_id = $1 ORDER BY id ASC`
	return repo.querySources(ctx, query, infospaceID)
}

func (repo *SourceRepo) GetByImportedFromUUID(ctx context.Context, infospaceID int64, sourceUUID uuid.UUID) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE infospace_id = $1 AND imported_from_uuid = $2 LIMIT 1`
	s, err := scanSource(repo.db.QueryRowContext(ctx, query, infospaceID, sourceUUID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByImportedFromUUID: %w", err)
	}
	return s, nil
}

func (repo *SourceRepo) ListByKind(ctx context.Context, kind entity.SourceKind) ([]*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE kind = $1 AND status = 'ACTIVE' ORDER BY id ASC`
	return repo.querySources(ctx, query, kind)
}

func (repo *SourceRepo) Search(ctx context.Context, infospaceID int64, keyword string) ([]*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE infospace_id = $1 AND name ILIKE $2 ORDER BY id ASC`
	return repo.querySources(ctx, query, infospaceID, search.EscapeILIKE(keyword))
}

func (repo *SourceRepo) querySources(ctx context.Context, query string, args ...interface{}) ([]*entity.Source, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querySources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 50)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("querySources: Scan: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, s *entity.Source) error {
	detailsJSON, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("Create: marshal details: %w", err)
	}
	const query = `
INSERT INTO sources (uuid, infospace_id, user_id, name, kind, details, status,
	error_message, imported_from_uuid, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
RETURNING id, created_at, updated_at`
	err = repo.db.QueryRowContext(ctx, query,
		s.UUID, s.InfospaceID, s.UserID, s.Name, s.Kind, detailsJSON,
		s.Status, s.ErrorMessage, s.ImportedFromUUID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, s *entity.Source) error {
	detailsJSON, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("Update: marshal details: %w", err)
	}
	const query = `
UPDATE sources SET name = $1, details = $2, status = $3, error_message = $4, updated_at = NOW()
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query, s.Name, detailsJSON, s.Status, s.ErrorMessage, s.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *SourceRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM sources WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *SourceRepo) SetErrorMessage(ctx context.Context, id int64, message *string) error {
	const query = `UPDATE sources SET error_message = $1, updated_at = NOW() WHERE id = $2`
	_, err := repo.db.ExecContext(ctx, query, message, id)
	if err != nil {
		return fmt.Errorf("SetErrorMessage: %w", err)
	}
	return nil
}
