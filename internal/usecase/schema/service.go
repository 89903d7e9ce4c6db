// Package schema provides CRUD use cases for AnnotationSchemas: versioned
// JSON-schema contracts describing an annotation's expected structured
// output. Compiling and validating against a contract is the annotation
// package's job (internal/usecase/annotation); this package only manages
// the schema record life cycle and rejects a malformed contract up front,
// mirroring internal/usecase/source's own CRUD/validation split.
package schema

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
	"infospace/internal/usecase/annotation"
)

// ErrSchemaNotFound indicates that the requested schema does not exist.
var ErrSchemaNotFound = fmt.Errorf("schema not found")

// CreateInput represents the input parameters for creating a new schema.
type CreateInput struct {
	InfospaceID                   int64
	Name                          string
	OutputContract                entity.Metadata
	Instructions                  string
	FieldSpecificJustificationCfg entity.Metadata
	TargetLevel                   string
}

// Service provides schema management use cases.
type Service struct {
	Repo repository.SchemaRepository
}

// Get retrieves a single schema by ID.
func (s *Service) Get(ctx context.Context, id int64) (*entity.AnnotationSchema, error) {
	sch, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	if sch == nil {
		return nil, ErrSchemaNotFound
	}
	return sch, nil
}

// List retrieves every schema belonging to infospaceID.
func (s *Service) List(ctx context.Context, infospaceID int64) ([]*entity.AnnotationSchema, error) {
	list, err := s.Repo.List(ctx, infospaceID)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return list, nil
}

// Create validates and persists a new version-1 schema.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.AnnotationSchema, error) {
	if in.Name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "is required"}
	}
	if err := annotation.ValidateOutputContract(in.OutputContract); err != nil {
		return nil, &entity.ValidationError{Field: "output_contract", Message: err.Error()}
	}

	sch := entity.NewAnnotationSchema(in.InfospaceID, in.Name, in.OutputContract)
	sch.Instructions = in.Instructions
	sch.FieldSpecificJustificationCfg = in.FieldSpecificJustificationCfg
	if in.TargetLevel != "" {
		sch.TargetLevel = in.TargetLevel
	}

	if err := s.Repo.Create(ctx, sch); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return sch, nil
}

// NewVersion creates a new, immutable version of the schema family sharing
// schemaUUID, bumping Version past whatever GetLatestVersion returns
// (AnnotationSchema is immutable per (uuid, version): a revision is a new
// row, never a mutation of OutputContract).
func (s *Service) NewVersion(ctx context.Context, schemaUUID uuid.UUID, in CreateInput) (*entity.AnnotationSchema, error) {
	latest, err := s.Repo.GetLatestVersion(ctx, schemaUUID)
	if err != nil {
		return nil, fmt.Errorf("get latest schema version: %w", err)
	}
	if latest == nil {
		return nil, ErrSchemaNotFound
	}
	if err := annotation.ValidateOutputContract(in.OutputContract); err != nil {
		return nil, &entity.ValidationError{Field: "output_contract", Message: err.Error()}
	}

	sch := &entity.AnnotationSchema{
		UUID:                          schemaUUID,
		InfospaceID:                   latest.InfospaceID,
		Name:                          latest.Name,
		Version:                       latest.Version + 1,
		OutputContract:                in.OutputContract,
		Instructions:                  in.Instructions,
		FieldSpecificJustificationCfg: in.FieldSpecificJustificationCfg,
		TargetLevel:                   latest.TargetLevel,
	}
	if in.Name != "" {
		sch.Name = in.Name
	}
	if in.TargetLevel != "" {
		sch.TargetLevel = in.TargetLevel
	}

	if err := s.Repo.Create(ctx, sch); err != nil {
		return nil, fmt.Errorf("create schema version: %w", err)
	}
	return sch, nil
}

// UpdateInput updates only the mutable descriptive fields of an existing
// schema; OutputContract is immutable once created (see NewVersion).
type UpdateInput struct {
	ID                            int64
	Instructions                  string
	FieldSpecificJustificationCfg entity.Metadata
}

// Update modifies Instructions/FieldSpecificJustificationCfg on an existing
// schema, never OutputContract.
func (s *Service) Update(ctx context.Context, in UpdateInput) error {
	sch, err := s.Repo.Get(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("get schema: %w", err)
	}
	if sch == nil {
		return ErrSchemaNotFound
	}

	if in.Instructions != "" {
		sch.Instructions = in.Instructions
	}
	for k, v := range in.FieldSpecificJustificationCfg {
		if sch.FieldSpecificJustificationCfg == nil {
			sch.FieldSpecificJustificationCfg = entity.Metadata{}
		}
		sch.FieldSpecificJustificationCfg[k] = v
	}

	if err := s.Repo.Update(ctx, sch); err != nil {
		return fmt.Errorf("update schema: %w", err)
	}
	return nil
}

// Delete removes a schema by its ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}
