package repository

import (
	"context"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
)

// SchemaRepository persists AnnotationSchemas. Schemas are immutable per
// (uuid, version): Update is only used for the mutable descriptive fields
// (Instructions, FieldSpecificJustificationCfg), never OutputContract.
type SchemaRepository interface {
	Get(ctx context.Context, id int64) (*entity.AnnotationSchema, error)
	// GetLatestVersion returns the highest-Version schema sharing uuid,
	// used when a run targets a schema "by family" rather than by exact id.
	GetLatestVersion(ctx context.Context, schemaUUID uuid.UUID) (*entity.AnnotationSchema, error)
	List(ctx context.Context, infospaceID int64) ([]*entity.AnnotationSchema, error)
	Create(ctx context.Context, schema *entity.AnnotationSchema) error
	Update(ctx context.Context, schema *entity.AnnotationSchema) error
	Delete(ctx context.Context, id int64) error
}
