package repository

import (
	"context"

	"infospace/internal/domain/entity"
)

// RunRepository persists AnnotationRuns and their lifecycle transitions
// (spec §4.5).
type RunRepository interface {
	Get(ctx context.Context, id int64) (*entity.AnnotationRun, error)
	List(ctx context.Context, infospaceID int64) ([]*entity.AnnotationRun, error)
	// ListByStatus is used by the worker to find PENDING runs to pick up and
	// RUNNING runs to resume after a restart.
	ListByStatus(ctx context.Context, status entity.RunStatus) ([]*entity.AnnotationRun, error)
	Create(ctx context.Context, run *entity.AnnotationRun) error
	Update(ctx context.Context, run *entity.AnnotationRun) error
	Delete(ctx context.Context, id int64) error
}
