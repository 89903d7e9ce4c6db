package repository

import (
	"context"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
)

// SourceRepository persists Sources: the logical origin of one or more
// Assets (an upload, a bulk URL-list run, an RSS subscription, ...).
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.Source, error)
	List(ctx context.Context, infospaceID int64) ([]*entity.Source, error)
	// GetByImportedFromUUID finds a Source previously created by importing a
	// package whose source entity carried sourceUUID, used to make package
	// import idempotent under conflict_strategy="skip" (spec §4.9.3).
	GetByImportedFromUUID(ctx context.Context, infospaceID int64, sourceUUID uuid.UUID) (*entity.Source, error)
	// ListByKind returns sources of a given kind, used by the worker's RSS
	// polling loop to find all RSS_FEED sources due for a crawl.
	ListByKind(ctx context.Context, kind entity.SourceKind) ([]*entity.Source, error)
	Search(ctx context.Context, infospaceID int64, keyword string) ([]*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	Update(ctx context.Context, source *entity.Source) error
	Delete(ctx context.Context, id int64) error
	SetErrorMessage(ctx context.Context, id int64, message *string) error
}
