// Package source provides CRUD use cases for Sources: the logical origin
// of one or more Assets (an upload, a bulk URL-list run, an RSS
// subscription, ...). Asset creation itself is ingest's job
// (internal/usecase/ingest); this package only manages the Source record
// life cycle — list, search, update metadata/status, delete.
package source

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// CreateInput represents the input parameters for creating a new source.
type CreateInput struct {
	InfospaceID int64
	UserID      int64
	Name        string
	Kind        entity.SourceKind
	Details     entity.Metadata
}

// UpdateInput represents the input parameters for updating an existing
// source. Empty string fields and a nil Details map leave that field
// unchanged.
type UpdateInput struct {
	ID      int64
	Name    string
	Status  string
	Details entity.Metadata
}

// Service provides source management use cases.
// It handles business logic for source operations and delegates persistence to the repository.
type Service struct {
	Repo repository.SourceRepository
}

// Get retrieves a single source by ID. Returns ErrSourceNotFound if it
// does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Source, error) {
	src, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return nil, ErrSourceNotFound
	}
	return src, nil
}

// List retrieves every source belonging to infospaceID.
func (s *Service) List(ctx context.Context, infospaceID int64) ([]*entity.Source, error) {
	sources, err := s.Repo.List(ctx, infospaceID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// Search finds sources within infospaceID matching the given keyword.
// The search is performed against source names.
func (s *Service) Search(ctx context.Context, infospaceID int64, keyword string) ([]*entity.Source, error) {
	sources, err := s.Repo.Search(ctx, infospaceID, keyword)
	if err != nil {
		return nil, fmt.Errorf("search sources: %w", err)
	}
	return sources, nil
}

// Create creates a new source scoped to in.InfospaceID.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Source, error) {
	if in.Name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "is required"}
	}
	if in.Kind == "" {
		return nil, &entity.ValidationError{Field: "kind", Message: "is required"}
	}

	src := entity.NewSource(in.InfospaceID, in.UserID, in.Name, in.Kind)
	if in.Details != nil {
		for k, v := range in.Details {
			src.Details[k] = v
		}
	}

	if err := s.Repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Update modifies an existing source with the provided input.
// Empty string fields and a nil Details map are left unchanged.
// Returns ErrSourceNotFound if the source does not exist.
func (s *Service) Update(ctx context.Context, in UpdateInput) error {
	if in.ID <= 0 {
		return &entity.ValidationError{Field: "id", Message: "must be positive"}
	}

	src, err := s.Repo.Get(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return ErrSourceNotFound
	}

	if in.Name != "" {
		src.Name = in.Name
	}
	if in.Status != "" {
		src.Status = in.Status
	}
	for k, v := range in.Details {
		if src.Details == nil {
			src.Details = entity.Metadata{}
		}
		src.Details[k] = v
	}

	if err := s.Repo.Update(ctx, src); err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	return nil
}

// Delete removes a source by its ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &entity.ValidationError{Field: "id", Message: "must be positive"}
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}
