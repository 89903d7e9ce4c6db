// Package bundle provides CRUD and membership use cases for Bundles: a
// named, user-curated set of Assets linked many-to-many. Asset ingestion
// itself is ingest's job (internal/usecase/ingest); this package manages
// the Bundle record and its asset links, mirroring internal/usecase/source.
package bundle

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// ErrBundleNotFound indicates that the requested bundle does not exist.
var ErrBundleNotFound = fmt.Errorf("bundle not found")

// CreateInput represents the input parameters for creating a new bundle.
type CreateInput struct {
	InfospaceID int64
	UserID      int64
	Name        string
	Purpose     string
	AssetIDs    []int64
}

// Service provides bundle management use cases.
type Service struct {
	Repo repository.BundleRepository
}

// Get retrieves a single bundle by ID.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Bundle, error) {
	b, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	if b == nil {
		return nil, ErrBundleNotFound
	}
	return b, nil
}

// List retrieves every bundle belonging to infospaceID.
func (s *Service) List(ctx context.Context, infospaceID int64) ([]*entity.Bundle, error) {
	list, err := s.Repo.List(ctx, infospaceID)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	return list, nil
}

// AssetIDs returns the ids of every asset currently linked to bundleID.
func (s *Service) AssetIDs(ctx context.Context, bundleID int64) ([]int64, error) {
	ids, err := s.Repo.ListAssetIDs(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("list bundle assets: %w", err)
	}
	return ids, nil
}

// Create persists a new bundle and links any initial AssetIDs.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Bundle, error) {
	b := entity.NewBundle(in.InfospaceID, in.UserID, in.Name)
	b.Purpose = in.Purpose
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}

	if len(in.AssetIDs) > 0 {
		if err := s.Repo.AddAssets(ctx, b.ID, in.AssetIDs); err != nil {
			return nil, fmt.Errorf("link initial assets to bundle %d: %w", b.ID, err)
		}
		if err := s.Repo.RecomputeAssetCount(ctx, b.ID); err != nil {
			return nil, fmt.Errorf("recompute bundle %d asset count: %w", b.ID, err)
		}
	}
	return b, nil
}

// UpdateInput represents the input parameters for updating a bundle's
// descriptive fields. Empty strings leave that field unchanged.
type UpdateInput struct {
	ID      int64
	Name    string
	Purpose string
}

// Update modifies an existing bundle's Name/Purpose.
func (s *Service) Update(ctx context.Context, in UpdateInput) error {
	b, err := s.Repo.Get(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("get bundle: %w", err)
	}
	if b == nil {
		return ErrBundleNotFound
	}
	if in.Name != "" {
		b.Name = in.Name
	}
	if in.Purpose != "" {
		b.Purpose = in.Purpose
	}
	if err := s.Repo.Update(ctx, b); err != nil {
		return fmt.Errorf("update bundle: %w", err)
	}
	return nil
}

// AddAssets links assetIDs to bundleID and recomputes AssetCount.
func (s *Service) AddAssets(ctx context.Context, bundleID int64, assetIDs []int64) error {
	if err := s.Repo.AddAssets(ctx, bundleID, assetIDs); err != nil {
		return fmt.Errorf("add assets to bundle %d: %w", bundleID, err)
	}
	return s.Repo.RecomputeAssetCount(ctx, bundleID)
}

// RemoveAssets unlinks assetIDs from bundleID and recomputes AssetCount.
// The bundle's Assets themselves are never deleted (spec: bundles weakly
// reference assets).
func (s *Service) RemoveAssets(ctx context.Context, bundleID int64, assetIDs []int64) error {
	if err := s.Repo.RemoveAssets(ctx, bundleID, assetIDs); err != nil {
		return fmt.Errorf("remove assets from bundle %d: %w", bundleID, err)
	}
	return s.Repo.RecomputeAssetCount(ctx, bundleID)
}

// Delete removes a bundle by its ID. Linked Assets are left untouched.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	return nil
}
