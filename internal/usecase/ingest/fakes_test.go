package ingest_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
)

// fakeAssetRepo is an in-memory AssetRepository sufficient for exercising
// ingestion handlers: Create assigns a sequential ID, Update persists
// in-place mutations, everything else is a thin slice scan. Guarded by a
// mutex since URLListHandler's bulk path creates assets concurrently.
type fakeAssetRepo struct {
	mu     sync.Mutex
	assets []*entity.Asset
	nextID int64
}

var _ repository.AssetRepository = (*fakeAssetRepo)(nil)

func (r *fakeAssetRepo) Create(_ context.Context, a *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.assets = append(r.assets, a)
	return nil
}

func (r *fakeAssetRepo) CreateBatch(ctx context.Context, assets []*entity.Asset) error {
	for _, a := range assets {
		if err := r.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAssetRepo) Update(_ context.Context, a *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.assets {
		if existing.ID == a.ID {
			r.assets[i] = a
			return nil
		}
	}
	return nil
}

func (r *fakeAssetRepo) Get(_ context.Context, id int64) (*entity.Asset, error) {
	for _, a := range r.assets {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAssetRepo) GetByUUID(_ context.Context, id uuid.UUID) (*entity.Asset, error) {
	for _, a := range r.assets {
		if a.UUID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAssetRepo) List(_ context.Context, _ repository.AssetSearchFilters) ([]*entity.Asset, error) {
	return r.assets, nil
}

func (r *fakeAssetRepo) ListPaginated(_ context.Context, _ repository.AssetSearchFilters, _, _ int) ([]*entity.Asset, error) {
	return r.assets, nil
}

func (r *fakeAssetRepo) Count(_ context.Context, _ repository.AssetSearchFilters) (int64, error) {
	return int64(len(r.assets)), nil
}

func (r *fakeAssetRepo) ListChildren(_ context.Context, parentID int64) ([]*entity.Asset, error) {
	var out []*entity.Asset
	for _, a := range r.assets {
		if a.ParentAssetID != nil && *a.ParentAssetID == parentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) ListWithSource(_ context.Context, _ repository.AssetSearchFilters) ([]repository.AssetWithSource, error) {
	return nil, nil
}

func (r *fakeAssetRepo) Search(_ context.Context, _ []string, _ repository.AssetSearchFilters) ([]*entity.Asset, error) {
	return nil, nil
}

func (r *fakeAssetRepo) UpdateProcessingStatus(_ context.Context, id int64, status entity.ProcessingStatus, procErr *string) error {
	for _, a := range r.assets {
		if a.ID == id {
			a.ProcessingStatus = status
			a.ProcessingError = procErr
		}
	}
	return nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id int64) error {
	var out []*entity.Asset
	for _, a := range r.assets {
		if a.ID != id {
			out = append(out, a)
		}
	}
	r.assets = out
	return nil
}

func (r *fakeAssetRepo) DeleteBatch(_ context.Context, ids []int64) (*entity.BulkOperationError, error) {
	for _, id := range ids {
		_ = r.Delete(context.Background(), id)
	}
	return nil, nil
}

func (r *fakeAssetRepo) ExistsByContentHash(_ context.Context, _ int64, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	for _, a := range r.assets {
		if a.ContentHash != nil && *a.ContentHash == hash {
			return true, nil
		}
	}
	return false, nil
}

// fakeBundleRepo is a minimal in-memory BundleRepository for Router tests.
type fakeBundleRepo struct {
	bundles map[int64]*entity.Bundle
	links   map[int64][]int64
}

var _ repository.BundleRepository = (*fakeBundleRepo)(nil)

func newFakeBundleRepo() *fakeBundleRepo {
	return &fakeBundleRepo{bundles: map[int64]*entity.Bundle{}, links: map[int64][]int64{}}
}

func (r *fakeBundleRepo) Get(_ context.Context, id int64) (*entity.Bundle, error) {
	return r.bundles[id], nil
}

func (r *fakeBundleRepo) List(_ context.Context, _ int64) ([]*entity.Bundle, error) { return nil, nil }

func (r *fakeBundleRepo) Create(_ context.Context, b *entity.Bundle) error {
	r.bundles[b.ID] = b
	return nil
}

func (r *fakeBundleRepo) Update(_ context.Context, b *entity.Bundle) error {
	r.bundles[b.ID] = b
	return nil
}

func (r *fakeBundleRepo) Delete(_ context.Context, id int64) error {
	delete(r.bundles, id)
	return nil
}

func (r *fakeBundleRepo) AddAssets(_ context.Context, bundleID int64, assetIDs []int64) error {
	r.links[bundleID] = append(r.links[bundleID], assetIDs...)
	return nil
}

func (r *fakeBundleRepo) RemoveAssets(_ context.Context, bundleID int64, assetIDs []int64) error {
	return nil
}

func (r *fakeBundleRepo) ListAssetIDs(_ context.Context, bundleID int64) ([]int64, error) {
	return r.links[bundleID], nil
}

func (r *fakeBundleRepo) RecomputeAssetCount(_ context.Context, bundleID int64) error {
	if b, ok := r.bundles[bundleID]; ok {
		b.AssetCount = len(r.links[bundleID])
	}
	return nil
}

// fakeStorage is an in-memory storage.Provider.
type fakeStorage struct {
	blobs map[string][]byte
}

var _ storage.Provider = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage { return &fakeStorage{blobs: map[string][]byte{}} }

func (s *fakeStorage) Put(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.blobs[path] = data
	return int64(len(data)), nil
}

func (s *fakeStorage) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.blobs[path]
	if !ok {
		return nil, &storage.ErrNotFound{Path: path}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	delete(s.blobs, path)
	return nil
}

func (s *fakeStorage) Exists(_ context.Context, path string) (bool, error) {
	_, ok := s.blobs[path]
	return ok, nil
}
