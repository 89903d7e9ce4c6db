package pkgexport_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
	"infospace/internal/usecase/pkgexport"
)

// fakeAssetRepo is an in-memory AssetRepository. Get/GetByUUID return
// (nil, nil) on a miss, matching the PostgreSQL adapter's not-found
// convention (internal/infra/adapter/persistence/postgres/asset_repo.go).
type fakeAssetRepo struct {
	mu     sync.Mutex
	assets map[int64]*entity.Asset
	nextID int64
}

var _ repository.AssetRepository = (*fakeAssetRepo)(nil)

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[int64]*entity.Asset{}}
}

func (r *fakeAssetRepo) Get(_ context.Context, id int64) (*entity.Asset, error) {
	return r.assets[id], nil
}

func (r *fakeAssetRepo) GetByUUID(_ context.Context, id uuid.UUID) (*entity.Asset, error) {
	for _, a := range r.assets {
		if a.UUID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAssetRepo) List(_ context.Context, filters repository.AssetSearchFilters) ([]*entity.Asset, error) {
	var out []*entity.Asset
	for _, a := range r.assets {
		if filters.SourceID != nil && (a.SourceID == nil || *a.SourceID != *filters.SourceID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
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

func (r *fakeAssetRepo) Create(_ context.Context, a *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.assets[a.ID] = a
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
	r.assets[a.ID] = a
	return nil
}

func (r *fakeAssetRepo) UpdateProcessingStatus(_ context.Context, id int64, status entity.ProcessingStatus, procErr *string) error {
	if a, ok := r.assets[id]; ok {
		a.ProcessingStatus = status
		a.ProcessingError = procErr
	}
	return nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id int64) error {
	delete(r.assets, id)
	return nil
}

func (r *fakeAssetRepo) DeleteBatch(_ context.Context, ids []int64) (*entity.BulkOperationError, error) {
	for _, id := range ids {
		delete(r.assets, id)
	}
	return &entity.BulkOperationError{SuccessfulIDs: ids}, nil
}

func (r *fakeAssetRepo) ListPaginated(_ context.Context, _ repository.AssetSearchFilters, _, _ int) ([]*entity.Asset, error) {
	return nil, nil
}
func (r *fakeAssetRepo) Count(_ context.Context, _ repository.AssetSearchFilters) (int64, error) {
	return int64(len(r.assets)), nil
}
func (r *fakeAssetRepo) ListWithSource(_ context.Context, _ repository.AssetSearchFilters) ([]repository.AssetWithSource, error) {
	return nil, nil
}
func (r *fakeAssetRepo) Search(_ context.Context, _ []string, _ repository.AssetSearchFilters) ([]*entity.Asset, error) {
	return nil, nil
}
func (r *fakeAssetRepo) ExistsByContentHash(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}

// fakeSourceRepo is an in-memory SourceRepository.
type fakeSourceRepo struct {
	mu      sync.Mutex
	sources map[int64]*entity.Source
	nextID  int64
}

var _ repository.SourceRepository = (*fakeSourceRepo)(nil)

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{sources: map[int64]*entity.Source{}}
}

func (r *fakeSourceRepo) Get(_ context.Context, id int64) (*entity.Source, error) {
	return r.sources[id], nil
}

func (r *fakeSourceRepo) GetByImportedFromUUID(_ context.Context, infospaceID int64, sourceUUID uuid.UUID) (*entity.Source, error) {
	for _, s := range r.sources {
		if s.InfospaceID == infospaceID && s.ImportedFromUUID != nil && *s.ImportedFromUUID == sourceUUID {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSourceRepo) List(_ context.Context, infospaceID int64) ([]*entity.Source, error) {
	var out []*entity.Source
	for _, s := range r.sources {
		if s.InfospaceID == infospaceID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) ListByKind(_ context.Context, _ entity.SourceKind) ([]*entity.Source, error) {
	return nil, nil
}
func (r *fakeSourceRepo) Search(_ context.Context, _ int64, _ string) ([]*entity.Source, error) {
	return nil, nil
}

func (r *fakeSourceRepo) Create(_ context.Context, s *entity.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.sources[s.ID] = s
	return nil
}

func (r *fakeSourceRepo) Update(_ context.Context, s *entity.Source) error {
	r.sources[s.ID] = s
	return nil
}
func (r *fakeSourceRepo) Delete(_ context.Context, id int64) error {
	delete(r.sources, id)
	return nil
}
func (r *fakeSourceRepo) SetErrorMessage(_ context.Context, id int64, message *string) error {
	if s, ok := r.sources[id]; ok {
		s.ErrorMessage = message
	}
	return nil
}

// fakeSchemaRepo is an in-memory SchemaRepository.
type fakeSchemaRepo struct {
	mu      sync.Mutex
	schemas map[int64]*entity.AnnotationSchema
	nextID  int64
}

var _ repository.SchemaRepository = (*fakeSchemaRepo)(nil)

func newFakeSchemaRepo() *fakeSchemaRepo {
	return &fakeSchemaRepo{schemas: map[int64]*entity.AnnotationSchema{}}
}

func (r *fakeSchemaRepo) Get(_ context.Context, id int64) (*entity.AnnotationSchema, error) {
	return r.schemas[id], nil
}

func (r *fakeSchemaRepo) GetLatestVersion(_ context.Context, schemaUUID uuid.UUID) (*entity.AnnotationSchema, error) {
	var latest *entity.AnnotationSchema
	for _, s := range r.schemas {
		if s.UUID == schemaUUID && (latest == nil || s.Version > latest.Version) {
			latest = s
		}
	}
	return latest, nil
}

func (r *fakeSchemaRepo) List(_ context.Context, infospaceID int64) ([]*entity.AnnotationSchema, error) {
	var out []*entity.AnnotationSchema
	for _, s := range r.schemas {
		if s.InfospaceID == infospaceID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSchemaRepo) Create(_ context.Context, s *entity.AnnotationSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.schemas[s.ID] = s
	return nil
}

func (r *fakeSchemaRepo) Update(_ context.Context, s *entity.AnnotationSchema) error {
	r.schemas[s.ID] = s
	return nil
}
func (r *fakeSchemaRepo) Delete(_ context.Context, id int64) error {
	delete(r.schemas, id)
	return nil
}

// fakeRunRepo is an in-memory RunRepository.
type fakeRunRepo struct {
	mu     sync.Mutex
	runs   map[int64]*entity.AnnotationRun
	nextID int64
}

var _ repository.RunRepository = (*fakeRunRepo)(nil)

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: map[int64]*entity.AnnotationRun{}}
}

func (r *fakeRunRepo) Get(_ context.Context, id int64) (*entity.AnnotationRun, error) {
	return r.runs[id], nil
}
func (r *fakeRunRepo) List(_ context.Context, _ int64) ([]*entity.AnnotationRun, error) {
	return nil, nil
}
func (r *fakeRunRepo) ListByStatus(_ context.Context, _ entity.RunStatus) ([]*entity.AnnotationRun, error) {
	return nil, nil
}

func (r *fakeRunRepo) Create(_ context.Context, run *entity.AnnotationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	run.ID = r.nextID
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) Update(_ context.Context, run *entity.AnnotationRun) error {
	r.runs[run.ID] = run
	return nil
}
func (r *fakeRunRepo) Delete(_ context.Context, id int64) error {
	delete(r.runs, id)
	return nil
}

// fakeBundleRepo is an in-memory BundleRepository.
type fakeBundleRepo struct {
	mu       sync.Mutex
	bundles  map[int64]*entity.Bundle
	assetIDs map[int64][]int64
	nextID   int64
}

var _ repository.BundleRepository = (*fakeBundleRepo)(nil)

func newFakeBundleRepo() *fakeBundleRepo {
	return &fakeBundleRepo{bundles: map[int64]*entity.Bundle{}, assetIDs: map[int64][]int64{}}
}

func (r *fakeBundleRepo) Get(_ context.Context, id int64) (*entity.Bundle, error) {
	return r.bundles[id], nil
}
func (r *fakeBundleRepo) List(_ context.Context, _ int64) ([]*entity.Bundle, error) {
	return nil, nil
}

func (r *fakeBundleRepo) Create(_ context.Context, b *entity.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assetIDs[bundleID] = append(r.assetIDs[bundleID], assetIDs...)
	return nil
}

func (r *fakeBundleRepo) RemoveAssets(_ context.Context, bundleID int64, assetIDs []int64) error {
	return nil
}

func (r *fakeBundleRepo) ListAssetIDs(_ context.Context, bundleID int64) ([]int64, error) {
	return r.assetIDs[bundleID], nil
}

func (r *fakeBundleRepo) RecomputeAssetCount(_ context.Context, bundleID int64) error {
	if b, ok := r.bundles[bundleID]; ok {
		b.AssetCount = len(r.assetIDs[bundleID])
	}
	return nil
}

// fakeAnnotationRepo is an in-memory AnnotationRepository keyed by
// (AssetID, SchemaID, RunID), mirroring Upsert's documented semantics.
type fakeAnnotationRepo struct {
	mu             sync.Mutex
	byKey          map[[3]int64]*entity.Annotation
	nextID         int64
	justifications []*entity.Justification
}

var _ repository.AnnotationRepository = (*fakeAnnotationRepo)(nil)

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{byKey: map[[3]int64]*entity.Annotation{}}
}

func (r *fakeAnnotationRepo) Get(_ context.Context, id int64) (*entity.Annotation, error) {
	for _, a := range r.byKey {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *fakeAnnotationRepo) ListByRun(_ context.Context, runID int64) ([]*entity.Annotation, error) {
	var out []*entity.Annotation
	for _, a := range r.byKey {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnnotationRepo) ListByAsset(_ context.Context, assetID int64) ([]*entity.Annotation, error) {
	var out []*entity.Annotation
	for _, a := range r.byKey {
		if a.AssetID == assetID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnnotationRepo) Upsert(_ context.Context, a *entity.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [3]int64{a.AssetID, a.SchemaID, a.RunID}
	if existing, ok := r.byKey[key]; ok {
		a.ID = existing.ID
	} else {
		r.nextID++
		a.ID = r.nextID
	}
	r.byKey[key] = a
	return nil
}

func (r *fakeAnnotationRepo) Delete(_ context.Context, id int64) error {
	for k, a := range r.byKey {
		if a.ID == id {
			delete(r.byKey, k)
		}
	}
	return nil
}

func (r *fakeAnnotationRepo) CreateJustifications(_ context.Context, justifications []*entity.Justification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.justifications = append(r.justifications, justifications...)
	return nil
}

func (r *fakeAnnotationRepo) ListJustifications(_ context.Context, annotationID int64) ([]*entity.Justification, error) {
	var out []*entity.Justification
	for _, j := range r.justifications {
		if j.AnnotationID == annotationID {
			out = append(out, j)
		}
	}
	return out, nil
}

// fakeStorage is an in-memory storage.Provider.
type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ storage.Provider = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string][]byte{}}
}

func (s *fakeStorage) Put(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	return int64(len(data)), nil
}

func (s *fakeStorage) Get(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, &storage.ErrNotFound{Path: path}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

func (s *fakeStorage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[path]
	return ok, nil
}

// testDeps wires fresh fakes for one test case.
type testDeps struct {
	Assets      *fakeAssetRepo
	Sources     *fakeSourceRepo
	Schemas     *fakeSchemaRepo
	Runs        *fakeRunRepo
	Bundles     *fakeBundleRepo
	Annotations *fakeAnnotationRepo
	Storage     *fakeStorage
}

func newTestDeps() *testDeps {
	return &testDeps{
		Assets:      newFakeAssetRepo(),
		Sources:     newFakeSourceRepo(),
		Schemas:     newFakeSchemaRepo(),
		Runs:        newFakeRunRepo(),
		Bundles:     newFakeBundleRepo(),
		Annotations: newFakeAnnotationRepo(),
		Storage:     newFakeStorage(),
	}
}

func (d *testDeps) deps() pkgexport.Dependencies {
	return pkgexport.Dependencies{
		AssetRepo:      d.Assets,
		SourceRepo:     d.Sources,
		SchemaRepo:     d.Schemas,
		RunRepo:        d.Runs,
		BundleRepo:     d.Bundles,
		AnnotationRepo: d.Annotations,
		Storage:        d.Storage,
		InstanceID:     "test-instance",
	}
}
