package annotation_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/provider/llm"
	"infospace/internal/repository"
)

// fakeGenerator returns a scripted response per call, in order, so tests can
// exercise success/failure sequences deterministically.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []*llm.GenerationResponse
	errs      []error
	calls     int
}

func (g *fakeGenerator) Generate(_ context.Context, _ llm.GenerationRequest) (*llm.GenerationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return g.responses[len(g.responses)-1], nil
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
	run, ok := r.runs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return run, nil
}

func (r *fakeRunRepo) List(_ context.Context, infospaceID int64) ([]*entity.AnnotationRun, error) {
	var out []*entity.AnnotationRun
	for _, run := range r.runs {
		if run.InfospaceID == infospaceID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (r *fakeRunRepo) ListByStatus(_ context.Context, status entity.RunStatus) ([]*entity.AnnotationRun, error) {
	var out []*entity.AnnotationRun
	for _, run := range r.runs {
		if run.Status == status {
			out = append(out, run)
		}
	}
	return out, nil
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
	return nil
}

// fakeSchemaRepo is an in-memory SchemaRepository.
type fakeSchemaRepo struct {
	schemas map[int64]*entity.AnnotationSchema
}

var _ repository.SchemaRepository = (*fakeSchemaRepo)(nil)

func (r *fakeSchemaRepo) Get(_ context.Context, id int64) (*entity.AnnotationSchema, error) {
	s, ok := r.schemas[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return s, nil
}

func (r *fakeSchemaRepo) GetLatestVersion(_ context.Context, _ uuid.UUID) (*entity.AnnotationSchema, error) {
	return nil, entity.ErrNotFound
}

func (r *fakeSchemaRepo) List(_ context.Context, _ int64) ([]*entity.AnnotationSchema, error) {
	return nil, nil
}

func (r *fakeSchemaRepo) Create(_ context.Context, s *entity.AnnotationSchema) error {
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

// fakeAssetRepo is a minimal in-memory AssetRepository for annotation tests
// (Get-only; Execute never mutates assets).
type fakeAssetRepo struct {
	assets map[int64]*entity.Asset
}

var _ repository.AssetRepository = (*fakeAssetRepo)(nil)

func (r *fakeAssetRepo) Get(_ context.Context, id int64) (*entity.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return a, nil
}

func (r *fakeAssetRepo) Create(context.Context, *entity.Asset) error             { return nil }
func (r *fakeAssetRepo) CreateBatch(context.Context, []*entity.Asset) error      { return nil }
func (r *fakeAssetRepo) Update(context.Context, *entity.Asset) error             { return nil }
func (r *fakeAssetRepo) GetByUUID(context.Context, uuid.UUID) (*entity.Asset, error) {
	return nil, entity.ErrNotFound
}
func (r *fakeAssetRepo) List(context.Context, repository.AssetSearchFilters) ([]*entity.Asset, error) {
	return nil, nil
}
func (r *fakeAssetRepo) ListPaginated(context.Context, repository.AssetSearchFilters, int, int) ([]*entity.Asset, error) {
	return nil, nil
}
func (r *fakeAssetRepo) Count(context.Context, repository.AssetSearchFilters) (int64, error) {
	return 0, nil
}
func (r *fakeAssetRepo) ListChildren(context.Context, int64) ([]*entity.Asset, error) { return nil, nil }
func (r *fakeAssetRepo) ListWithSource(context.Context, repository.AssetSearchFilters) ([]repository.AssetWithSource, error) {
	return nil, nil
}
func (r *fakeAssetRepo) Search(context.Context, []string, repository.AssetSearchFilters) ([]*entity.Asset, error) {
	return nil, nil
}
func (r *fakeAssetRepo) UpdateProcessingStatus(context.Context, int64, entity.ProcessingStatus, *string) error {
	return nil
}
func (r *fakeAssetRepo) Delete(context.Context, int64) error { return nil }
func (r *fakeAssetRepo) DeleteBatch(context.Context, []int64) (*entity.BulkOperationError, error) {
	return nil, nil
}
func (r *fakeAssetRepo) ExistsByContentHash(context.Context, int64, string) (bool, error) {
	return false, nil
}
