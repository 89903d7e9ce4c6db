package annotation

import (
	"infospace/internal/registry"
	"infospace/internal/repository"
)

// Dependencies bundles every repository/provider Service and Executor need,
// mirroring the ingest package's own Dependencies/NewRouter construction
// point.
type Dependencies struct {
	RunRepo          repository.RunRepository
	SchemaRepo       repository.SchemaRepository
	AssetRepo        repository.AssetRepository
	AnnotationRepo   repository.AnnotationRepository
	ModelRegistry    *registry.ModelRegistryService
	DefaultModelName string
}

// NewService builds the Service and its Executor from deps.
func NewService(deps Dependencies) *Service {
	executor := &Executor{
		Generator:        deps.ModelRegistry,
		AnnotationRepo:   deps.AnnotationRepo,
		DefaultModelName: deps.DefaultModelName,
	}
	return &Service{
		RunRepo:        deps.RunRepo,
		SchemaRepo:     deps.SchemaRepo,
		AssetRepo:      deps.AssetRepo,
		AnnotationRepo: deps.AnnotationRepo,
		Executor:       executor,
	}
}
