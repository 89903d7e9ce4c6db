package pkgexport

import (
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
)

// Dependencies bundles every repository/provider the Builder and Importer
// need, mirroring the ingest and annotation packages' own Dependencies/
// NewRouter/NewService construction points.
type Dependencies struct {
	AssetRepo      repository.AssetRepository
	SourceRepo     repository.SourceRepository
	SchemaRepo     repository.SchemaRepository
	RunRepo        repository.RunRepository
	BundleRepo     repository.BundleRepository
	AnnotationRepo repository.AnnotationRepository
	Storage        storage.Provider
	InstanceID     string
}

// NewBuilder constructs a Builder from deps.
func NewBuilder(deps Dependencies) *Builder {
	return &Builder{
		AssetRepo:      deps.AssetRepo,
		SourceRepo:     deps.SourceRepo,
		SchemaRepo:     deps.SchemaRepo,
		RunRepo:        deps.RunRepo,
		BundleRepo:     deps.BundleRepo,
		AnnotationRepo: deps.AnnotationRepo,
		Storage:        deps.Storage,
		InstanceID:     deps.InstanceID,
	}
}
