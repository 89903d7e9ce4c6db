package pkgexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
)

// ConflictStrategy decides what happens when an imported entity's UUID
// already exists locally. "skip" is the only strategy the original system
// implements (spec §4.9.3); others are rejected.
type ConflictStrategy string

const ConflictStrategySkip ConflictStrategy = "skip"

// ImportOutcome records whether an entity was newly created or matched an
// existing one and was left untouched.
type ImportOutcome string

const (
	ImportOutcomeCreated ImportOutcome = "created"
	ImportOutcomeSkipped ImportOutcome = "skipped"
)

// ImportResult is the outcome of importing one top-level package.
type ImportResult struct {
	ResourceType ResourceType
	SourceUUID   string
	LocalID      int64
	LocalUUID    uuid.UUID
	Outcome      ImportOutcome
	// Warnings collects references that could not be resolved (e.g. an
	// annotation whose schema_reference matched nothing locally) rather
	// than failing the whole import, mirroring the original's best-effort
	// per-item logging.
	Warnings []string
}

type localRef struct {
	ID   int64
	UUID uuid.UUID
}

// Importer reconstructs entities from Packages, resolving cross-references
// (schema_reference, asset_reference) against local repositories and the
// uuid map accumulated during the current import (spec §4.9.3).
type Importer struct {
	AssetRepo      repository.AssetRepository
	SourceRepo     repository.SourceRepository
	SchemaRepo     repository.SchemaRepository
	RunRepo        repository.RunRepository
	BundleRepo     repository.BundleRepository
	AnnotationRepo repository.AnnotationRepository
	Storage        storage.Provider

	InfospaceID int64
	UserID      int64

	uuidMap map[ResourceType]map[string]localRef
}

// NewImporter constructs an Importer with a fresh uuid map, scoped to one
// package (or package tree) import.
func NewImporter(deps Dependencies, infospaceID, userID int64) *Importer {
	return &Importer{
		AssetRepo:      deps.AssetRepo,
		SourceRepo:     deps.SourceRepo,
		SchemaRepo:     deps.SchemaRepo,
		RunRepo:        deps.RunRepo,
		BundleRepo:     deps.BundleRepo,
		AnnotationRepo: deps.AnnotationRepo,
		Storage:        deps.Storage,
		InfospaceID:    infospaceID,
		UserID:         userID,
		uuidMap:        map[ResourceType]map[string]localRef{},
	}
}

func (imp *Importer) remember(rt ResourceType, sourceUUID string, ref localRef) {
	bucket, ok := imp.uuidMap[rt]
	if !ok {
		bucket = map[string]localRef{}
		imp.uuidMap[rt] = bucket
	}
	bucket[sourceUUID] = ref
}

func (imp *Importer) lookup(rt ResourceType, sourceUUID string) (localRef, bool) {
	ref, ok := imp.uuidMap[rt][sourceUUID]
	return ref, ok
}

// ImportSchema imports a SCHEMA package (spec §4.9.3). Skips and returns the
// existing schema when one with the same uuid is already present.
func (imp *Importer) ImportSchema(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	var wrapper struct {
		Schema *SchemaContent `json:"annotation_schema"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Schema == nil {
		return nil, fmt.Errorf("decode schema content: %w", err)
	}
	sc := wrapper.Schema

	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}

	if existing, err := imp.findSchemaByUUID(ctx, sc.UUID); err != nil {
		return nil, err
	} else if existing != nil {
		ref := localRef{ID: existing.ID, UUID: existing.UUID}
		imp.remember(ResourceTypeSchema, sc.UUID, ref)
		return &ImportResult{ResourceType: ResourceTypeSchema, SourceUUID: sc.UUID, LocalID: ref.ID, LocalUUID: ref.UUID, Outcome: ImportOutcomeSkipped}, nil
	}

	schema := &entity.AnnotationSchema{
		UUID:                          parseUUIDOrNew(sc.UUID),
		InfospaceID:                   imp.InfospaceID,
		Name:                          sc.Name,
		Version:                       sc.Version,
		OutputContract:                sc.OutputContract,
		Instructions:                  sc.Instructions,
		FieldSpecificJustificationCfg: sc.FieldSpecificJustificationCfg,
		TargetLevel:                   sc.TargetLevel,
	}
	if schema.TargetLevel == "" {
		schema.TargetLevel = "asset"
	}
	if err := imp.SchemaRepo.Create(ctx, schema); err != nil {
		return nil, fmt.Errorf("create imported schema: %w", err)
	}

	ref := localRef{ID: schema.ID, UUID: schema.UUID}
	imp.remember(ResourceTypeSchema, sc.UUID, ref)
	return &ImportResult{ResourceType: ResourceTypeSchema, SourceUUID: sc.UUID, LocalID: ref.ID, LocalUUID: ref.UUID, Outcome: ImportOutcomeCreated}, nil
}

// findSchemaByUUID resolves a schema_reference uuid against the uuid map
// built so far, then against the infospace's schemas.
func (imp *Importer) findSchemaByUUID(ctx context.Context, sourceUUID string) (*entity.AnnotationSchema, error) {
	if ref, ok := imp.lookup(ResourceTypeSchema, sourceUUID); ok {
		return imp.SchemaRepo.Get(ctx, ref.ID)
	}
	schemas, err := imp.SchemaRepo.List(ctx, imp.InfospaceID)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	for _, s := range schemas {
		if s.UUID.String() == sourceUUID {
			imp.remember(ResourceTypeSchema, sourceUUID, localRef{ID: s.ID, UUID: s.UUID})
			return s, nil
		}
	}
	return nil, nil
}

// findAssetByUUID resolves an asset_reference uuid against the uuid map,
// then against AssetRepo.GetByUUID directly (assets keep their original
// uuid across import, so this is an O(1) lookup unlike schemas/runs).
func (imp *Importer) findAssetByUUID(ctx context.Context, sourceUUID string) (*entity.Asset, error) {
	if ref, ok := imp.lookup(ResourceTypeAsset, sourceUUID); ok {
		return imp.AssetRepo.Get(ctx, ref.ID)
	}
	parsed, err := uuid.Parse(sourceUUID)
	if err != nil {
		return nil, nil
	}
	asset, err := imp.AssetRepo.GetByUUID(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("lookup asset by uuid: %w", err)
	}
	if asset != nil {
		imp.remember(ResourceTypeAsset, sourceUUID, localRef{ID: asset.ID, UUID: asset.UUID})
	}
	return asset, nil
}

// ImportAsset imports an ASSET package as a standalone, parentless asset.
func (imp *Importer) ImportAsset(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Asset *AssetContent `json:"asset"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Asset == nil {
		return nil, fmt.Errorf("decode asset content: %w", err)
	}

	var warnings []string
	asset, outcome, err := imp.importAssetContent(ctx, pkg, wrapper.Asset, nil, nil, &warnings)
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		ResourceType: ResourceTypeAsset, SourceUUID: wrapper.Asset.UUID,
		LocalID: asset.ID, LocalUUID: asset.UUID, Outcome: outcome, Warnings: warnings,
	}, nil
}

// importAssetContent creates (or finds, under "skip") the Asset described by
// ac, recursing into its children and inlined annotations (spec §4.9.3's
// "Source import order": asset tree depth-first, then annotations per
// asset).
func (imp *Importer) importAssetContent(ctx context.Context, pkg *Package, ac *AssetContent, parentID *int64, sourceID *int64, warnings *[]string) (*entity.Asset, ImportOutcome, error) {
	if existing, err := imp.findAssetByUUID(ctx, ac.UUID); err != nil {
		return nil, "", err
	} else if existing != nil {
		return existing, ImportOutcomeSkipped, nil
	}

	asset := &entity.Asset{
		UUID:             parseUUIDOrNew(ac.UUID),
		InfospaceID:      imp.InfospaceID,
		UserID:           imp.UserID,
		Kind:             entity.AssetKind(ac.Kind),
		Title:            ac.Title,
		ParentAssetID:    parentID,
		PartIndex:        ac.PartIndex,
		TextContent:      ac.TextContent,
		SourceIdentifier: ac.SourceIdentifier,
		SourceMetadata:   ac.SourceMetadata,
		ContentHash:      ac.ContentHash,
		EventTimestamp:   ac.EventTimestamp,
		SourceID:         sourceID,
		ProcessingStatus: entity.ProcessingStatusReady,
	}
	if asset.SourceMetadata == nil {
		asset.SourceMetadata = entity.Metadata{}
	}

	if ac.TextContentFileRef != nil {
		if blob, ok := pkg.Files[*ac.TextContentFileRef]; ok {
			text := string(blob)
			asset.TextContent = &text
		} else {
			*warnings = append(*warnings, fmt.Sprintf("asset %s: text content file %q missing from package", ac.UUID, *ac.TextContentFileRef))
		}
	}
	if ac.BlobFileRef != nil {
		if blob, ok := pkg.Files[*ac.BlobFileRef]; ok {
			storagePath := fmt.Sprintf("imports/%s/%s", asset.UUID, path.Base(*ac.BlobFileRef))
			if _, err := imp.Storage.Put(ctx, storagePath, bytes.NewReader(blob)); err != nil {
				*warnings = append(*warnings, fmt.Sprintf("asset %s: failed to store blob: %v", ac.UUID, err))
			} else {
				asset.BlobPath = &storagePath
			}
		} else {
			*warnings = append(*warnings, fmt.Sprintf("asset %s: blob file %q missing from package", ac.UUID, *ac.BlobFileRef))
		}
	}

	if err := imp.AssetRepo.Create(ctx, asset); err != nil {
		return nil, "", fmt.Errorf("create imported asset %s: %w", ac.UUID, err)
	}
	imp.remember(ResourceTypeAsset, ac.UUID, localRef{ID: asset.ID, UUID: asset.UUID})

	for _, child := range ac.ChildAssets {
		if _, _, err := imp.importAssetContent(ctx, pkg, child, &asset.ID, sourceID, warnings); err != nil {
			return nil, "", err
		}
	}

	if err := imp.importAnnotations(ctx, asset.ID, 0, ac.Annotations, warnings); err != nil {
		return nil, "", err
	}

	return asset, ImportOutcomeCreated, nil
}

// importAnnotations resolves each inlined annotation's schema_reference
// against local schemas and persists it, skipping (with a warning) any
// whose schema cannot be resolved (spec §4.9.3).
func (imp *Importer) importAnnotations(ctx context.Context, assetID, runID int64, contents []*AnnotationContent, warnings *[]string) error {
	for _, ac := range contents {
		schema, err := imp.findSchemaByUUID(ctx, ac.SchemaRef.UUID)
		if err != nil {
			return err
		}
		if schema == nil {
			*warnings = append(*warnings, fmt.Sprintf("annotation %s: schema %s not found locally, skipped", ac.UUID, ac.SchemaRef.UUID))
			continue
		}
		ann := &entity.Annotation{
			UUID:         parseUUIDOrNew(ac.UUID),
			AssetID:      assetID,
			SchemaID:     schema.ID,
			RunID:        runID,
			Value:        ac.Value,
			Status:       entity.AnnotationStatus(ac.Status),
			ErrorMessage: ac.ErrorMessage,
		}
		if err := imp.AnnotationRepo.Upsert(ctx, ann); err != nil {
			return fmt.Errorf("upsert imported annotation %s: %w", ac.UUID, err)
		}
		if len(ac.Justifications) > 0 {
			if err := imp.AnnotationRepo.CreateJustifications(ctx, fromJustificationContent(ann.ID, ac.Justifications)); err != nil {
				return fmt.Errorf("create justifications for annotation %s: %w", ac.UUID, err)
			}
		}
	}
	return nil
}

func fromJustificationContent(annotationID int64, contents []*JustificationContent) []*entity.Justification {
	out := make([]*entity.Justification, 0, len(contents))
	for _, jc := range contents {
		out = append(out, &entity.Justification{
			AnnotationID:    annotationID,
			FieldName:       jc.FieldName,
			Reasoning:       jc.Reasoning,
			EvidencePayload: jc.EvidencePayload,
			Score:           jc.Score,
			ModelName:       jc.ModelName,
		})
	}
	return out
}

// ImportSource imports a SOURCE package, recursively importing its inlined
// Assets (spec §4.9.3's Source import order: source record first, then its
// asset tree).
func (imp *Importer) ImportSource(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Source *SourceContent `json:"source"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Source == nil {
		return nil, fmt.Errorf("decode source content: %w", err)
	}
	sc := wrapper.Source

	sourceUUID, err := uuid.Parse(sc.UUID)
	if err == nil {
		if existing, findErr := imp.SourceRepo.GetByImportedFromUUID(ctx, imp.InfospaceID, sourceUUID); findErr != nil {
			return nil, fmt.Errorf("check existing source: %w", findErr)
		} else if existing != nil {
			ref := localRef{ID: existing.ID, UUID: existing.UUID}
			imp.remember(ResourceTypeSource, sc.UUID, ref)
			return &ImportResult{ResourceType: ResourceTypeSource, SourceUUID: sc.UUID, LocalID: ref.ID, LocalUUID: ref.UUID, Outcome: ImportOutcomeSkipped}, nil
		}
	}

	src := &entity.Source{
		UUID:        uuid.New(),
		InfospaceID: imp.InfospaceID,
		UserID:      imp.UserID,
		Name:        sc.Name,
		Kind:        entity.SourceKind(sc.Kind),
		Details:     sc.Details,
		Status:      "ACTIVE",
	}
	if src.Details == nil {
		src.Details = entity.Metadata{}
	}
	if err == nil {
		src.ImportedFromUUID = &sourceUUID
	}

	if sc.MainFileRef != nil {
		if blob, ok := pkg.Files[*sc.MainFileRef]; ok {
			storagePath := fmt.Sprintf("imports/%s/%s", src.UUID, path.Base(*sc.MainFileRef))
			if _, putErr := imp.Storage.Put(ctx, storagePath, bytes.NewReader(blob)); putErr == nil {
				src.Details["storage_path"] = storagePath
			}
		}
	}

	if err := imp.SourceRepo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create imported source: %w", err)
	}
	imp.remember(ResourceTypeSource, sc.UUID, localRef{ID: src.ID, UUID: src.UUID})

	var warnings []string
	for _, ac := range sc.Assets {
		if _, _, impErr := imp.importAssetContent(ctx, pkg, ac, nil, &src.ID, &warnings); impErr != nil {
			return nil, impErr
		}
	}

	return &ImportResult{
		ResourceType: ResourceTypeSource, SourceUUID: sc.UUID,
		LocalID: src.ID, LocalUUID: src.UUID, Outcome: ImportOutcomeCreated, Warnings: warnings,
	}, nil
}

// ImportRun imports a RUN package: the run record, its target schema
// references, and (when present) its inlined annotations, each carrying an
// asset_reference resolved independently of the run's own asset set (spec
// §4.9.3).
func (imp *Importer) ImportRun(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Run *RunContent `json:"annotation_run"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Run == nil {
		return nil, fmt.Errorf("decode run content: %w", err)
	}
	rc := wrapper.Run

	var warnings []string
	var schemaIDs []int64
	for _, ref := range rc.TargetSchemaRefs {
		schema, err := imp.findSchemaByUUID(ctx, ref.UUID)
		if err != nil {
			return nil, err
		}
		if schema == nil {
			warnings = append(warnings, fmt.Sprintf("run %s: target schema %s not found locally, omitted", rc.UUID, ref.UUID))
			continue
		}
		schemaIDs = append(schemaIDs, schema.ID)
	}

	run := &entity.AnnotationRun{
		UUID:                 uuid.New(),
		InfospaceID:          imp.InfospaceID,
		UserID:               imp.UserID,
		Name:                 rc.Name,
		Status:               entity.RunStatusPending,
		Configuration:        rc.Configuration,
		TargetSchemaIDs:      schemaIDs,
		IncludeParentContext: rc.IncludeParentContext,
		ContextWindow:        rc.ContextWindow,
	}
	if run.Configuration == nil {
		run.Configuration = entity.Metadata{}
	}
	if run.ContextWindow == 0 {
		run.ContextWindow = 1
	}
	if err := imp.RunRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create imported run: %w", err)
	}
	imp.remember(ResourceTypeRun, rc.UUID, localRef{ID: run.ID, UUID: run.UUID})

	for _, ac := range rc.Annotations {
		asset, err := imp.findAssetByUUID(ctx, ac.AssetRef.UUID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			warnings = append(warnings, fmt.Sprintf("run %s: annotation %s references asset %s not found locally, skipped", rc.UUID, ac.UUID, ac.AssetRef.UUID))
			continue
		}
		if err := imp.importAnnotations(ctx, asset.ID, run.ID, []*AnnotationContent{{
			UUID: ac.UUID, SchemaRef: ac.SchemaRef, Value: ac.Value, Status: ac.Status,
			ErrorMessage: ac.ErrorMessage, Justifications: ac.Justifications,
		}}, &warnings); err != nil {
			return nil, err
		}
	}

	return &ImportResult{
		ResourceType: ResourceTypeRun, SourceUUID: rc.UUID,
		LocalID: run.ID, LocalUUID: run.UUID, Outcome: ImportOutcomeCreated, Warnings: warnings,
	}, nil
}

// ImportBundle imports a BUNDLE package, resolving (or importing, when
// full_content was embedded) each referenced asset and re-linking the
// bundle to the resulting local asset ids (spec §4.9.3).
func (imp *Importer) ImportBundle(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Bundle *BundleContent `json:"bundle"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Bundle == nil {
		return nil, fmt.Errorf("decode bundle content: %w", err)
	}
	bc := wrapper.Bundle

	bundle := &entity.Bundle{
		UUID:        uuid.New(),
		InfospaceID: imp.InfospaceID,
		UserID:      imp.UserID,
		Name:        bc.Name,
		Purpose:     bc.Purpose,
	}
	if err := imp.BundleRepo.Create(ctx, bundle); err != nil {
		return nil, fmt.Errorf("create imported bundle: %w", err)
	}
	imp.remember(ResourceTypeBundle, bc.UUID, localRef{ID: bundle.ID, UUID: bundle.UUID})

	var warnings []string
	var assetIDs []int64
	for _, ref := range bc.AssetRefs {
		var asset *entity.Asset
		var err error
		if ref.FullContent != nil {
			asset, _, err = imp.importAssetContent(ctx, pkg, ref.FullContent, nil, nil, &warnings)
		} else {
			asset, err = imp.findAssetByUUID(ctx, ref.UUID)
		}
		if err != nil {
			return nil, err
		}
		if asset == nil {
			warnings = append(warnings, fmt.Sprintf("bundle %s: asset %s not found locally and no full content embedded, omitted", bc.UUID, ref.UUID))
			continue
		}
		assetIDs = append(assetIDs, asset.ID)
	}

	if len(assetIDs) > 0 {
		if err := imp.BundleRepo.AddAssets(ctx, bundle.ID, assetIDs); err != nil {
			return nil, fmt.Errorf("link imported bundle assets: %w", err)
		}
		if err := imp.BundleRepo.RecomputeAssetCount(ctx, bundle.ID); err != nil {
			return nil, fmt.Errorf("recompute bundle asset count: %w", err)
		}
	}

	return &ImportResult{
		ResourceType: ResourceTypeBundle, SourceUUID: bc.UUID,
		LocalID: bundle.ID, LocalUUID: bundle.UUID, Outcome: ImportOutcomeCreated, Warnings: warnings,
	}, nil
}

// ImportDataset imports a DATASET package by replaying its nested
// Bundle/Run/Schema content through their own Import* methods (spec §4.9.3).
// No local Dataset entity is created, since none is persisted; the result
// tallies how many nested resources were created vs. skipped.
func (imp *Importer) ImportDataset(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Dataset *DatasetContent `json:"dataset"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Dataset == nil {
		return nil, fmt.Errorf("decode dataset content: %w", err)
	}
	dc := wrapper.Dataset

	var warnings []string
	var created, skipped int

	for _, sc := range dc.Schemas {
		raw, err := json.Marshal(struct {
			Schema *SchemaContent `json:"annotation_schema"`
		}{sc})
		if err != nil {
			return nil, fmt.Errorf("re-marshal dataset schema %s: %w", sc.UUID, err)
		}
		res, err := imp.ImportSchema(ctx, &Package{Content: raw}, strategy)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: import schema %s: %w", dc.Name, sc.UUID, err)
		}
		tallyOutcome(&created, &skipped, res.Outcome)
	}

	for _, rc := range dc.Runs {
		raw, err := json.Marshal(struct {
			Run *RunContent `json:"annotation_run"`
		}{rc})
		if err != nil {
			return nil, fmt.Errorf("re-marshal dataset run %s: %w", rc.UUID, err)
		}
		res, err := imp.ImportRun(ctx, &Package{Content: raw, Files: pkg.Files}, strategy)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: import run %s: %w", dc.Name, rc.UUID, err)
		}
		tallyOutcome(&created, &skipped, res.Outcome)
		warnings = append(warnings, res.Warnings...)
	}

	for _, bc := range dc.Bundles {
		raw, err := json.Marshal(struct {
			Bundle *BundleContent `json:"bundle"`
		}{bc})
		if err != nil {
			return nil, fmt.Errorf("re-marshal dataset bundle %s: %w", bc.UUID, err)
		}
		res, err := imp.ImportBundle(ctx, &Package{Content: raw, Files: pkg.Files}, strategy)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: import bundle %s: %w", dc.Name, bc.UUID, err)
		}
		tallyOutcome(&created, &skipped, res.Outcome)
		warnings = append(warnings, res.Warnings...)
	}

	warnings = append(warnings, fmt.Sprintf("dataset %q: %d sub-resources created, %d skipped (no local Dataset entity persisted)", dc.Name, created, skipped))

	return &ImportResult{
		ResourceType: ResourceTypeDataset,
		Outcome:      ImportOutcomeCreated,
		Warnings:     warnings,
	}, nil
}

// ImportMixed imports a MIXED package's standalone Assets and Bundles,
// logging and continuing past any single item's failure rather than failing
// the whole import, mirroring the original's per-item best-effort behavior
// (spec §4.9.3).
func (imp *Importer) ImportMixed(ctx context.Context, pkg *Package, strategy ConflictStrategy) (*ImportResult, error) {
	if strategy != ConflictStrategySkip {
		return nil, fmt.Errorf("unsupported conflict strategy %q", strategy)
	}
	var wrapper struct {
		Mixed *MixedContent `json:"mixed"`
	}
	if err := json.Unmarshal(pkg.Content, &wrapper); err != nil || wrapper.Mixed == nil {
		return nil, fmt.Errorf("decode mixed content: %w", err)
	}
	mc := wrapper.Mixed

	var warnings []string
	var created, skipped int

	for _, ac := range mc.Assets {
		raw, err := json.Marshal(struct {
			Asset *AssetContent `json:"asset"`
		}{ac})
		if err != nil {
			return nil, fmt.Errorf("re-marshal mixed asset %s: %w", ac.UUID, err)
		}
		res, err := imp.ImportAsset(ctx, &Package{Content: raw, Files: pkg.Files}, strategy)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to import standalone asset %s from mixed package: %v", ac.UUID, err))
			continue
		}
		tallyOutcome(&created, &skipped, res.Outcome)
		warnings = append(warnings, res.Warnings...)
	}

	for _, bc := range mc.Bundles {
		raw, err := json.Marshal(struct {
			Bundle *BundleContent `json:"bundle"`
		}{bc})
		if err != nil {
			return nil, fmt.Errorf("re-marshal mixed bundle %s: %w", bc.UUID, err)
		}
		res, err := imp.ImportBundle(ctx, &Package{Content: raw, Files: pkg.Files}, strategy)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to import bundle %s from mixed package: %v", bc.UUID, err))
			continue
		}
		tallyOutcome(&created, &skipped, res.Outcome)
		warnings = append(warnings, res.Warnings...)
	}

	warnings = append(warnings, fmt.Sprintf("mixed package: %d created, %d skipped", created, skipped))

	return &ImportResult{
		ResourceType: ResourceTypeMixed,
		Outcome:      ImportOutcomeCreated,
		Warnings:     warnings,
	}, nil
}

func tallyOutcome(created, skipped *int, outcome ImportOutcome) {
	if outcome == ImportOutcomeCreated {
		*created++
	} else {
		*skipped++
	}
}

func parseUUIDOrNew(s string) uuid.UUID {
	if parsed, err := uuid.Parse(s); err == nil {
		return parsed
	}
	return uuid.New()
}
