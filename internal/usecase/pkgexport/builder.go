package pkgexport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
)

// textContentInlineLimit is the text_content length above which
// build_source_package/build_bundle_package spill it to a files/ entry
// instead of inlining it in the manifest (spec §4.9.2).
const textContentInlineLimit = 1024

// hierarchicalKinds are the Asset kinds whose children are fetched and
// embedded when building a Source/Bundle package (spec §4.9.2).
var hierarchicalKinds = map[entity.AssetKind]bool{
	entity.AssetKindPDF:     true,
	entity.AssetKindCSV:     true,
	entity.AssetKindWeb:     true,
	entity.AssetKindMbox:    true,
	entity.AssetKindArticle: true,
	entity.AssetKindExcel:   true,
}

// Builder assembles Packages from persisted entities, fetching referenced
// blobs from Storage and inlining related records (spec §4.9.2).
type Builder struct {
	AssetRepo      repository.AssetRepository
	SourceRepo     repository.SourceRepository
	SchemaRepo     repository.SchemaRepository
	RunRepo        repository.RunRepository
	BundleRepo     repository.BundleRepository
	AnnotationRepo repository.AnnotationRepository
	Storage        storage.Provider
	InstanceID     string
}

// BuildAssetOptions controls BuildAsset's inlining behavior.
type BuildAssetOptions struct {
	IncludeTextContentAsFile bool
	IncludeAnnotations       bool
	IncludeJustifications    bool
}

// BuildAsset packages a single Asset, optionally inlining its Annotations.
func (b *Builder) BuildAsset(ctx context.Context, assetID int64, opts BuildAssetOptions) (*Package, error) {
	asset, err := b.AssetRepo.Get(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset %d: %w", assetID, err)
	}

	files := map[string][]byte{}
	content, err := b.buildAssetContent(ctx, asset, files, assetContentOptions{
		includeTextAsFile:     opts.IncludeTextContentAsFile,
		includeChildren:       true,
		includeAnnotations:    opts.IncludeAnnotations,
		includeJustifications: opts.IncludeJustifications,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(struct {
		Asset *AssetContent `json:"asset"`
	}{content})
	if err != nil {
		return nil, fmt.Errorf("marshal asset content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeAsset, asset.UUID.String(), asset.ID, asset.Title, b.InstanceID,
			fmt.Sprintf("Asset: %s", asset.Title)),
		Content: raw,
		Files:   files,
	}, nil
}

// BuildSourceOptions controls BuildSource's inlining behavior.
type BuildSourceOptions struct {
	IncludeAssets bool
}

// BuildSource packages a Source, inlining its linked Assets (and, for
// hierarchical kinds, their children) when requested.
func (b *Builder) BuildSource(ctx context.Context, sourceID int64, opts BuildSourceOptions) (*Package, error) {
	src, err := b.SourceRepo.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load source %d: %w", sourceID, err)
	}

	files := map[string][]byte{}
	sc := &SourceContent{
		UUID:   src.UUID.String(),
		ID:     src.ID,
		Name:   src.Name,
		Kind:   string(src.Kind),
		Status: src.Status,
	}
	if storagePath, ok := src.Details["storage_path"].(string); ok && storagePath != "" {
		blob, err := b.fetchBlob(ctx, storagePath)
		if err != nil {
			sc.MainFileFailed = true
		} else {
			filename := storagePath
			if name, ok := src.Details["filename"].(string); ok && name != "" {
				filename = name
			}
			ref := addFile(files, filename, blob)
			sc.MainFileRef = &ref
		}
	} else {
		sc.Details = src.Details
	}

	if opts.IncludeAssets {
		assets, err := b.AssetRepo.List(ctx, repository.AssetSearchFilters{SourceID: &sourceID})
		if err != nil {
			return nil, fmt.Errorf("list assets for source %d: %w", sourceID, err)
		}
		for _, asset := range assets {
			assetContent, err := b.buildAssetContent(ctx, asset, files, assetContentOptions{
				inlineShortText: true,
				includeChildren: hierarchicalKinds[asset.Kind],
			})
			if err != nil {
				return nil, err
			}
			sc.Assets = append(sc.Assets, assetContent)
		}
	}

	raw, err := json.Marshal(struct {
		Source *SourceContent `json:"source"`
	}{sc})
	if err != nil {
		return nil, fmt.Errorf("marshal source content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeSource, src.UUID.String(), src.ID, src.Name, b.InstanceID,
			fmt.Sprintf("Source: %s", src.Name)),
		Content: raw,
		Files:   files,
	}, nil
}

// BuildSchema packages an AnnotationSchema essentially verbatim.
func (b *Builder) BuildSchema(ctx context.Context, schemaID int64) (*Package, error) {
	schema, err := b.SchemaRepo.Get(ctx, schemaID)
	if err != nil {
		return nil, fmt.Errorf("load schema %d: %w", schemaID, err)
	}

	sc := &SchemaContent{
		UUID:                          schema.UUID.String(),
		ID:                            schema.ID,
		Name:                          schema.Name,
		Version:                       schema.Version,
		OutputContract:                schema.OutputContract,
		Instructions:                  schema.Instructions,
		FieldSpecificJustificationCfg: schema.FieldSpecificJustificationCfg,
		TargetLevel:                   schema.TargetLevel,
	}

	raw, err := json.Marshal(struct {
		Schema *SchemaContent `json:"annotation_schema"`
	}{sc})
	if err != nil {
		return nil, fmt.Errorf("marshal schema content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeSchema, schema.UUID.String(), schema.ID, schema.Name, b.InstanceID,
			fmt.Sprintf("AnnotationSchema: %s v%d", schema.Name, schema.Version)),
		Content: raw,
	}, nil
}

// BuildRunOptions controls BuildRun's inlining behavior.
type BuildRunOptions struct {
	IncludeAnnotations    bool
	IncludeJustifications bool
}

// BuildRun packages an AnnotationRun, inlining target schema references and,
// when requested, its Annotations (each carrying an asset_reference).
func (b *Builder) BuildRun(ctx context.Context, runID int64, opts BuildRunOptions) (*Package, error) {
	run, err := b.RunRepo.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", runID, err)
	}

	rc := &RunContent{
		UUID:                 run.UUID.String(),
		ID:                   run.ID,
		Name:                 run.Name,
		Status:               string(run.Status),
		Configuration:        run.Configuration,
		IncludeParentContext: run.IncludeParentContext,
		ContextWindow:        run.ContextWindow,
		ErrorMessage:         run.ErrorMessage,
	}

	for _, schemaID := range run.TargetSchemaIDs {
		schema, err := b.SchemaRepo.Get(ctx, schemaID)
		if err != nil {
			return nil, fmt.Errorf("load target schema %d for run %d: %w", schemaID, runID, err)
		}
		rc.TargetSchemaRefs = append(rc.TargetSchemaRefs, EntityRef{
			UUID: schema.UUID.String(), ID: schema.ID, Name: schema.Name,
		})
	}

	if opts.IncludeAnnotations {
		annotations, err := b.AnnotationRepo.ListByRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("list annotations for run %d: %w", runID, err)
		}
		for _, ann := range annotations {
			asset, err := b.AssetRepo.Get(ctx, ann.AssetID)
			if err != nil {
				return nil, fmt.Errorf("load asset %d for annotation %d: %w", ann.AssetID, ann.ID, err)
			}
			schema, err := b.SchemaRepo.Get(ctx, ann.SchemaID)
			if err != nil {
				return nil, fmt.Errorf("load schema %d for annotation %d: %w", ann.SchemaID, ann.ID, err)
			}
			annContent := &RunAnnotationContent{
				UUID:         ann.UUID.String(),
				AssetRef:     EntityRef{UUID: asset.UUID.String(), ID: asset.ID, Name: asset.Title},
				SchemaRef:    EntityRef{UUID: schema.UUID.String(), ID: schema.ID, Name: schema.Name},
				Value:        ann.Value,
				Status:       string(ann.Status),
				ErrorMessage: ann.ErrorMessage,
			}
			if opts.IncludeJustifications {
				justifications, err := b.AnnotationRepo.ListJustifications(ctx, ann.ID)
				if err != nil {
					return nil, fmt.Errorf("list justifications for annotation %d: %w", ann.ID, err)
				}
				annContent.Justifications = toJustificationContent(justifications)
			}
			rc.Annotations = append(rc.Annotations, annContent)
		}
	}

	raw, err := json.Marshal(struct {
		Run *RunContent `json:"annotation_run"`
	}{rc})
	if err != nil {
		return nil, fmt.Errorf("marshal run content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeRun, run.UUID.String(), run.ID, run.Name, b.InstanceID,
			fmt.Sprintf("AnnotationRun: %s", run.Name)),
		Content: raw,
	}, nil
}

// BuildBundleOptions controls BuildBundle's inlining behavior.
type BuildBundleOptions struct {
	IncludeAssetsContent    bool
	IncludeAssetAnnotations bool
}

// BuildBundle packages a Bundle as asset references, optionally embedding
// each referenced Asset's full content.
func (b *Builder) BuildBundle(ctx context.Context, bundleID int64, opts BuildBundleOptions) (*Package, error) {
	bundle, err := b.BundleRepo.Get(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("load bundle %d: %w", bundleID, err)
	}
	assetIDs, err := b.BundleRepo.ListAssetIDs(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("list asset ids for bundle %d: %w", bundleID, err)
	}

	files := map[string][]byte{}
	bc := &BundleContent{UUID: bundle.UUID.String(), ID: bundle.ID, Name: bundle.Name, Purpose: bundle.Purpose}

	for _, assetID := range assetIDs {
		asset, err := b.AssetRepo.Get(ctx, assetID)
		if err != nil {
			return nil, fmt.Errorf("load bundle asset %d: %w", assetID, err)
		}
		ref := &BundleAssetRef{
			EntityRef: EntityRef{UUID: asset.UUID.String(), ID: asset.ID, Name: asset.Title},
			Kind:      string(asset.Kind),
		}
		if opts.IncludeAssetsContent {
			assetContent, err := b.buildAssetContent(ctx, asset, files, assetContentOptions{
				includeChildren:    hierarchicalKinds[asset.Kind],
				includeAnnotations: opts.IncludeAssetAnnotations,
			})
			if err != nil {
				return nil, err
			}
			ref.FullContent = assetContent
		}
		bc.AssetRefs = append(bc.AssetRefs, ref)
	}

	raw, err := json.Marshal(struct {
		Bundle *BundleContent `json:"bundle"`
	}{bc})
	if err != nil {
		return nil, fmt.Errorf("marshal bundle content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeBundle, bundle.UUID.String(), bundle.ID, bundle.Name, b.InstanceID,
			fmt.Sprintf("Bundle: %s", bundle.Name)),
		Content: raw,
		Files:   files,
	}, nil
}

// BuildDatasetOptions selects the Bundles/Runs/Schemas curated into a Dataset
// package and whether their own nested content (asset blobs, annotations) is
// inlined, matching each resource's own Build*Options.
type BuildDatasetOptions struct {
	BundleIDs               []int64
	RunIDs                  []int64
	SchemaIDs               []int64
	IncludeAssetsContent    bool
	IncludeAssetAnnotations bool
}

// BuildDataset assembles a Dataset package from explicit resource id lists,
// since no Dataset entity is persisted: each listed Bundle/Run/Schema is
// built through its own Build* method and nested verbatim (spec §4.9.2
// "Dataset").
func (b *Builder) BuildDataset(ctx context.Context, name, description string, opts BuildDatasetOptions) (*Package, error) {
	files := map[string][]byte{}
	dc := &DatasetContent{Name: name, Description: description}

	for _, schemaID := range opts.SchemaIDs {
		pkg, err := b.BuildSchema(ctx, schemaID)
		if err != nil {
			return nil, fmt.Errorf("dataset schema %d: %w", schemaID, err)
		}
		var wrapper struct {
			Schema *SchemaContent `json:"annotation_schema"`
		}
		if err := json.Unmarshal(pkg.Content, &wrapper); err != nil {
			return nil, fmt.Errorf("decode dataset schema content: %w", err)
		}
		dc.Schemas = append(dc.Schemas, wrapper.Schema)
	}

	for _, runID := range opts.RunIDs {
		pkg, err := b.BuildRun(ctx, runID, BuildRunOptions{IncludeAnnotations: true, IncludeJustifications: true})
		if err != nil {
			return nil, fmt.Errorf("dataset run %d: %w", runID, err)
		}
		var wrapper struct {
			Run *RunContent `json:"annotation_run"`
		}
		if err := json.Unmarshal(pkg.Content, &wrapper); err != nil {
			return nil, fmt.Errorf("decode dataset run content: %w", err)
		}
		dc.Runs = append(dc.Runs, wrapper.Run)
		mergeFiles(files, pkg.Files)
	}

	for _, bundleID := range opts.BundleIDs {
		pkg, err := b.BuildBundle(ctx, bundleID, BuildBundleOptions{
			IncludeAssetsContent:    opts.IncludeAssetsContent,
			IncludeAssetAnnotations: opts.IncludeAssetAnnotations,
		})
		if err != nil {
			return nil, fmt.Errorf("dataset bundle %d: %w", bundleID, err)
		}
		var wrapper struct {
			Bundle *BundleContent `json:"bundle"`
		}
		if err := json.Unmarshal(pkg.Content, &wrapper); err != nil {
			return nil, fmt.Errorf("decode dataset bundle content: %w", err)
		}
		dc.Bundles = append(dc.Bundles, wrapper.Bundle)
		mergeFiles(files, pkg.Files)
	}

	raw, err := json.Marshal(struct {
		Dataset *DatasetContent `json:"dataset"`
	}{dc})
	if err != nil {
		return nil, fmt.Errorf("marshal dataset content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeDataset, uuid.New().String(), 0, name, b.InstanceID,
			fmt.Sprintf("Dataset: %s", name)),
		Content: raw,
		Files:   files,
	}, nil
}

// BuildMixedOptions selects the standalone Assets and Bundles included in a
// Mixed package.
type BuildMixedOptions struct {
	AssetIDs                []int64
	BundleIDs               []int64
	IncludeAssetsContent    bool
	IncludeAssetAnnotations bool
}

// BuildMixed assembles an ad hoc export of standalone Assets and Bundles that
// share no common parent (spec §4.9.2 "Mixed").
func (b *Builder) BuildMixed(ctx context.Context, opts BuildMixedOptions) (*Package, error) {
	files := map[string][]byte{}
	mc := &MixedContent{}

	for _, assetID := range opts.AssetIDs {
		pkg, err := b.BuildAsset(ctx, assetID, BuildAssetOptions{IncludeAnnotations: opts.IncludeAssetAnnotations})
		if err != nil {
			return nil, fmt.Errorf("mixed asset %d: %w", assetID, err)
		}
		var wrapper struct {
			Asset *AssetContent `json:"asset"`
		}
		if err := json.Unmarshal(pkg.Content, &wrapper); err != nil {
			return nil, fmt.Errorf("decode mixed asset content: %w", err)
		}
		mc.Assets = append(mc.Assets, wrapper.Asset)
		mergeFiles(files, pkg.Files)
	}

	for _, bundleID := range opts.BundleIDs {
		pkg, err := b.BuildBundle(ctx, bundleID, BuildBundleOptions{
			IncludeAssetsContent:    opts.IncludeAssetsContent,
			IncludeAssetAnnotations: opts.IncludeAssetAnnotations,
		})
		if err != nil {
			return nil, fmt.Errorf("mixed bundle %d: %w", bundleID, err)
		}
		var wrapper struct {
			Bundle *BundleContent `json:"bundle"`
		}
		if err := json.Unmarshal(pkg.Content, &wrapper); err != nil {
			return nil, fmt.Errorf("decode mixed bundle content: %w", err)
		}
		mc.Bundles = append(mc.Bundles, wrapper.Bundle)
		mergeFiles(files, pkg.Files)
	}

	raw, err := json.Marshal(struct {
		Mixed *MixedContent `json:"mixed"`
	}{mc})
	if err != nil {
		return nil, fmt.Errorf("marshal mixed content: %w", err)
	}

	return &Package{
		Metadata: newMetadata(ResourceTypeMixed, uuid.New().String(), 0, "", b.InstanceID,
			fmt.Sprintf("Mixed export: %d assets, %d bundles", len(mc.Assets), len(mc.Bundles))),
		Content: raw,
		Files:   files,
	}, nil
}

// mergeFiles copies src into dst, renaming on path collision (distinct from
// addFile's numeric-suffix scheme since callers here are merging already-
// resolved files/ paths from independently built sub-packages).
func mergeFiles(dst, src map[string][]byte) {
	for k, v := range src {
		key := k
		if _, exists := dst[key]; exists {
			key = "files/" + uuid.New().String()[:8] + "_" + strings.TrimPrefix(k, "files/")
		}
		dst[key] = v
	}
}

type assetContentOptions struct {
	includeTextAsFile     bool
	inlineShortText       bool
	includeChildren       bool
	includeAnnotations    bool
	includeJustifications bool
}

// buildAssetContent converts asset into its package-portable shape, fetching
// its blob (if any) into files and recursing into children when requested.
func (b *Builder) buildAssetContent(ctx context.Context, asset *entity.Asset, files map[string][]byte, opts assetContentOptions) (*AssetContent, error) {
	ac := &AssetContent{
		UUID:             asset.UUID.String(),
		ID:               asset.ID,
		Kind:             string(asset.Kind),
		Title:            asset.Title,
		SourceIdentifier: asset.SourceIdentifier,
		SourceMetadata:   asset.SourceMetadata,
		ContentHash:      asset.ContentHash,
		EventTimestamp:   asset.EventTimestamp,
		PartIndex:        asset.PartIndex,
	}

	if asset.BlobPath != nil {
		blob, err := b.fetchBlob(ctx, *asset.BlobPath)
		if err != nil {
			ac.BlobFetchFailed = true
		} else {
			filename := path.Base(*asset.BlobPath)
			if name, ok := asset.SourceMetadata["filename"].(string); ok && name != "" {
				filename = name
			} else if asset.Title != "" {
				filename = asset.Title
			}
			ref := addFile(files, filename, blob)
			ac.BlobFileRef = &ref
		}
	}

	switch {
	case asset.TextContent == nil:
		// nothing to inline
	case opts.includeTextAsFile && len(*asset.TextContent) > textContentInlineLimit:
		ref := addFile(files, secureFilename(asset.Title)+"_content.txt", []byte(*asset.TextContent))
		ac.TextContentFileRef = &ref
	case opts.inlineShortText && len(*asset.TextContent) < 5000:
		ac.TextContent = asset.TextContent
	case opts.inlineShortText:
		ref := addFile(files, fmt.Sprintf("asset_%s_content.txt", asset.UUID), []byte(*asset.TextContent))
		ac.TextContentFileRef = &ref
	default:
		ac.TextContent = asset.TextContent
	}

	if opts.includeChildren {
		children, err := b.AssetRepo.ListChildren(ctx, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("list children for asset %d: %w", asset.ID, err)
		}
		for _, child := range children {
			childContent, err := b.buildAssetContent(ctx, child, files, assetContentOptions{
				includeTextAsFile:     opts.includeTextAsFile,
				inlineShortText:       opts.inlineShortText,
				includeChildren:       true,
				includeAnnotations:    opts.includeAnnotations,
				includeJustifications: opts.includeJustifications,
			})
			if err != nil {
				return nil, err
			}
			ac.ChildAssets = append(ac.ChildAssets, childContent)
		}
	}

	if opts.includeAnnotations {
		annotations, err := b.AnnotationRepo.ListByAsset(ctx, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("list annotations for asset %d: %w", asset.ID, err)
		}
		for _, ann := range annotations {
			schema, err := b.SchemaRepo.Get(ctx, ann.SchemaID)
			if err != nil {
				return nil, fmt.Errorf("load schema %d for annotation %d: %w", ann.SchemaID, ann.ID, err)
			}
			annContent := &AnnotationContent{
				UUID:         ann.UUID.String(),
				SchemaRef:    EntityRef{UUID: schema.UUID.String(), ID: schema.ID, Name: schema.Name},
				Value:        ann.Value,
				Status:       string(ann.Status),
				ErrorMessage: ann.ErrorMessage,
			}
			if opts.includeJustifications {
				justifications, err := b.AnnotationRepo.ListJustifications(ctx, ann.ID)
				if err != nil {
					return nil, fmt.Errorf("list justifications for annotation %d: %w", ann.ID, err)
				}
				annContent.Justifications = toJustificationContent(justifications)
			}
			ac.Annotations = append(ac.Annotations, annContent)
		}
	}

	return ac, nil
}

func toJustificationContent(justifications []*entity.Justification) []*JustificationContent {
	out := make([]*JustificationContent, 0, len(justifications))
	for _, j := range justifications {
		out = append(out, &JustificationContent{
			FieldName:       j.FieldName,
			Reasoning:       j.Reasoning,
			EvidencePayload: j.EvidencePayload,
			ModelName:       j.ModelName,
			Score:           j.Score,
		})
	}
	return out
}

func (b *Builder) fetchBlob(ctx context.Context, storagePath string) ([]byte, error) {
	if storagePath == "" || b.Storage == nil {
		return nil, fmt.Errorf("no storage path")
	}
	rc, err := b.Storage.Get(ctx, storagePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// addFile inserts content into files under a sanitized, collision-free
// files/<name> path and returns that path (spec §4.9.2: "_1", "_2", ...
// suffixing on conflict).
func addFile(files map[string][]byte, originalFilename string, content []byte) string {
	safe := secureFilename(originalFilename)
	zipPath := "files/" + safe
	if _, exists := files[zipPath]; exists {
		ext := path.Ext(safe)
		stem := strings.TrimSuffix(safe, ext)
		for counter := 1; ; counter++ {
			candidate := "files/" + stem + "_" + strconv.Itoa(counter) + ext
			if _, exists := files[candidate]; !exists {
				zipPath = candidate
				break
			}
		}
	}
	files[zipPath] = content
	return zipPath
}
