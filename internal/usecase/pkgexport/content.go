package pkgexport

import (
	"time"

	"infospace/internal/domain/entity"
)

// EntityRef is a lightweight cross-reference to another entity within the
// same package (or resolvable via the importer's UUID map), used wherever
// the Python original inlines a "_reference" dict (spec §4.9.2).
type EntityRef struct {
	UUID string `json:"uuid"`
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// JustificationContent is a Justification's package-portable shape.
type JustificationContent struct {
	FieldName       *string         `json:"field_name,omitempty"`
	Reasoning       string          `json:"reasoning"`
	EvidencePayload entity.Metadata `json:"evidence_payload,omitempty"`
	ModelName       *string         `json:"model_name,omitempty"`
	Score           *float64        `json:"score,omitempty"`
}

// AnnotationContent is an Annotation's package-portable shape when inlined
// under an Asset (schema_reference only; asset identity is implicit).
type AnnotationContent struct {
	UUID           string                  `json:"uuid"`
	SchemaRef      EntityRef               `json:"schema_reference"`
	Value          entity.Metadata         `json:"value"`
	Status         string                  `json:"status"`
	ErrorMessage   *string                 `json:"error_message,omitempty"`
	Justifications []*JustificationContent `json:"justifications,omitempty"`
}

// AssetContent is an Asset's package-portable shape (spec §4.9.2 "Asset").
type AssetContent struct {
	UUID                string               `json:"uuid"`
	ID                  int64                `json:"id,omitempty"`
	Kind                string               `json:"kind"`
	Title               string                `json:"title"`
	TextContent         *string               `json:"text_content,omitempty"`
	TextContentFileRef  *string               `json:"text_content_file_reference,omitempty"`
	BlobFileRef         *string               `json:"blob_file_reference,omitempty"`
	BlobFetchFailed     bool                  `json:"blob_path_fetch_failed,omitempty"`
	SourceIdentifier    *string               `json:"source_identifier,omitempty"`
	SourceMetadata      entity.Metadata       `json:"source_metadata,omitempty"`
	ContentHash         *string               `json:"content_hash,omitempty"`
	EventTimestamp      *time.Time            `json:"event_timestamp,omitempty"`
	PartIndex           *int                  `json:"part_index,omitempty"`
	ChildAssets         []*AssetContent       `json:"children_assets,omitempty"`
	Annotations         []*AnnotationContent  `json:"annotations,omitempty"`
}

// SourceContent is a Source's package-portable shape (spec §4.9.2 "Source").
type SourceContent struct {
	UUID            string          `json:"uuid"`
	ID              int64           `json:"id,omitempty"`
	Name            string          `json:"name"`
	Kind            string          `json:"kind"`
	Details         entity.Metadata `json:"details,omitempty"`
	Status          string          `json:"status,omitempty"`
	MainFileRef     *string         `json:"main_file_reference,omitempty"`
	MainFileFailed  bool            `json:"main_file_fetch_failed,omitempty"`
	Assets          []*AssetContent `json:"assets,omitempty"`
}

// SchemaContent is an AnnotationSchema's package-portable shape, emitted
// essentially verbatim (spec §4.9.2 "Schema").
type SchemaContent struct {
	UUID                          string          `json:"uuid"`
	ID                            int64           `json:"id,omitempty"`
	Name                          string          `json:"name"`
	Version                       int             `json:"version"`
	OutputContract                entity.Metadata `json:"output_contract"`
	Instructions                  string          `json:"instructions,omitempty"`
	FieldSpecificJustificationCfg entity.Metadata `json:"field_specific_justification_configs,omitempty"`
	TargetLevel                   string          `json:"target_level,omitempty"`
}

// RunAnnotationContent is an Annotation inlined under a Run package, carrying
// both schema and asset references (spec §4.9.2 "Run").
type RunAnnotationContent struct {
	UUID           string                  `json:"uuid"`
	AssetRef       EntityRef               `json:"asset_reference"`
	SchemaRef      EntityRef               `json:"schema_reference"`
	Value          entity.Metadata         `json:"value"`
	Status         string                  `json:"status"`
	ErrorMessage   *string                 `json:"error_message,omitempty"`
	Justifications []*JustificationContent `json:"justifications,omitempty"`
}

// RunContent is an AnnotationRun's package-portable shape (spec §4.9.2 "Run").
type RunContent struct {
	UUID                 string                  `json:"uuid"`
	ID                   int64                   `json:"id,omitempty"`
	Name                 string                  `json:"name"`
	Status               string                  `json:"status"`
	Configuration        entity.Metadata         `json:"configuration,omitempty"`
	IncludeParentContext bool                    `json:"include_parent_context"`
	ContextWindow        int                     `json:"context_window"`
	ErrorMessage         *string                 `json:"error_message,omitempty"`
	TargetSchemaRefs     []EntityRef             `json:"target_schema_references"`
	Annotations          []*RunAnnotationContent `json:"annotations,omitempty"`
}

// BundleContent is a Bundle's package-portable shape (spec §4.9.2 "Bundle").
// AssetRefs hold only uuid/id/title/kind unless full asset content was
// requested, in which case FullContent is populated per reference.
type BundleAssetRef struct {
	EntityRef
	Kind        string        `json:"kind"`
	FullContent *AssetContent `json:"full_content,omitempty"`
}

type BundleContent struct {
	UUID           string            `json:"uuid"`
	ID             int64             `json:"id,omitempty"`
	Name           string            `json:"name"`
	Purpose        string            `json:"purpose,omitempty"`
	AssetRefs      []*BundleAssetRef `json:"asset_references"`
}

// DatasetContent is a Dataset's package-portable shape: a named curation of
// existing Bundles, AnnotationRuns, and AnnotationSchemas, each nested
// verbatim in its own package-portable shape (spec §4.9.2 "Dataset").
type DatasetContent struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Bundles     []*BundleContent `json:"bundles,omitempty"`
	Runs        []*RunContent    `json:"annotation_runs,omitempty"`
	Schemas     []*SchemaContent `json:"annotation_schemas,omitempty"`
}

// MixedContent is an ad hoc export of standalone Assets and Bundles sharing
// no common parent (spec §4.9.2 "Mixed").
type MixedContent struct {
	Assets  []*AssetContent  `json:"assets,omitempty"`
	Bundles []*BundleContent `json:"bundles,omitempty"`
}
