// Package entity defines the core domain entities and validation logic for the
// ingestion and annotation platform: Assets, Sources, Bundles, AnnotationSchemas,
// AnnotationRuns, Annotations, Justifications and ModelInfo, along with their
// validation rules and domain-specific errors.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is an open, string-keyed map of JSON-compatible values. It models
// the dynamically-typed `source_metadata` / `options` / `value` fields of the
// original system: a tagged sum of {string, int, float, bool, list, map} is
// represented here simply as `any` since Go's encoding/json already performs
// that decoding; callers are expected to validate against a JSON schema where
// one exists (AnnotationSchema.OutputContract) and otherwise pass it through
// untouched.
type Metadata map[string]any

// Asset is a unit of ingestable content: a file, a feed entry, a CSV row, a
// PDF page, a scraped image, or any other node in the ingestion hierarchy.
type Asset struct {
	ID               int64
	UUID             uuid.UUID
	InfospaceID      int64
	UserID           int64
	Kind             AssetKind
	Title            string
	ParentAssetID    *int64
	PartIndex        *int
	BlobPath         *string
	TextContent      *string
	SourceIdentifier *string // URL, when applicable
	SourceMetadata   Metadata
	EventTimestamp   *time.Time
	ContentHash      *string
	ProcessingStatus ProcessingStatus
	ProcessingError  *string
	SourceID         *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate enforces the Asset invariants from spec §3.
func (a *Asset) Validate() error {
	if a.Kind == "" {
		return &ValidationError{Field: "kind", Message: "is required"}
	}
	if a.Kind.requiresParent() && a.ParentAssetID == nil {
		return &ValidationError{
			Field:   "parent_asset_id",
			Message: "is required for kind " + string(a.Kind),
		}
	}
	if a.BlobPath == nil && a.TextContent == nil && a.SourceIdentifier == nil {
		return &ValidationError{
			Field:   "blob_path/text_content/source_identifier",
			Message: "at least one of blob_path, text_content, source_identifier must be present",
		}
	}
	if a.UUID == uuid.Nil {
		return &ValidationError{Field: "uuid", Message: "is required"}
	}
	return nil
}

// NewAsset constructs an Asset with a fresh UUID and PENDING processing
// status, matching the construction pattern every handler uses before
// persistence.
func NewAsset(infospaceID, userID int64, kind AssetKind, title string) *Asset {
	return &Asset{
		UUID:             uuid.New(),
		InfospaceID:      infospaceID,
		UserID:           userID,
		Kind:             kind,
		Title:            title,
		SourceMetadata:   Metadata{},
		ProcessingStatus: ProcessingStatusPending,
	}
}

// IsChild reports whether this asset is a child of another asset.
func (a *Asset) IsChild() bool {
	return a.ParentAssetID != nil
}
