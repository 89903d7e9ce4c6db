package entity

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is one structured result (value + justifications) for the
// triple (Asset, AnnotationSchema, AnnotationRun).
type Annotation struct {
	ID         int64
	UUID       uuid.UUID
	AssetID    int64
	SchemaID   int64
	RunID      int64
	Value      Metadata
	Status     AnnotationStatus
	ErrorMessage *string
	Region     Metadata
	Links      Metadata
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAnnotation constructs a PENDING annotation with a fresh UUID.
func NewAnnotation(assetID, schemaID, runID int64) *Annotation {
	return &Annotation{
		UUID:     uuid.New(),
		AssetID:  assetID,
		SchemaID: schemaID,
		RunID:    runID,
		Status:   AnnotationStatusPending,
	}
}

// Justification is a per-field reasoning trace attached to an Annotation.
type Justification struct {
	ID              int64
	AnnotationID    int64
	FieldName       *string
	Reasoning       string
	EvidencePayload Metadata
	Score           *float64
	ModelName       *string
	CreatedAt       time.Time
}
