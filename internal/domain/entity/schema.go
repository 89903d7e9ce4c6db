package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnnotationSchema is a versioned JSON-schema contract describing the
// expected structured output of an annotation. Schemas are immutable per
// (uuid, version): a new version is a new row, never a mutation.
type AnnotationSchema struct {
	ID                            int64
	UUID                          uuid.UUID
	InfospaceID                   int64
	Name                          string
	Version                       int
	OutputContract                Metadata // a JSON schema document
	Instructions                  string
	FieldSpecificJustificationCfg Metadata
	TargetLevel                   string // e.g. "asset" or "source"
	CreatedAt                     time.Time
}

// NewAnnotationSchema constructs a fresh, version-1 schema.
func NewAnnotationSchema(infospaceID int64, name string, outputContract Metadata) *AnnotationSchema {
	return &AnnotationSchema{
		UUID:            uuid.New(),
		InfospaceID:     infospaceID,
		Name:            name,
		Version:         1,
		OutputContract:  outputContract,
		TargetLevel:     "asset",
	}
}

// Validate checks structural requirements on the schema record itself; the
// JSON-schema-ness of OutputContract is checked by the schema compiler in
// usecase/schema, not here, since that requires jsonschema compilation.
func (s *AnnotationSchema) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(s.OutputContract) == 0 {
		return &ValidationError{Field: "output_contract", Message: "is required"}
	}
	return nil
}
