package entity

import (
	"time"

	"github.com/google/uuid"
)

// Source is the logical origin of one or more Assets: one uploaded file, one
// bulk URL-list operation, one RSS feed subscription, one search query, and
// so on. Assets may exist without a Source (adhoc ingestion).
type Source struct {
	ID            int64
	UUID          uuid.UUID
	InfospaceID   int64
	UserID        int64
	Name          string
	Kind          SourceKind
	Details       Metadata
	Status        string
	ErrorMessage  *string
	ImportedFromUUID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSource constructs a Source with a fresh UUID, matching every ingestion
// handler's construction pattern.
func NewSource(infospaceID, userID int64, name string, kind SourceKind) *Source {
	return &Source{
		UUID:        uuid.New(),
		InfospaceID: infospaceID,
		UserID:      userID,
		Name:        name,
		Kind:        kind,
		Details:     Metadata{},
		Status:      "ACTIVE",
	}
}

// Validate enforces the minimal Source invariants.
func (s *Source) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if s.Kind == "" {
		return &ValidationError{Field: "kind", Message: "is required"}
	}
	return nil
}
