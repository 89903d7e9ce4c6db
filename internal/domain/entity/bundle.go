package entity

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a named, user-curated set of Assets (many-to-many via a link
// table). Bundles weakly reference Assets: deleting a Bundle never deletes
// its Assets.
type Bundle struct {
	ID          int64
	UUID        uuid.UUID
	InfospaceID int64
	UserID      int64
	Name        string
	Purpose     string
	AssetCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBundle constructs a Bundle with a fresh UUID.
func NewBundle(infospaceID, userID int64, name string) *Bundle {
	return &Bundle{
		UUID:        uuid.New(),
		InfospaceID: infospaceID,
		UserID:      userID,
		Name:        name,
	}
}

// Validate enforces the minimal Bundle invariants.
func (b *Bundle) Validate() error {
	if b.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}
