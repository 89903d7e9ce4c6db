package bundle

import (
	"time"

	"infospace/internal/domain/entity"
)

// DTO is the wire shape for a Bundle.
type DTO struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Purpose     string    `json:"purpose,omitempty"`
	AssetCount  int       `json:"asset_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDTO(b *entity.Bundle) DTO {
	return DTO{
		ID:         b.ID,
		UUID:       b.UUID.String(),
		Name:       b.Name,
		Purpose:    b.Purpose,
		AssetCount: b.AssetCount,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
