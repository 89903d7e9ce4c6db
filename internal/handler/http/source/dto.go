package source

import (
	"time"

	"infospace/internal/domain/entity"
)

// DTO is the wire shape for a Source.
type DTO struct {
	ID           int64           `json:"id"`
	UUID         string          `json:"uuid"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Details      entity.Metadata `json:"details,omitempty"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toDTO(src *entity.Source) DTO {
	return DTO{
		ID:           src.ID,
		UUID:         src.UUID.String(),
		Name:         src.Name,
		Kind:         string(src.Kind),
		Details:      src.Details,
		Status:       src.Status,
		ErrorMessage: src.ErrorMessage,
		CreatedAt:    src.CreatedAt,
		UpdatedAt:    src.UpdatedAt,
	}
}
