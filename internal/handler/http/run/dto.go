package run

import (
	"time"

	"infospace/internal/domain/entity"
)

// DTO is the wire shape for an AnnotationRun.
type DTO struct {
	ID                   int64           `json:"id"`
	UUID                 string          `json:"uuid"`
	Name                 string          `json:"name"`
	Status               string          `json:"status"`
	Configuration        entity.Metadata `json:"configuration,omitempty"`
	TargetSchemaIDs      []int64         `json:"target_schema_ids"`
	IncludeParentContext bool            `json:"include_parent_context"`
	ContextWindow        int             `json:"context_window"`
	ErrorMessage         *string         `json:"error_message,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}

func toDTO(r *entity.AnnotationRun) DTO {
	return DTO{
		ID:                   r.ID,
		UUID:                 r.UUID.String(),
		Name:                 r.Name,
		Status:               string(r.Status),
		Configuration:        r.Configuration,
		TargetSchemaIDs:      r.TargetSchemaIDs,
		IncludeParentContext: r.IncludeParentContext,
		ContextWindow:        r.ContextWindow,
		ErrorMessage:         r.ErrorMessage,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		CompletedAt:          r.CompletedAt,
	}
}
