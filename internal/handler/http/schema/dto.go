package schema

import (
	"time"

	"infospace/internal/domain/entity"
)

// DTO is the wire shape for an AnnotationSchema.
type DTO struct {
	ID                            int64           `json:"id"`
	UUID                          string          `json:"uuid"`
	Name                          string          `json:"name"`
	Version                       int             `json:"version"`
	OutputContract                entity.Metadata `json:"output_contract"`
	Instructions                  string          `json:"instructions,omitempty"`
	FieldSpecificJustificationCfg entity.Metadata `json:"field_specific_justification_configs,omitempty"`
	TargetLevel                   string          `json:"target_level,omitempty"`
	CreatedAt                     time.Time       `json:"created_at"`
}

func toDTO(s *entity.AnnotationSchema) DTO {
	return DTO{
		ID:                            s.ID,
		UUID:                          s.UUID.String(),
		Name:                          s.Name,
		Version:                       s.Version,
		OutputContract:                s.OutputContract,
		Instructions:                  s.Instructions,
		FieldSpecificJustificationCfg: s.FieldSpecificJustificationCfg,
		TargetLevel:                   s.TargetLevel,
		CreatedAt:                     s.CreatedAt,
	}
}
