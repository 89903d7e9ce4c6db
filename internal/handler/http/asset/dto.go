package asset

import (
	"time"

	"infospace/internal/domain/entity"
)

// DTO is the wire shape for an Asset.
type DTO struct {
	ID               int64           `json:"id"`
	UUID             string          `json:"uuid"`
	Kind             string          `json:"kind"`
	Title            string          `json:"title"`
	ParentAssetID    *int64          `json:"parent_asset_id,omitempty"`
	PartIndex        *int            `json:"part_index,omitempty"`
	TextContent      *string         `json:"text_content,omitempty"`
	SourceIdentifier *string         `json:"source_identifier,omitempty"`
	SourceMetadata   entity.Metadata `json:"source_metadata,omitempty"`
	ContentHash      *string         `json:"content_hash,omitempty"`
	ProcessingStatus string          `json:"processing_status"`
	ProcessingError  *string         `json:"processing_error,omitempty"`
	SourceID         *int64          `json:"source_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toDTO(a *entity.Asset) DTO {
	return DTO{
		ID:               a.ID,
		UUID:             a.UUID.String(),
		Kind:             string(a.Kind),
		Title:            a.Title,
		ParentAssetID:    a.ParentAssetID,
		PartIndex:        a.PartIndex,
		TextContent:      a.TextContent,
		SourceIdentifier: a.SourceIdentifier,
		SourceMetadata:   a.SourceMetadata,
		ContentHash:      a.ContentHash,
		ProcessingStatus: string(a.ProcessingStatus),
		ProcessingError:  a.ProcessingError,
		SourceID:         a.SourceID,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toDTOList(in []*entity.Asset) []DTO {
	out := make([]DTO, 0, len(in))
	for _, a := range in {
		out = append(out, toDTO(a))
	}
	return out
}
