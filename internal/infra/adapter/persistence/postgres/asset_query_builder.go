package postgres

import (
	"fmt"
	"strings"

	"infospace/internal/pkg/search"
	"infospace/internal/repository"
)

// AssetQueryBuilder builds WHERE clauses for asset search/listing in
// PostgreSQL. Shared between COUNT and SELECT queries so the two never
// drift out of sync (adapted from the teacher's ArticleQueryBuilder).
type AssetQueryBuilder struct{}

// NewAssetQueryBuilder creates a new query builder instance.
func NewAssetQueryBuilder() *AssetQueryBuilder {
	return &AssetQueryBuilder{}
}

// BuildWhereClause builds a WHERE clause and its positional arguments from
// keywords (multi-keyword AND logic over title/text_content) and the
// structured AssetSearchFilters. Returns an empty clause if nothing applies.
func (qb *AssetQueryBuilder) BuildWhereClause(keywords []string, filters repository.AssetSearchFilters, tableAlias string) (clause string, args []interface{}) {
	col := func(name string) string {
		if tableAlias == "" {
			return name
		}
		return tableAlias + "." + name
	}

	var conditions []string
	paramIndex := 1

	for _, keyword := range keywords {
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE $%d OR %s ILIKE $%d)",
			col("title"), paramIndex, col("text_content"), paramIndex))
		args = append(args, search.EscapeILIKE(keyword))
		paramIndex++
	}

	if filters.InfospaceID != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col("infospace_id"), paramIndex))
		args = append(args, *filters.InfospaceID)
		paramIndex++
	}
	if filters.SourceID != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col("source_id"), paramIndex))
		args = append(args, *filters.SourceID)
		paramIndex++
	}
	if filters.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col("kind"), paramIndex))
		args = append(args, string(*filters.Kind))
		paramIndex++
	}
	if filters.ParentID != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col("parent_asset_id"), paramIndex))
		args = append(args, *filters.ParentID)
		paramIndex++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", col("created_at"), paramIndex))
		args = append(args, *filters.From)
		paramIndex++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", col("created_at"), paramIndex))
		args = append(args, *filters.To)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
