package processor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/xlsx"
)

// ExcelProcessor expands an Excel workbook asset into a CSV_SHEET child per
// non-empty worksheet and, under each sheet, one CSV_ROW grandchild per data
// row. Unlike CSVProcessor it must first locate the header row itself: a
// worksheet often carries title rows or blank banners above the real
// column headers.
type ExcelProcessor struct{}

func NewExcelProcessor() *ExcelProcessor { return &ExcelProcessor{} }

func (p *ExcelProcessor) CanProcess(asset *entity.Asset) bool {
	if asset.Kind != entity.AssetKindExcel || asset.BlobPath == nil {
		return false
	}
	lower := strings.ToLower(*asset.BlobPath)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

func (p *ExcelProcessor) Process(ctx context.Context, pctx *Context, asset *entity.Asset) ([]*Node, error) {
	if !p.CanProcess(asset) {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: "not a processable Excel asset"}
	}

	maxRows := pctx.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	r, err := pctx.StorageProvider.Get(ctx, *asset.BlobPath)
	if err != nil {
		return nil, fmt.Errorf("read excel blob: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read excel blob: %w", err)
	}

	sheets, err := xlsx.Read(raw)
	if err != nil {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: fmt.Sprintf("failed to parse workbook: %v", err)}
	}

	sheetNames := make([]string, 0, len(sheets))
	totalRows := 0
	var created []*Node

	nonEmptySheetIndex := 0
	for _, sheet := range sheets {
		rows := nonBlankRows(sheet.Rows)
		if len(rows) == 0 {
			continue
		}
		sheetNode := buildSheet(asset, sheet.Name, rows, nonEmptySheetIndex, maxRows)
		sheetNames = append(sheetNames, sheet.Name)
		totalRows += len(sheetNode.Children)
		created = append(created, sheetNode)
		nonEmptySheetIndex++
	}

	asset.TextContent = stringPtr(fmt.Sprintf("Excel workbook with %d sheet(s)", len(sheetNames)))
	if asset.SourceMetadata == nil {
		asset.SourceMetadata = entity.Metadata{}
	}
	asset.SourceMetadata["sheet_count"] = len(sheetNames)
	asset.SourceMetadata["sheet_names"] = sheetNames
	asset.SourceMetadata["total_rows"] = totalRows
	asset.SourceMetadata["is_multisheet_excel"] = len(sheetNames) > 1

	return created, nil
}

// buildSheet detects the header row of a worksheet's grid, creates the
// sheet asset, and creates one row asset per data row beneath it, nested
// under the returned Node. The row assets carry no ParentAssetID yet: the
// sheet asset has no real ID until the caller persists it.
func buildSheet(parent *entity.Asset, sheetName string, rows [][]string, sheetIndex int, maxRows int) *Node {
	headerIdx, header := detectHeaderRow(rows)
	sheetAsset := entity.NewAsset(parent.InfospaceID, parent.UserID, entity.AssetKindExcelSheet, sheetName)
	parentID := parent.ID
	sheetAsset.ParentAssetID = &parentID
	idx := sheetIndex
	sheetAsset.PartIndex = &idx
	sheetAsset.ProcessingStatus = entity.ProcessingStatusReady
	sheetAsset.SourceMetadata = entity.Metadata{
		"sheet_name":        sheetName,
		"sheet_index":       sheetIndex,
		"parent_excel_file": parent.Title,
		"row_count":         len(rows),
		"is_excel_sheet":    true,
	}

	if headerIdx < 0 || len(header) == 0 {
		sheetAsset.TextContent = stringPtr("")
		return &Node{Asset: sheetAsset}
	}

	sheetAsset.SourceMetadata["header_row_index"] = headerIdx
	sheetAsset.SourceMetadata["data_starts_at_row"] = headerIdx + 1

	fullText := []string{"Sheet: " + sheetName, "Headers: " + strings.Join(header, " | ")}
	var rowNodes []*Node
	rowsProcessed := 0

	for _, row := range rows[headerIdx+1:] {
		if rowsProcessed >= maxRows {
			break
		}
		if !anyNonEmpty(row) {
			continue
		}
		row = normalizeRowLength(row, len(header))
		cleaned := make([]string, len(row))
		rowData := entity.Metadata{}
		for i, cell := range row {
			cleaned[i] = strings.TrimSpace(strings.ReplaceAll(cell, "\x00", ""))
			rowData[header[i]] = cleaned[i]
		}
		rowText := strings.Join(cleaned, " | ")
		fullText = append(fullText, rowText)

		child := entity.NewAsset(parent.InfospaceID, parent.UserID, entity.AssetKindExcelRow, excelRowTitle(sheetName, rowsProcessed, cleaned))
		child.PartIndex = intPtr(rowsProcessed)
		child.TextContent = stringPtr(rowText)
		child.ProcessingStatus = entity.ProcessingStatusReady
		child.SourceMetadata = entity.Metadata{
			"sheet_name":        sheetName,
			"sheet_index":       sheetIndex,
			"row_number":        rowsProcessed + 1,
			"data_row_index":    rowsProcessed,
			"original_row_data": rowData,
			"excel_file":        parent.Title,
		}
		rowNodes = append(rowNodes, &Node{Asset: child})
		rowsProcessed++
	}

	sheetAsset.TextContent = stringPtr(strings.Join(fullText, "\n"))
	sheetAsset.SourceMetadata["columns"] = header
	sheetAsset.SourceMetadata["column_count"] = len(header)
	sheetAsset.SourceMetadata["rows_processed"] = rowsProcessed

	return &Node{Asset: sheetAsset, Children: rowNodes}
}

func excelRowTitle(sheetName string, rowIndex int, cleaned []string) string {
	parts := []string{sheetName, fmt.Sprintf("%d", rowIndex+1)}
	for _, v := range cleaned {
		if len(parts) >= 4 {
			break
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if len(v) > 25 {
			v = v[:25] + "..."
		}
		parts = append(parts, v)
	}
	if len(parts) > 2 {
		return strings.Join(parts, " | ")
	}
	return fmt.Sprintf("%s Row %d", sheetName, rowIndex+1)
}

func nonBlankRows(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		if anyNonEmpty(row) {
			out = append(out, row)
		}
	}
	return out
}

// detectHeaderRow scans up to the first 20 rows scoring each by non-empty
// cell count and average cell length (headers tend to run 5-30 characters),
// then sanity-checks that the following row has a comparable cell count
// before committing to the top-scoring candidate.
func detectHeaderRow(rows [][]string) (int, []string) {
	scanLimit := min(20, len(rows))

	type candidate struct {
		idx       int
		nonEmpty  int
		score     float64
		raw       []string
	}
	var candidates []candidate

	for i := 0; i < scanLimit; i++ {
		row := rows[i]
		nonEmpty := 0
		var lengths []int
		for _, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				continue
			}
			nonEmpty++
			lengths = append(lengths, len(trimmed))
		}
		if nonEmpty <= 2 {
			continue
		}
		avgLen := 0.0
		if len(lengths) > 0 {
			sum := 0
			for _, l := range lengths {
				sum += l
			}
			avgLen = float64(sum) / float64(len(lengths))
		}
		lengthScore := 0.5
		if avgLen >= 5 && avgLen <= 30 {
			lengthScore = 1.0
		}
		candidates = append(candidates, candidate{idx: i, nonEmpty: nonEmpty, score: float64(nonEmpty) * lengthScore, raw: row})
	}

	if len(candidates) == 0 {
		return -1, nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	if best.idx+1 < len(rows) {
		nextNonEmpty := 0
		for _, cell := range rows[best.idx+1] {
			if strings.TrimSpace(cell) != "" {
				nextNonEmpty++
			}
		}
		if float64(nextNonEmpty) < float64(best.nonEmpty)*0.5 && len(candidates) > 1 {
			second := candidates[0]
			for _, c := range candidates {
				if c.idx != best.idx && (second.idx == best.idx || c.score > second.score) {
					second = c
				}
			}
			if second.idx != best.idx {
				best = second
			}
		}
	}

	header := make([]string, len(best.raw))
	for i, h := range best.raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		header[i] = h
	}
	return best.idx, header
}

func intPtr(i int) *int { return &i }
