package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	rpdf "rsc.io/pdf"

	"infospace/internal/domain/entity"
)

// defaultMaxPages bounds how many pages a single PDF asset expands into.
const defaultMaxPages = 2000

// PDFProcessor expands a PDF asset into one PDF_PAGE child per page with
// extractable text, and recovers a document title from the PDF's own
// metadata when the asset's current title still carries the generic
// upload placeholder.
type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor { return &PDFProcessor{} }

func (p *PDFProcessor) CanProcess(asset *entity.Asset) bool {
	return asset.Kind == entity.AssetKindPDF && asset.BlobPath != nil
}

func (p *PDFProcessor) Process(ctx context.Context, pctx *Context, asset *entity.Asset) ([]*Node, error) {
	if !p.CanProcess(asset) {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: "not a processable PDF asset"}
	}

	maxPages := defaultMaxPages
	if v, ok := pctx.Options["max_pages"].(int); ok && v > 0 {
		maxPages = v
	}

	r, err := pctx.StorageProvider.Get(ctx, *asset.BlobPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf blob: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf blob: %w", err)
	}

	reader, err := rpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: fmt.Sprintf("failed to open PDF: %v", err)}
	}

	pageCount := reader.NumPage()
	pagesToProcess := min(pageCount, maxPages)

	var fullText strings.Builder
	var children []*Node
	processedPages := 0

	for pageNum := 1; pageNum <= pagesToProcess; pageNum++ {
		text := extractPageText(reader, pageNum)
		if text == "" {
			continue
		}

		fullText.WriteString(text)
		fullText.WriteString("\n\n")

		child := entity.NewAsset(asset.InfospaceID, asset.UserID, entity.AssetKindPDFPage, fmt.Sprintf("Page %d", pageNum))
		parentID := asset.ID
		idx := pageNum - 1
		child.ParentAssetID = &parentID
		child.PartIndex = &idx
		child.TextContent = stringPtr(text)
		child.ProcessingStatus = entity.ProcessingStatusReady
		child.SourceMetadata = entity.Metadata{
			"page_number": pageNum,
			"char_count":  len(text),
		}
		children = append(children, &Node{Asset: child})
		processedPages++
	}

	asset.TextContent = stringPtr(strings.TrimSpace(fullText.String()))
	if asset.SourceMetadata == nil {
		asset.SourceMetadata = entity.Metadata{}
	}
	asset.SourceMetadata["page_count"] = pageCount
	asset.SourceMetadata["processed_pages"] = processedPages
	if title := extractedTitle(reader); title != "" && strings.HasPrefix(asset.Title, "Uploaded") {
		asset.Title = title
	}

	return children, nil
}

// extractPageText concatenates a page's text fragments with a single space
// between them and strips embedded null bytes, matching the original
// PyMuPDF-derived text output.
func extractPageText(reader *rpdf.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	var b strings.Builder
	for _, fragment := range page.Content().Text {
		b.WriteString(fragment.S)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\x00", ""))
}

// extractedTitle reads the PDF's Info dictionary Title entry, if present.
func extractedTitle(reader *rpdf.Reader) string {
	trailer := reader.Trailer()
	if trailer.IsNull() {
		return ""
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return ""
	}
	title := info.Key("Title")
	if title.Kind() != rpdf.String {
		return ""
	}
	return strings.TrimSpace(title.RawString())
}
