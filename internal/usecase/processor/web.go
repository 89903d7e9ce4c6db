package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"infospace/internal/domain/entity"
)

// skipImagePatterns filters chrome (logos, ads, tracking pixels) out of a
// scraped page's raw image inventory before it's offered as content images.
var skipImagePatterns = []string{
	"logo", "icon", "avatar", "button", "badge", "banner",
	"header", "footer", "nav", "menu", "ad", "advertisement",
	"twitter.gif", "facebook.gif", "pixel.gif", "1x1.gif",
	"sprite", "tracking",
}

var skipImageDimensions = []string{"16x16", "32x32", "64x64"}

// ScrapedPage is the shape WebProcessor needs from whatever scraping
// provider backs it; infra/fetcher.ScrapedPage satisfies it structurally.
type ScrapedPage struct {
	Title           string
	TextContent     string
	TopImage        string
	Images          []string
	PublicationDate string
	Summary         string
}

// ScrapingProvider fetches and extracts a web page's readable content and
// image inventory. CanProcess requires one to be configured.
type ScrapingProvider interface {
	Scrape(url string) (*ScrapedPage, error)
}

// WebProcessor scrapes a WEB asset's source URL, updates the asset's text
// content and title from the scrape, and spawns one IMAGE child per
// qualifying image (a featured image first, then content images).
type WebProcessor struct {
	Scraper   ScrapingProvider
	MaxImages int
}

func NewWebProcessor(scraper ScrapingProvider, maxImages int) *WebProcessor {
	if maxImages <= 0 {
		maxImages = 10
	}
	return &WebProcessor{Scraper: scraper, MaxImages: maxImages}
}

func (p *WebProcessor) CanProcess(asset *entity.Asset) bool {
	return asset.Kind == entity.AssetKindWeb && asset.SourceIdentifier != nil
}

func (p *WebProcessor) Process(ctx context.Context, pctx *Context, asset *entity.Asset) ([]*Node, error) {
	if !p.CanProcess(asset) {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: "not a processable web asset"}
	}
	if p.Scraper == nil {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: "scraping provider not available"}
	}

	scraped, err := p.Scraper.Scrape(*asset.SourceIdentifier)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", *asset.SourceIdentifier, err)
	}
	if scraped == nil || strings.TrimSpace(scraped.TextContent) == "" {
		return nil, &ProcessingError{AssetID: asset.ID, Reason: "no content could be scraped from URL"}
	}

	text := strings.TrimSpace(scraped.TextContent)
	asset.TextContent = &text
	if title := strings.TrimSpace(scraped.Title); title != "" {
		asset.Title = title
	}

	if scraped.PublicationDate != "" {
		if parsed, err := time.Parse(time.RFC3339, scraped.PublicationDate); err == nil {
			asset.EventTimestamp = &parsed
		}
	}

	scrapedAt := nowFunc().UTC().Format(time.RFC3339)
	if asset.SourceMetadata == nil {
		asset.SourceMetadata = entity.Metadata{}
	}
	asset.SourceMetadata["scraped_at"] = scrapedAt
	asset.SourceMetadata["scraped_title"] = scraped.Title
	asset.SourceMetadata["top_image"] = scraped.TopImage
	asset.SourceMetadata["summary"] = scraped.Summary
	asset.SourceMetadata["publication_date"] = scraped.PublicationDate
	asset.SourceMetadata["content_length"] = len(text)

	var children []*Node
	startIndex := 0

	if scraped.TopImage != "" {
		featured := entity.NewAsset(asset.InfospaceID, asset.UserID, entity.AssetKindImage, "Featured: "+asset.Title)
		parentID := asset.ID
		featured.ParentAssetID = &parentID
		featured.SourceIdentifier = &scraped.TopImage
		featured.PartIndex = intPtr(0)
		featured.ProcessingStatus = entity.ProcessingStatusReady
		featured.SourceMetadata = entity.Metadata{
			"image_role":    "featured",
			"image_url":     scraped.TopImage,
			"is_hero_image": true,
			"scraped_at":    scrapedAt,
			"parent_article": entity.Metadata{
				"title":    asset.Title,
				"url":      *asset.SourceIdentifier,
				"asset_id": asset.ID,
			},
		}
		children = append(children, &Node{Asset: featured})
		startIndex = 1
	}

	contentImages := filterContentImages(scraped.Images, scraped.TopImage)
	if len(contentImages) > p.MaxImages {
		contentImages = contentImages[:p.MaxImages]
	}
	for idx, imgURL := range contentImages {
		imgURL := imgURL
		content := entity.NewAsset(asset.InfospaceID, asset.UserID, entity.AssetKindImage, fmt.Sprintf("Image %d: %s", startIndex+idx+1, asset.Title))
		parentID := asset.ID
		content.ParentAssetID = &parentID
		content.SourceIdentifier = &imgURL
		content.PartIndex = intPtr(startIndex + idx)
		content.ProcessingStatus = entity.ProcessingStatusReady
		content.SourceMetadata = entity.Metadata{
			"image_role":     "content",
			"image_url":      imgURL,
			"content_index":  idx,
			"scraped_at":     scrapedAt,
			"parent_article": entity.Metadata{"title": asset.Title, "url": *asset.SourceIdentifier, "asset_id": asset.ID},
		}
		children = append(children, &Node{Asset: content})
	}

	return children, nil
}

// filterContentImages drops chrome images (logos, trackers, icon-sized
// assets) and the already-used top image from a scraped page's raw image
// list, preserving order.
func filterContentImages(images []string, topImage string) []string {
	if len(images) == 0 {
		return nil
	}
	seen := map[string]bool{}
	if topImage != "" {
		seen[topImage] = true
	}

	var out []string
	for _, img := range images {
		if seen[img] {
			continue
		}
		lower := strings.ToLower(img)
		skip := false
		for _, pattern := range skipImagePatterns {
			if strings.Contains(lower, pattern) {
				skip = true
				break
			}
		}
		if !skip {
			for _, dim := range skipImageDimensions {
				if strings.Contains(img, dim) {
					skip = true
					break
				}
			}
		}
		if skip {
			continue
		}
		out = append(out, img)
		seen[img] = true
	}
	return out
}

// nowFunc is overridden in tests for deterministic scraped_at timestamps.
var nowFunc = time.Now
