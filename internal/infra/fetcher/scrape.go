package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ScrapedPage is the structured result of scraping a URL: the readable
// article text plus the metadata and image inventory a processor needs to
// enrich an asset and spawn image children.
type ScrapedPage struct {
	Title           string
	TextContent     string
	TopImage        string
	Images          []string
	PublicationDate string // RFC3339, empty if the page carried none
	Summary         string
}

// Scrape fetches urlStr and extracts both its readable content (via
// Readability) and its raw image inventory (via a goquery pass over the
// same HTML), the two pieces of scraped_data WebProcessor's original relied
// on from a single scraping provider call.
func (f *ReadabilityFetcher) Scrape(urlStrRaw string) (*ScrapedPage, error) {
	if err := validateURL(urlStrRaw, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doScrape(urlStrRaw)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ScrapedPage), nil
}

func (f *ReadabilityFetcher) doScrape(urlStr string) (*ScrapedPage, error) {
	htmlBytes, finalURL, err := f.fetchRawHTML(urlStr)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), finalURL)
	if err != nil {
		return nil, fmt.Errorf("readability parse failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		text = strings.TrimSpace(article.Content)
	}
	if text == "" {
		return nil, fmt.Errorf("no readable content found at %s", urlStr)
	}

	page := &ScrapedPage{
		Title:       strings.TrimSpace(article.Title),
		TextContent: text,
		TopImage:    article.Image,
		Summary:     strings.TrimSpace(article.Excerpt),
	}
	if article.PublishedTime != nil {
		page.PublicationDate = article.PublishedTime.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err == nil {
		page.Images = extractImageURLs(doc, finalURL)
	}

	return page, nil
}

// extractImageURLs resolves every <img src> against the page's base URL,
// skipping data URIs and duplicates, in document order.
func extractImageURLs(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		resolved := src
		if base != nil {
			if u, err := base.Parse(src); err == nil {
				resolved = u.String()
			}
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	})
	return out
}
