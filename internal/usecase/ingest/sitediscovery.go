package ingest

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"infospace/internal/domain/entity"

	"github.com/gocolly/colly/v2"
)

// SiteDiscoveryHandler runs a bounded breadth-first crawl from a site's root
// (or any page treated as one), collecting same-domain links up to MaxDepth
// and MaxURLs, then hands each discovered URL to WebHandler — mirroring the
// teacher pack's CollyScraper configuration for rate-limited, depth-bounded
// crawling (spec §4.2).
type SiteDiscoveryHandler struct {
	Web *WebHandler
}

const (
	defaultCrawlDepth   = 2
	defaultCrawlMaxURLs = 40
	crawlDomainDelay    = 500 * time.Millisecond
)

func (h *SiteDiscoveryHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, rootURL string, opts Options) ([]*entity.Asset, error) {
	parsed, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("parse site discovery root %s: %w", rootURL, err)
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultCrawlDepth
	}
	maxURLs := opts.MaxURLs
	if maxURLs <= 0 {
		maxURLs = defaultCrawlMaxURLs
	}

	discovered, err := crawlSite(ctx, rootURL, parsed.Host, maxDepth, maxURLs)
	if err != nil {
		return nil, fmt.Errorf("crawl site %s: %w", rootURL, err)
	}
	if len(discovered) == 0 {
		discovered = []string{rootURL}
	}

	var assets []*entity.Asset
	for _, u := range discovered {
		got, err := h.Web.Handle(ctx, infospaceID, userID, title, u, opts)
		if err != nil {
			continue
		}
		assets = append(assets, got...)
	}
	return assets, nil
}

// crawlSite discovers up to maxURLs pages reachable from root within
// maxDepth hops, staying on host. It returns URLs in discovery order; root
// itself is always first.
func crawlSite(ctx context.Context, root, host string, maxDepth, maxURLs int) ([]string, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.MaxDepth(maxDepth),
		colly.Async(false),
	)
	c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, Delay: crawlDomainDelay})
	c.SetRequestTimeout(20 * time.Second)

	var mu sync.Mutex
	seen := map[string]bool{}
	var order []string

	record := func(link string) bool {
		mu.Lock()
		defer mu.Unlock()
		if seen[link] || len(order) >= maxURLs {
			return false
		}
		seen[link] = true
		order = append(order, link)
		return true
	}

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		mu.Lock()
		full := len(order) >= maxURLs
		mu.Unlock()
		if full {
			return
		}
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		_ = e.Request.Visit(link)
	})

	c.OnResponse(func(r *colly.Response) {
		record(r.Request.URL.String())
	})

	done := make(chan struct{})
	go func() {
		_ = c.Visit(root)
		c.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return order, ctx.Err()
	case <-done:
	}

	return order, nil
}
