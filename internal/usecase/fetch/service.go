// Package fetch defines the feed-fetching contracts the ingestion router
// dispatches RSS/Atom and structured-site locators through.
package fetch

import (
	"context"
	"time"
)

// FeedFetcher is an interface for fetching RSS/Atom feeds from a URL.
// Structured-site scrapers (Webflow, NextJS, Remix index pages) implement
// the same interface so the ingestion router can treat them identically.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedItem, error)
}

// FeedItem represents a single item from an RSS/Atom feed or a structured
// site's index page.
type FeedItem struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}
