// Package search defines the web-search provider contract used by the
// "search" ingestion handler to turn a query into a set of candidate URLs
// for asset creation.
package search

import "context"

// Result is one hit returned by a search provider.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider runs a web search query and returns ranked results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
