package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"infospace/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

// bulkScrapeThreshold is the list size above which URLListHandler scrapes
// concurrently instead of one-at-a-time with a pacing delay.
const bulkScrapeThreshold = 3

// perURLDelay paces sequential scraping so a short URL list doesn't hammer
// the same host back-to-back.
const perURLDelay = 500 * time.Millisecond

// URLListHandler ingests a batch of URLs, each becoming its own WEB asset
// via WebHandler. Large batches scrape concurrently (bounded by MaxThreads);
// small ones scrape sequentially with a pacing delay between requests.
type URLListHandler struct {
	Web *WebHandler
}

func (h *URLListHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, urls []string, opts Options) ([]*entity.Asset, error) {
	if len(urls) > opts.MaxURLs && opts.MaxURLs > 0 {
		slog.Warn("url list truncated to max_urls", slog.Int("requested", len(urls)), slog.Int("max_urls", opts.MaxURLs))
		urls = urls[:opts.MaxURLs]
	}

	if len(urls) > bulkScrapeThreshold && opts.UseBulkScraping {
		return h.handleConcurrent(ctx, infospaceID, userID, title, urls, opts)
	}
	return h.handleSequential(ctx, infospaceID, userID, title, urls, opts)
}

func (h *URLListHandler) handleConcurrent(ctx context.Context, infospaceID, userID int64, title string, urls []string, opts Options) ([]*entity.Asset, error) {
	threads := opts.MaxThreads
	if threads <= 0 {
		threads = 4
	}
	sem := make(chan struct{}, threads)
	eg, egCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var assets []*entity.Asset

	for i, u := range urls {
		u, idx := u, i
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			itemTitle := title
			got, err := h.Web.Handle(egCtx, infospaceID, userID, itemTitle, u, opts)
			if err != nil {
				slog.Warn("url list item failed", slog.String("url", u), slog.Int("index", idx), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			assets = append(assets, got...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return assets, err
	}
	return assets, nil
}

func (h *URLListHandler) handleSequential(ctx context.Context, infospaceID, userID int64, title string, urls []string, opts Options) ([]*entity.Asset, error) {
	var assets []*entity.Asset
	for i, u := range urls {
		got, err := h.Web.Handle(ctx, infospaceID, userID, title, u, opts)
		if err != nil {
			slog.Warn("url list item failed", slog.String("url", u), slog.Int("index", i), slog.Any("error", err))
			continue
		}
		assets = append(assets, got...)

		if i < len(urls)-1 {
			select {
			case <-ctx.Done():
				return assets, ctx.Err()
			case <-time.After(perURLDelay):
			}
		}
	}
	return assets, nil
}
