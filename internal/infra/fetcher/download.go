package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"infospace/internal/resilience/circuitbreaker"
	"infospace/internal/usecase/fetch"
)

// Download is a fetched binary resource: its bytes, the filename inferred
// from the URL path (for extension-based kind detection), and the final URL
// after redirects.
type Download struct {
	Data     []byte
	Filename string
	FinalURL string
}

// BinaryFetcher downloads arbitrary (non-HTML) resources referenced by a
// bare URL, applying the same SSRF validation, redirect checks, size limit
// and circuit breaker as ReadabilityFetcher so a direct-file ingest goes
// through the same hardening as a scrape.
type BinaryFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         ContentFetchConfig
}

func NewBinaryFetcher(config ContentFetchConfig) *BinaryFetcher {
	cbConfig := circuitbreaker.Config{
		Name:             "direct-file-fetch",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
	f := &BinaryFetcher{circuitBreaker: circuitbreaker.New(cbConfig), config: config}
	f.client = &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", fetch.ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch downloads urlStr, enforcing the configured size limit and timeout.
func (f *BinaryFetcher) Fetch(ctx context.Context, urlStr string) (*Download, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Download), nil
}

func (f *BinaryFetcher) doFetch(ctx context.Context, urlStr string) (*Download, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "InfospaceIngestBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: request exceeded %v", fetch.ErrTimeout, f.config.Timeout)
		}
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	limited := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response size %d bytes exceeds limit %d bytes",
			fetch.ErrBodyTooLarge, len(data), f.config.MaxBodySize)
	}

	finalURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Download{Data: data, Filename: filenameFromURL(finalURL), FinalURL: finalURL}, nil
}

func filenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSpace(name)
}
