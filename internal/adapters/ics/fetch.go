package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxFeedBytes        = 16 << 20
)

type cached struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads ICS feeds, revalidating with ETag and Last-Modified so
// unchanged feeds are served from memory.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	mu       sync.Mutex
	cache    map[string]cached
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxFeedBytes caps the accepted feed size. Non-positive values are ignored.
func WithMaxFeedBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a Fetcher. A nil client gets a default with timeout.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	f := &Fetcher{client: client, maxBytes: maxFeedBytes, cache: make(map[string]cached)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the feed body for src and whether it came from cache.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrFetch, src.ID, err)
	}
	f.mu.Lock()
	prev, hasPrev := f.cache[src.URL]
	f.mu.Unlock()
	if hasPrev && prev.etag != "" {
		req.Header.Set("If-None-Match", prev.etag)
	}
	if hasPrev && prev.lastModified != "" {
		req.Header.Set("If-Modified-Since", prev.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrFetch, src.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified && hasPrev:
		return prev.body, true, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: %s: status %d", ErrFetch, src.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrFetch, src.ID, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, false, fmt.Errorf("%w: %s: feed exceeds %d bytes", ErrFetch, src.ID, f.maxBytes)
	}
	f.mu.Lock()
	f.cache[src.URL] = cached{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		body:         body,
	}
	f.mu.Unlock()
	return body, false, nil
}

// RedactURL keeps only scheme and host so feed tokens stay out of logs.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/(redacted)"
}
