package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/pkg/logger"
)

const progressEvery = 100

// submission outcomes.
const (
	resultSuccess  = "success"
	resultConflict = "conflict"
	resultFailed   = "failed"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// drain discards and closes the response body.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		logger.Get().Debug(context.Background(), "failed to close response body", logger.Error(err))
	}
}

// submitEvents submits events concurrently using a worker pool.
func submitEvents(ctx context.Context, cfg *Config, events []Event, stats *Stats) error {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("count", len(events)),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	target := cfg.BaseURL + "/events"

	var successful, conflict, failed, submitted int64

	workers := max(cfg.Workers, 1)
	eventChan := make(chan Event, workers*2)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				switch submitSingleEvent(ctx, client, target, event) {
				case resultSuccess:
					atomic.AddInt64(&successful, 1)
				case resultConflict:
					atomic.AddInt64(&conflict, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if n := atomic.AddInt64(&submitted, 1); n%progressEvery == 0 {
					logger.Get().Debug(ctx, "submission progress",
						logger.Int("submitted", int(n)),
						logger.Int("total", len(events)))
				}
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsSuccessful = int(atomic.LoadInt64(&successful))
	stats.EventsConflict = int(atomic.LoadInt64(&conflict))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("conflict", stats.EventsConflict),
		logger.Int("failed", stats.EventsFailed))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	if stats.EventsFailed > 0 {
		return fmt.Errorf("%d of %d events were rejected", stats.EventsFailed, len(events))
	}
	return nil
}

// submitSingleEvent submits a single event and returns the outcome.
func submitSingleEvent(ctx context.Context, client *HTTPClient, target string, event Event) string {
	resp, err := client.Post(ctx, target, event)
	if err != nil {
		logger.Get().Debug(ctx, "event submission failed", logger.String("id", event.ID), logger.Error(err))
		return resultFailed
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		return resultSuccess
	case http.StatusConflict:
		// Already seeded by an earlier run with the same seed.
		return resultConflict
	default:
		logger.Get().Debug(ctx, "event rejected", logger.String("id", event.ID), logger.Int("status", resp.StatusCode))
		return resultFailed
	}
}

// fetchLayout retrieves the week layout anchored at date.
func fetchLayout(ctx context.Context, client *HTTPClient, baseURL, date string) (layout.Result, error) {
	q := url.Values{"view": {"week"}, "date": {date}}
	resp, err := client.Get(ctx, baseURL+"/layout?"+q.Encode())
	if err != nil {
		return layout.Result{}, fmt.Errorf("failed to fetch layout: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return layout.Result{}, fmt.Errorf("layout for %s returned status %d", date, resp.StatusCode)
	}

	var res layout.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return layout.Result{}, fmt.Errorf("failed to decode layout: %w", err)
	}
	return res, nil
}
