package scraper

import (
	"context"
	"net/http"

	"skaters/httputil"
)

// HTTPFetcher fetches pages with plain GET requests under a retry policy.
type HTTPFetcher struct {
	client *http.Client
	retry  httputil.RetryPolicy
}

func NewHTTPFetcher(client *http.Client, retry httputil.RetryPolicy) *HTTPFetcher {
	return &HTTPFetcher{client: client, retry: retry}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var body []byte
	err := f.retry.Do(ctx, "fetch "+pageURL, func(ctx context.Context) error {
		b, err := httputil.Get(ctx, f.client, pageURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}
