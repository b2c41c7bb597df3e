package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"skaters/config"
	"skaters/httputil"
	"skaters/models"
)

// Handler collects one page of raw venue records per call. Handlers keep no
// results between calls; pagination state travels in Query.PageToken.
type Handler interface {
	ID() string
	Collect(ctx context.Context, q Query) (Page, error)
}

type Query struct {
	City      string
	State     string
	Category  config.Category
	PageToken string
}

func (q Query) String() string {
	loc := q.City
	if q.State != "" {
		if loc != "" {
			loc += ", "
		}
		loc += q.State
	}
	if q.Category.Label != "" {
		return q.Category.Label + " in " + loc
	}
	return loc
}

type Page struct {
	Records       []models.RawRecord
	NextPageToken string
}

func (p Page) HasNextPage() bool {
	return p.NextPageToken != ""
}

// Deps carries what handlers need from the process.
type Deps struct {
	Clients  *httputil.Clients
	Retry    httputil.RetryPolicy
	APIKey   string
	QPS      float64
	MaxCalls int
}

func NewHandler(p *config.ProviderConfig, deps Deps) (Handler, error) {
	switch p.Handler {
	case config.HandlerFixture:
		return NewFixtureHandler(p)
	case config.HandlerHTML:
		var fetcher PageFetcher
		if p.Fetcher == config.FetcherBrowser {
			fetcher = NewBrowserFetcher()
		} else {
			fetcher = NewHTTPFetcher(deps.Clients.Scraping, deps.Retry)
		}
		return NewHTMLHandler(p, fetcher), nil
	case config.HandlerPlaces:
		h := NewPlacesHandler(p, deps.Clients.API, deps.Retry, deps.APIKey, deps.QPS)
		h.SetMaxCalls(deps.MaxCalls)
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownHandler, p.Handler)
	}
}

type CollectOptions struct {
	PageDelay  time.Duration
	MaxResults int // 0 means no limit
	MaxPages   int // 0 means no limit
	Sleep      httputil.Sleeper
}

// CollectAll follows next-page tokens, pausing PageDelay before each follow-up
// request. Source faults are logged and end collection with whatever was
// gathered; only cancellation and an exhausted call budget are returned.
func CollectAll(ctx context.Context, h Handler, q Query, opts CollectOptions) ([]models.RawRecord, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = httputil.SleepContext
	}

	var all []models.RawRecord
	for page := 1; ; page++ {
		res, err := h.Collect(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			if errors.Is(err, ErrBudgetExhausted) {
				return all, err
			}
			log.Printf("Warning: %s: %s page %d failed: %v", h.ID(), q, page, err)
			return all, nil
		}

		all = append(all, res.Records...)
		if opts.MaxResults > 0 && len(all) >= opts.MaxResults {
			return all[:opts.MaxResults], nil
		}
		if !res.HasNextPage() || (opts.MaxPages > 0 && page >= opts.MaxPages) {
			return all, nil
		}

		if err := sleep(ctx, opts.PageDelay); err != nil {
			return all, err
		}
		q.PageToken = res.NextPageToken
	}
}
