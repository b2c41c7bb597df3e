package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"skaters/config"
	"skaters/httputil"
	"skaters/models"
	"skaters/services"
)

// ErrBudgetExhausted is returned once a run has spent its places call budget.
var ErrBudgetExhausted = services.ErrBudgetExhausted

const detailFields = "name,formatted_address,formatted_phone_number,website,opening_hours,photos,rating,user_ratings_total"

// Places API statuses that are worth retrying.
var transientStatuses = map[string]bool{
	"OVER_QUERY_LIMIT": true,
	"UNKNOWN_ERROR":    true,
}

type placesResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	NextPageToken string        `json:"next_page_token"`
	Results       []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	UserRatingsTotal int     `json:"user_ratings_total"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Name                 string  `json:"name"`
		FormattedPhoneNumber string  `json:"formatted_phone_number"`
		Website              string  `json:"website"`
		Rating               float64 `json:"rating"`
		UserRatingsTotal     int     `json:"user_ratings_total"`
		OpeningHours         struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

// PlacesHandler queries the places text search and details endpoints. Every
// request counts as one metered call.
type PlacesHandler struct {
	cfg     *config.ProviderConfig
	client  *http.Client
	retry   httputil.RetryPolicy
	apiKey  string
	limiter *rate.Limiter

	mu       sync.Mutex
	calls    int
	maxCalls int
}

func NewPlacesHandler(cfg *config.ProviderConfig, client *http.Client, retry httputil.RetryPolicy, apiKey string, qps float64) *PlacesHandler {
	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}
	return &PlacesHandler{
		cfg:     cfg,
		client:  client,
		retry:   retry,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (h *PlacesHandler) ID() string {
	return h.cfg.ID
}

// SetMaxCalls caps the calls this handler may make; 0 means unlimited.
func (h *PlacesHandler) SetMaxCalls(n int) {
	h.mu.Lock()
	h.maxCalls = n
	h.mu.Unlock()
}

// Calls is the number of requests sent so far, retries included.
func (h *PlacesHandler) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// ResetCalls starts a new metering period. The budget applies per run.
func (h *PlacesHandler) ResetCalls() {
	h.mu.Lock()
	h.calls = 0
	h.mu.Unlock()
}

func (h *PlacesHandler) Collect(ctx context.Context, q Query) (Page, error) {
	params := url.Values{}
	tokenQuery := q.PageToken != ""
	if tokenQuery {
		params.Set("pagetoken", q.PageToken)
	} else {
		params.Set("query", q.Category.QueryFor(q.City, q.State))
	}

	var resp placesResponse
	err := h.call(ctx, "places search "+q.String(), h.cfg.Endpoint("search"), params, func(body []byte) error {
		resp = placesResponse{}
		if err := json.Unmarshal(body, &resp); err != nil {
			return httputil.Permanent(fmt.Errorf("decode search response: %w", err))
		}
		return checkStatus(resp.Status, resp.ErrorMessage, tokenQuery)
	})
	if err != nil {
		return Page{}, err
	}

	page := Page{NextPageToken: resp.NextPageToken}
	for _, r := range resp.Results {
		page.Records = append(page.Records, parsePlace(r, q.Category))
	}
	return page, nil
}

// Details looks up one place. A place the service no longer knows yields nil
// details and no error.
func (h *PlacesHandler) Details(ctx context.Context, placeID string) (*models.PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)

	var resp detailsResponse
	err := h.call(ctx, "places details "+placeID, h.cfg.Endpoint("details"), params, func(body []byte) error {
		resp = detailsResponse{}
		if err := json.Unmarshal(body, &resp); err != nil {
			return httputil.Permanent(fmt.Errorf("decode details response: %w", err))
		}
		if resp.Status == "NOT_FOUND" {
			return nil
		}
		return checkStatus(resp.Status, resp.ErrorMessage, false)
	})
	if err != nil {
		return nil, err
	}
	if resp.Status == "NOT_FOUND" || resp.Status == "ZERO_RESULTS" {
		return nil, nil
	}

	r := resp.Result
	d := &models.PlaceDetails{
		Name:         r.Name,
		Phone:        r.FormattedPhoneNumber,
		Website:      r.Website,
		OpeningHours: r.OpeningHours.WeekdayText,
		Rating:       r.Rating,
		ReviewCount:  r.UserRatingsTotal,
	}
	for _, p := range r.Photos {
		if p.PhotoReference != "" {
			d.PhotoRefs = append(d.PhotoRefs, p.PhotoReference)
		}
	}
	return d, nil
}

// call sends one throttled, metered GET with the API key appended and hands
// the body to decode. decode's error decides whether the attempt is retried.
func (h *PlacesHandler) call(ctx context.Context, op, endpoint string, params url.Values, decode func([]byte) error) error {
	if endpoint == "" {
		return httputil.Permanent(fmt.Errorf("provider %s has no endpoint for %s", h.cfg.ID, op))
	}
	params.Set("key", h.apiKey)
	reqURL := endpoint + "?" + params.Encode()

	return h.retry.Do(ctx, op, func(ctx context.Context) error {
		if err := h.spend(); err != nil {
			return httputil.Permanent(err)
		}
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := httputil.Get(ctx, h.client, reqURL)
		if err != nil {
			return err
		}
		return decode(body)
	})
}

func (h *PlacesHandler) spend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxCalls > 0 && h.calls >= h.maxCalls {
		return ErrBudgetExhausted
	}
	h.calls++
	return nil
}

// checkStatus classifies a places status. A page token is not valid for a
// short while after it is issued, so INVALID_REQUEST on a token query is
// retried.
func checkStatus(status, message string, tokenQuery bool) error {
	switch {
	case status == "OK" || status == "ZERO_RESULTS":
		return nil
	case transientStatuses[status]:
		return fmt.Errorf("places status %s: %s", status, message)
	case status == "INVALID_REQUEST" && tokenQuery:
		return fmt.Errorf("places status %s (page token not ready)", status)
	default:
		log.Printf("Warning: places status %s: %s", status, message)
		return httputil.Permanent(fmt.Errorf("places status %s: %s", status, message))
	}
}

// parsePlace maps a search result onto a raw record. The formatted address is
// "street, city, ST zip, country".
func parsePlace(r placeResult, c config.Category) models.RawRecord {
	rec := models.RawRecord{
		"place_id":           r.PlaceID,
		"name":               r.Name,
		"address":            r.FormattedAddress,
		"rating":             r.Rating,
		"user_ratings_total": r.UserRatingsTotal,
		"country":            "US",
		"description":        r.Name + " - " + r.FormattedAddress,
	}
	if r.Geometry.Location.Lat != 0 || r.Geometry.Location.Lng != 0 {
		rec["latitude"] = r.Geometry.Location.Lat
		rec["longitude"] = r.Geometry.Location.Lng
	}

	parts := strings.Split(r.FormattedAddress, ", ")
	if len(parts) >= 3 {
		rec["city"] = parts[len(parts)-3]
		stateZip := strings.Fields(parts[len(parts)-2])
		if len(stateZip) >= 1 {
			rec["state"] = stateZip[0]
		}
		if len(stateZip) >= 2 {
			rec["zip_code"] = stateZip[1]
		}
		rec["address"] = strings.Join(parts[:len(parts)-3], ", ")
	}

	if c.SportType != "" {
		rec["sport_type"] = c.SportType
	}
	if c.VenueType != "" {
		rec["venue_type"] = c.VenueType
	}
	if c.Discipline != "" {
		rec["discipline"] = c.Discipline
	}
	return rec
}

// ResolvePhotoURL turns a stored photo URL into a display URL. Stored places
// references get the key and width appended; other URLs pass through.
func ResolvePhotoURL(stored, apiKey string, maxWidth int) string {
	ref := models.ParsePhotoRef(stored)
	if ref.Kind != models.PhotoKindReference {
		return stored
	}
	if maxWidth <= 0 {
		maxWidth = 1600
	}
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photoreference", ref.Value)
	params.Set("key", apiKey)
	return models.PlacesPhotoEndpoint + "?" + params.Encode()
}
