package scraper

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"skaters/config"
	"skaters/models"
)

type placesServer struct {
	mu        sync.Mutex
	searches  []string
	details   int
	tokenMiss int // INVALID_REQUEST replies before the page token becomes valid
	status    string
}

func (s *placesServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if r.URL.Query().Get("key") != "test-key" {
			w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/search":
			q := r.URL.Query()
			s.searches = append(s.searches, q.Get("query")+q.Get("pagetoken"))
			if s.status != "" {
				w.Write([]byte(`{"status":"` + s.status + `"}`))
				return
			}
			if q.Get("pagetoken") == "TOKEN-2" {
				if s.tokenMiss > 0 {
					s.tokenMiss--
					w.Write([]byte(`{"status":"INVALID_REQUEST"}`))
					return
				}
				w.Write(loadFixture(t, "places_search_page2.json"))
				return
			}
			w.Write(loadFixture(t, "places_search_page1.json"))
		case "/details":
			s.details++
			if r.URL.Query().Get("place_id") == "missing" {
				w.Write([]byte(`{"status":"NOT_FOUND"}`))
				return
			}
			w.Write(loadFixture(t, "places_details.json"))
		default:
			http.NotFound(w, r)
		}
	})
}

func placesProvider(base string) *config.ProviderConfig {
	return &config.ProviderConfig{
		ID:       "google_places",
		Handler:  config.HandlerPlaces,
		Verified: true,
		Endpoints: map[string]string{
			"search":  base + "/search",
			"details": base + "/details",
		},
		Categories: []config.Category{
			{Label: "Skateparks", SportType: "skateboarding", VenueType: "skatepark", Query: "skatepark in {city}, {state}"},
		},
	}
}

func newPlacesHandler(t *testing.T, ps *placesServer) (*PlacesHandler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(ps.handler(t))
	t.Cleanup(srv.Close)
	return NewPlacesHandler(placesProvider(srv.URL), srv.Client(), testRetry(), "test-key", 0), srv
}

func TestPlacesCollectParsesResults(t *testing.T) {
	ps := &placesServer{}
	h, srv := newPlacesHandler(t, ps)
	q := Query{City: "Portland", State: "OR", Category: placesProvider(srv.URL).Categories[0]}

	page, err := h.Collect(context.Background(), q)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !page.HasNextPage() || page.NextPageToken != "TOKEN-2" {
		t.Fatalf("expected next page token, got %q", page.NextPageToken)
	}
	if len(page.Records) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page.Records))
	}
	if ps.searches[0] != "skatepark in Portland, OR" {
		t.Fatalf("unexpected query %q", ps.searches[0])
	}

	rec := page.Records[0]
	if rec["place_id"] != "ChIJ-burnside" || rec["city"] != "Portland" || rec["state"] != "OR" || rec["zip_code"] != "97214" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["address"] != "SE 2nd Ave & Burnside St" {
		t.Fatalf("unexpected street address %v", rec["address"])
	}
	if rec["latitude"] != 45.5231 || rec["sport_type"] != "skateboarding" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestPlacesCollectAllWaitsForToken(t *testing.T) {
	ps := &placesServer{tokenMiss: 1}
	h, srv := newPlacesHandler(t, ps)
	q := Query{City: "Portland", State: "OR", Category: placesProvider(srv.URL).Categories[0]}

	var pauses []time.Duration
	records, err := CollectAll(context.Background(), h, q, CollectOptions{
		PageDelay: 2 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records over two pages, got %d", len(records))
	}
	if len(pauses) != 1 || pauses[0] != 2*time.Second {
		t.Fatalf("expected one 2s page delay, got %v", pauses)
	}
	// first page, one rejected token request, accepted token request
	if h.Calls() != 3 || len(ps.searches) != 3 {
		t.Fatalf("expected 3 search calls, got %d (%v)", h.Calls(), ps.searches)
	}
}

func TestPlacesStatuses(t *testing.T) {
	tests := []struct {
		status    string
		wantErr   bool
		wantCalls int
	}{
		{"ZERO_RESULTS", false, 1},
		{"REQUEST_DENIED", true, 1},
		{"INVALID_REQUEST", true, 1},
		{"OVER_QUERY_LIMIT", true, 3},
		{"UNKNOWN_ERROR", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			ps := &placesServer{status: tt.status}
			h, srv := newPlacesHandler(t, ps)
			page, err := h.Collect(context.Background(), Query{City: "Portland", State: "OR", Category: placesProvider(srv.URL).Categories[0]})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(page.Records) != 0 {
				t.Fatalf("expected no records, got %d", len(page.Records))
			}
			if len(ps.searches) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(ps.searches))
			}
		})
	}
}

func TestPlacesBadKeyIsPermanent(t *testing.T) {
	ps := &placesServer{}
	srv := httptest.NewServer(ps.handler(t))
	defer srv.Close()
	h := NewPlacesHandler(placesProvider(srv.URL), srv.Client(), testRetry(), "wrong", 0)

	records, err := CollectAll(context.Background(), h, Query{City: "Portland", State: "OR"}, CollectOptions{Sleep: noSleep})
	if err != nil {
		t.Fatalf("source faults must not surface: %v", err)
	}
	if len(records) != 0 || h.Calls() != 1 {
		t.Fatalf("expected one failed call and no records, got %d calls", h.Calls())
	}
}

func TestPlacesBudget(t *testing.T) {
	ps := &placesServer{}
	h, srv := newPlacesHandler(t, ps)
	h.SetMaxCalls(1)
	q := Query{City: "Portland", State: "OR", Category: placesProvider(srv.URL).Categories[0]}

	records, err := CollectAll(context.Background(), h, q, CollectOptions{Sleep: noSleep})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected budget error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("first page should be kept, got %d records", len(records))
	}
	if _, err := h.Details(context.Background(), "ChIJ-burnside"); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("details should be refused too, got %v", err)
	}
	if ps.details != 0 {
		t.Fatal("no request may be sent past the budget")
	}
}

func TestPlacesDetails(t *testing.T) {
	ps := &placesServer{}
	h, _ := newPlacesHandler(t, ps)

	d, err := h.Details(context.Background(), "ChIJ-burnside")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if d.Phone != "(503) 823-2223" || d.Website != "https://burnsideskatepark.example.com" {
		t.Fatalf("unexpected details %+v", d)
	}
	if len(d.OpeningHours) != 7 || len(d.PhotoRefs) != 2 || d.PhotoRefs[0] != "REF-1" {
		t.Fatalf("unexpected details %+v", d)
	}

	missing, err := h.Details(context.Background(), "missing")
	if err != nil || missing != nil {
		t.Fatalf("unknown place should yield nil details, got %+v %v", missing, err)
	}
}

func TestResolvePhotoURL(t *testing.T) {
	stored := models.ProviderPhoto("REF-1").StorageURL()
	got := ResolvePhotoURL(stored, "k", 800)
	if !strings.HasPrefix(got, models.PlacesPhotoEndpoint+"?") ||
		!strings.Contains(got, "photoreference=REF-1") ||
		!strings.Contains(got, "maxwidth=800") ||
		!strings.Contains(got, "key=k") {
		t.Fatalf("unexpected display url %s", got)
	}
	if plain := "https://img.example.com/a.jpg"; ResolvePhotoURL(plain, "k", 800) != plain {
		t.Fatal("plain urls must pass through")
	}
}

func TestParsePlaceCityOnlyAddress(t *testing.T) {
	r := placeResult{PlaceID: "p1", Name: "Glenhaven Park", FormattedAddress: "Portland, OR 97220, United States"}
	rec := parsePlace(r, config.Category{})
	if rec["city"] != "Portland" || rec["state"] != "OR" || rec["zip_code"] != "97220" {
		t.Fatalf("unexpected location %v", rec)
	}
	if rec["address"] != "" {
		t.Fatalf("street address must not repeat city and state, got %q", rec["address"])
	}

	r.FormattedAddress = "7 Main St, Suite 2, Portland, OR 97220, USA"
	rec = parsePlace(r, config.Category{})
	if rec["address"] != "7 Main St, Suite 2" {
		t.Fatalf("unexpected street address %q", rec["address"])
	}
}

func TestPlacesNetworkErrorKeepsKeyOutOfLogs(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := NewPlacesHandler(placesProvider(base), http.DefaultClient, testRetry(), "SECRET-KEY-123", 0)
	q := Query{City: "Portland", State: "OR", Category: placesProvider(base).Categories[0]}
	records, err := CollectAll(context.Background(), h, q, CollectOptions{Sleep: noSleep})
	if err != nil {
		t.Fatalf("source faults must not surface: %v", err)
	}
	if len(records) != 0 || h.Calls() != 3 {
		t.Fatalf("expected 3 failed attempts, got %d calls", h.Calls())
	}

	_, err = h.Details(context.Background(), "ChIJ-burnside")
	if err == nil {
		t.Fatal("expected details error")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Fatalf("key leaked into error: %v", err)
	}
	if strings.Contains(buf.String(), "SECRET-KEY-123") {
		t.Fatalf("key leaked into log:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "key=REDACTED") {
		t.Fatalf("expected redacted request url in log:\n%s", buf.String())
	}
}

func TestPlacesBudgetSpentDuringDetails(t *testing.T) {
	ps := &placesServer{}
	h, srv := newPlacesHandler(t, ps)
	h.SetMaxCalls(2)
	q := Query{City: "Portland", State: "OR", Category: placesProvider(srv.URL).Categories[0]}

	if _, err := h.Collect(context.Background(), q); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if _, err := h.Details(context.Background(), "ChIJ-burnside"); err != nil {
		t.Fatalf("Details within budget: %v", err)
	}
	_, err := h.Details(context.Background(), "ChIJ-pier")
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected budget error, got %v", err)
	}
	if ps.details != 1 || h.Calls() != 2 {
		t.Fatalf("expected 1 details request and 2 calls, got %d and %d", ps.details, h.Calls())
	}

	h.ResetCalls()
	if _, err := h.Details(context.Background(), "ChIJ-pier"); err != nil {
		t.Fatalf("a new run gets a fresh budget: %v", err)
	}
	if h.Calls() != 1 {
		t.Fatalf("expected 1 call after reset, got %d", h.Calls())
	}
}
