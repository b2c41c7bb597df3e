package scraper

import (
	"context"
	"testing"

	"skaters/config"
)

func TestFixtureHandlersLoad(t *testing.T) {
	for id, p := range config.DefaultProviders() {
		if p.Handler != config.HandlerFixture {
			continue
		}
		h, err := NewFixtureHandler(p)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		page, err := h.Collect(context.Background(), Query{Category: p.Categories[0]})
		if err != nil {
			t.Fatalf("%s: Collect: %v", id, err)
		}
		if len(page.Records) != 5 || page.HasNextPage() {
			t.Fatalf("%s: expected 5 records on one page, got %d", id, len(page.Records))
		}
		for _, rec := range page.Records {
			if rec["sport_type"] != p.Categories[0].SportType {
				t.Fatalf("%s: sport type not applied: %v", id, rec)
			}
		}
	}
}

func TestFixtureHandlerFiltersLocation(t *testing.T) {
	h, err := NewFixtureHandler(&config.ProviderConfig{ID: "fx", Fixture: "ice_rinks"})
	if err != nil {
		t.Fatal(err)
	}
	page, _ := h.Collect(context.Background(), Query{City: "new york", State: "ny"})
	if len(page.Records) != 3 {
		t.Fatalf("expected 3 New York rinks, got %d", len(page.Records))
	}
	page, _ = h.Collect(context.Background(), Query{State: "TX"})
	if len(page.Records) != 2 {
		t.Fatalf("expected 2 Texas rinks, got %d", len(page.Records))
	}
}

func TestFixtureHandlerUnknownSet(t *testing.T) {
	if _, err := NewFixtureHandler(&config.ProviderConfig{ID: "fx", Fixture: "velodromes"}); err == nil {
		t.Fatal("expected error for unknown fixture")
	}
}

func TestFixtureRecordsAreCopies(t *testing.T) {
	h, _ := NewFixtureHandler(&config.ProviderConfig{ID: "fx", Fixture: "trails"})
	page, _ := h.Collect(context.Background(), Query{})
	page.Records[0]["name"] = "changed"
	again, _ := h.Collect(context.Background(), Query{})
	if again.Records[0]["name"] == "changed" {
		t.Fatal("records must not alias the fixture")
	}
}
