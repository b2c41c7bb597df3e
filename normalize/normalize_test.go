package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"skaters/config"
	"skaters/models"
)

var scrapedDefaults = Defaults{
	SportType:  models.SportSkateboarding,
	VenueType:  models.VenueTypeSkatepark,
	Discipline: "street",
	Country:    "US",
}

func TestVenueBurnside(t *testing.T) {
	v := Venue(models.RawRecord{"name": "Burnside Skatepark", "city": "Portland", "state": "OR"}, scrapedDefaults)

	if v.Slug != "burnside-skatepark-portland-or" {
		t.Fatalf("unexpected slug %q", v.Slug)
	}
	if v.SportType != models.SportSkateboarding || v.VenueType != models.VenueTypeSkatepark {
		t.Fatalf("unexpected classification %s/%s", v.SportType, v.VenueType)
	}
	if v.Verified {
		t.Fatal("scraped data must not be verified")
	}
	if v.Status != models.VenueStatusActive || v.Country != "US" {
		t.Fatalf("unexpected status/country %s/%s", v.Status, v.Country)
	}
	if v.Description != "Burnside Skatepark is a skatepark in Portland, OR." {
		t.Fatalf("unexpected fallback description %q", v.Description)
	}
	if v.MetaTitle != "Burnside Skatepark | Portland, OR | Skaters.com" {
		t.Fatalf("unexpected meta title %q", v.MetaTitle)
	}
	if v.SEOKeywords != "skateboarding, skatepark, Portland, OR" {
		t.Fatalf("unexpected keywords %q", v.SEOKeywords)
	}
}

func TestVenueIsTotal(t *testing.T) {
	inputs := []models.RawRecord{
		nil,
		{},
		{"name": ""},
		{"name": 42, "city": []int{1}, "latitude": "north", "longitude": nil},
		{"name": "<b>   </b>", "rating": "lots", "year_opened": 99999},
		{"amenities": "not a list", "photos": 3, "opening_hours": map[string]any{}},
	}
	for i, raw := range inputs {
		v := Venue(raw, Defaults{})
		if v.Name == "" || v.Slug == "" || v.Description == "" {
			t.Fatalf("input %d: empty identity fields: %+v", i, v)
		}
		if v.SportType != models.SportSkateboarding {
			t.Fatalf("input %d: expected skateboarding fallback, got %q", i, v.SportType)
		}
		if (v.Latitude == nil) != (v.Longitude == nil) {
			t.Fatalf("input %d: coordinates must be both or neither", i)
		}
		_ = Seed(raw, Defaults{})
	}
}

func TestVenueSymbolOnlyNameUsesFingerprintSlug(t *testing.T) {
	v := Venue(models.RawRecord{"name": "???"}, scrapedDefaults)
	if !strings.HasPrefix(v.Slug, "venue-") || len(v.Slug) != len("venue-")+8 {
		t.Fatalf("unexpected slug %q", v.Slug)
	}
}

func TestVenueSlugDeterministic(t *testing.T) {
	raw := models.RawRecord{"name": "Pier Park Skatepark", "city": "Portland", "state": "Oregon", "description": "x"}
	a := Venue(raw, scrapedDefaults)
	b := Venue(models.RawRecord{"name": "Pier Park Skatepark", "city": "Portland", "state": "OR", "rating": 4.5}, scrapedDefaults)
	if a.Slug != b.Slug {
		t.Fatalf("slugs differ: %q vs %q", a.Slug, b.Slug)
	}
}

func TestVenueFullRecord(t *testing.T) {
	raw := models.RawRecord{
		"name":         "  World on   Wheels ",
		"city":         "Los Angeles",
		"state":        "ca",
		"address":      "4645 Venice Blvd",
		"zip_code":     90019,
		"latitude":     34.0420,
		"longitude":    json.Number("-118.3287"),
		"phone":        "Call (323) 933-5170 today",
		"website":      "https://www.worldonwheelsla.com",
		"description":  "<p>Historic roller rink &amp; arcade. Email info@wow.example.com</p>",
		"year_opened":  1979,
		"sport_type":   "Roller Skating",
		"place_id":     "ChIJ123",
		"rating":       4.4,
		"review_count": "812",
	}
	v := Venue(raw, Defaults{Verified: true})

	if v.Name != "World on Wheels" {
		t.Fatalf("name not cleaned: %q", v.Name)
	}
	if v.State != "CA" || v.ZipCode != "90019" {
		t.Fatalf("unexpected state/zip %q/%q", v.State, v.ZipCode)
	}
	if v.SportType != models.SportRollerSkating || v.VenueType != models.VenueTypeRollerRink {
		t.Fatalf("unexpected classification %s/%s", v.SportType, v.VenueType)
	}
	if v.Phone != "(323) 933-5170" {
		t.Fatalf("unexpected phone %q", v.Phone)
	}
	if v.Email != "info@wow.example.com" {
		t.Fatalf("unexpected email %q", v.Email)
	}
	if v.Description != "Historic roller rink & arcade. Email info@wow.example.com" {
		t.Fatalf("unexpected description %q", v.Description)
	}
	if !v.HasLocation() || *v.Longitude != -118.3287 {
		t.Fatalf("unexpected coordinates %v %v", v.Latitude, v.Longitude)
	}
	if v.YearOpened == nil || *v.YearOpened != 1979 {
		t.Fatalf("unexpected year %v", v.YearOpened)
	}
	if v.ExternalID != "ChIJ123" || !v.Verified {
		t.Fatalf("unexpected external id/verified %q %v", v.ExternalID, v.Verified)
	}
	if v.Rating != 4.4 || v.ReviewCount != 812 {
		t.Fatalf("unexpected reputation %v/%d", v.Rating, v.ReviewCount)
	}
}

func TestVenueRejectsHalfCoordinates(t *testing.T) {
	v := Venue(models.RawRecord{"name": "A", "latitude": 45.1}, scrapedDefaults)
	if v.Latitude != nil || v.Longitude != nil {
		t.Fatal("expected no coordinates")
	}
	v = Venue(models.RawRecord{"name": "A", "latitude": 145.1, "longitude": 10.0}, scrapedDefaults)
	if v.HasLocation() {
		t.Fatal("out of range latitude accepted")
	}
}

func TestMetaDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("é", 300)
	v := Venue(models.RawRecord{"name": "A", "description": long}, scrapedDefaults)
	if n := len([]rune(v.MetaDescription)); n != 160 {
		t.Fatalf("expected 160 runes, got %d", n)
	}
	if v.Description != long {
		t.Fatal("description itself must not be truncated")
	}
}

func TestExtractPhoneAndEmail(t *testing.T) {
	tests := []struct {
		in, phone, email string
	}{
		{"Call 503.555.1234 now", "503.555.1234", ""},
		{"+1 (212) 661-6640", "+1 (212) 661-6640", ""},
		{"write to rink@example.org or 212-336-6100", "212-336-6100", "rink@example.org"},
		{"no contact here", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := ExtractPhone(tt.in); got != tt.phone {
			t.Errorf("ExtractPhone(%q) = %q, want %q", tt.in, got, tt.phone)
		}
		if got := ExtractEmail(tt.in); got != tt.email {
			t.Errorf("ExtractEmail(%q) = %q, want %q", tt.in, got, tt.email)
		}
	}
}

func TestStateCode(t *testing.T) {
	tests := map[string]string{
		"OR":                   "OR",
		"or":                   "OR",
		"Oregon":               "OR",
		"oregon-skateparks":    "OR",
		"northern-california":  "CA",
		"new-york-skateparks":  "NY",
		"District of Columbia": "DC",
		"XX":                   "",
		"Atlantis":             "",
	}
	for in, want := range tests {
		if got := StateCode(in); got != want {
			t.Errorf("StateCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSeedCarriesSourceExtras(t *testing.T) {
	raw := models.RawRecord{
		"name":          "Lakefront Trail",
		"photos":        []any{"https://img.example.com/a.jpg", ""},
		"opening_hours": []any{"Monday: Open 24 hours"},
		"amenities":     []any{"Water Fountains", map[string]any{"type": "facilities", "name": "Restrooms", "available": false}},
	}
	ev := Seed(raw, Defaults{SportType: models.SportInlineSkating})
	if ev.VenueType != models.VenueTypeTrail {
		t.Fatalf("unexpected venue type %q", ev.VenueType)
	}
	if len(ev.Photos) != 1 || ev.Photos[0].Kind != models.PhotoKindURL {
		t.Fatalf("unexpected photos %+v", ev.Photos)
	}
	if len(ev.OpeningHours) != 1 {
		t.Fatalf("unexpected hours %v", ev.OpeningHours)
	}
	if len(ev.Amenities) != 2 || ev.Amenities[1].Available {
		t.Fatalf("unexpected amenities %+v", ev.Amenities)
	}
}

func TestDefaultsFor(t *testing.T) {
	p := &config.ProviderConfig{Verified: true}
	d := DefaultsFor(p, config.Category{SportType: "ice_skating", VenueType: "ice_rink", Discipline: "recreational"})
	if d.SportType != models.SportIceSkating || !d.Verified || d.Country != "US" {
		t.Fatalf("unexpected defaults %+v", d)
	}
}

func TestVenueTypeAliases(t *testing.T) {
	tests := []struct {
		raw  string
		d    Defaults
		want string
	}{
		{"skate_park", scrapedDefaults, models.VenueTypeSkatepark},
		{"Skate Park", scrapedDefaults, models.VenueTypeSkatepark},
		{"ice_skating_rink", scrapedDefaults, models.VenueTypeIceRink},
		{"Ice Arena", scrapedDefaults, models.VenueTypeIceRink},
		{"roller-skating-rink", scrapedDefaults, models.VenueTypeRollerRink},
		{"inline trail", scrapedDefaults, models.VenueTypeTrail},
		{"bowling_alley", scrapedDefaults, models.VenueTypeSkatepark},
		{"", Defaults{SportType: models.SportIceSkating}, models.VenueTypeIceRink},
		{"warehouse", Defaults{SportType: models.SportRollerSkating, VenueType: "roller arena"}, models.VenueTypeRollerRink},
	}
	for _, tt := range tests {
		raw := models.RawRecord{"name": "Somewhere", "venue_type": tt.raw}
		if tt.d.SportType != "" {
			raw["sport_type"] = string(tt.d.SportType)
		}
		if got := Venue(raw, tt.d).VenueType; got != tt.want {
			t.Errorf("venue_type %q: got %q, want %q", tt.raw, got, tt.want)
		}
	}
}
