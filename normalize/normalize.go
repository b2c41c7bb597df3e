// Package normalize maps provider records onto the canonical venue schema.
// Every function here is pure and never fails: missing or malformed input
// degrades to defaults.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"skaters/config"
	"skaters/identity"
	"skaters/models"
)

const (
	fallbackName       = "Unknown Venue"
	metaDescriptionMax = 160
	siteName           = "Skaters.com"
)

// Defaults are the values a provider implies for fields its records omit.
type Defaults struct {
	SportType  models.SportType
	VenueType  string
	Discipline string
	Country    string
	Verified   bool
}

// DefaultsFor derives normalizer defaults for one provider category.
func DefaultsFor(p *config.ProviderConfig, c config.Category) Defaults {
	d := Defaults{
		VenueType:  c.VenueType,
		Discipline: c.Discipline,
		Country:    "US",
		Verified:   p.Verified,
	}
	if st, ok := models.ParseSportType(c.SportType); ok {
		d.SportType = st
	}
	return d
}

// Venue turns a raw provider record into a canonical venue.
func Venue(raw models.RawRecord, d Defaults) models.Venue {
	v := models.Venue{
		Name:       CleanText(str(raw, "name", "title")),
		ExternalID: strings.TrimSpace(str(raw, "external_id", "google_place_id", "place_id")),
		Address:    CleanText(str(raw, "address", "street_address")),
		City:       CleanText(str(raw, "city")),
		State:      StateCode(str(raw, "state", "state_code")),
		ZipCode:    CleanText(str(raw, "zip_code", "zip", "postal_code")),
		Country:    strings.ToUpper(CleanText(str(raw, "country"))),
		Website:    strings.TrimSpace(str(raw, "website", "url")),
		Discipline: CleanText(str(raw, "discipline")),
		Verified:   d.Verified,
		Status:     models.VenueStatusActive,
	}
	if v.Name == "" {
		v.Name = fallbackName
	}
	if v.Country == "" {
		v.Country = d.Country
	}
	if v.Country == "" {
		v.Country = "US"
	}
	if v.Discipline == "" {
		v.Discipline = d.Discipline
	}

	v.SportType = sportType(raw, d)
	v.VenueType = venueType(raw, d, v.SportType)

	description := CleanText(str(raw, "description", "summary"))
	v.Phone = firstNonEmpty(ExtractPhone(str(raw, "phone", "formatted_phone_number")), ExtractPhone(description))
	v.Email = firstNonEmpty(ExtractEmail(str(raw, "email")), ExtractEmail(description))
	if description == "" {
		description = fallbackDescription(v)
	}
	v.Description = description

	lat, latOK := float(raw, "latitude", "lat")
	lng, lngOK := float(raw, "longitude", "lng", "lon")
	if latOK && lngOK && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 {
		v.Latitude, v.Longitude = &lat, &lng
	}

	if year, ok := float(raw, "year_opened"); ok && year >= 1800 && year <= 2100 {
		y := int(year)
		v.YearOpened = &y
	}
	if rating, ok := float(raw, "rating"); ok && rating >= 0 && rating <= 5 {
		v.Rating = rating
	}
	if count, ok := float(raw, "review_count", "user_ratings_total"); ok && count > 0 {
		v.ReviewCount = int(count)
	}

	v.Slug = identity.Slug(v.Name, v.City, v.State)
	if v.Slug == "" {
		v.Slug = "venue-" + identity.Fingerprint(v.Name, v.City, v.State, v.ExternalID)
	}

	v.MetaTitle = metaTitle(v)
	v.MetaDescription = Truncate(v.Description, metaDescriptionMax)
	v.SEOKeywords = joinNonEmpty(", ", string(v.SportType), v.VenueType, v.City, v.State)
	return v
}

// Seed normalizes raw and carries over any photos, hours and amenities the
// source itself supplied, ready for enrichment.
func Seed(raw models.RawRecord, d Defaults) models.EnrichedVenue {
	return models.EnrichedVenue{
		Venue:        Venue(raw, d),
		Photos:       Photos(raw),
		OpeningHours: strList(raw, "opening_hours"),
		Amenities:    Amenities(raw),
	}
}

// Photos reads photo URLs from the "photos" field.
func Photos(raw models.RawRecord) []models.PhotoRef {
	var out []models.PhotoRef
	for _, u := range strList(raw, "photos") {
		out = append(out, models.ParsePhotoRef(u))
	}
	return out
}

// Amenities reads scraped amenities, given either as names or as
// {type, name, available} objects.
func Amenities(raw models.RawRecord) []models.Amenity {
	items, ok := raw["amenities"].([]any)
	if !ok {
		return nil
	}
	var out []models.Amenity
	for _, item := range items {
		switch it := item.(type) {
		case string:
			if name := CleanText(it); name != "" {
				out = append(out, models.Amenity{Type: "features", Name: name, Available: true})
			}
		case map[string]any:
			m := models.RawRecord(it)
			name := CleanText(str(m, "name"))
			if name == "" {
				continue
			}
			a := models.Amenity{Type: firstNonEmpty(CleanText(str(m, "type")), "features"), Name: name, Available: true}
			if avail, ok := it["available"].(bool); ok {
				a.Available = avail
			}
			out = append(out, a)
		}
	}
	return out
}

func sportType(raw models.RawRecord, d Defaults) models.SportType {
	if st, ok := models.ParseSportType(str(raw, "sport_type", "sport")); ok {
		return st
	}
	if d.SportType != "" {
		return d.SportType
	}
	return models.SportSkateboarding
}

// venueTypeAliases maps provider spellings onto the canonical venue types.
var venueTypeAliases = map[string]string{
	"skatepark":           models.VenueTypeSkatepark,
	"skate_park":          models.VenueTypeSkatepark,
	"skateboard_park":     models.VenueTypeSkatepark,
	"skate_plaza":         models.VenueTypeSkatepark,
	"ice_rink":            models.VenueTypeIceRink,
	"ice_skating_rink":    models.VenueTypeIceRink,
	"ice_arena":           models.VenueTypeIceRink,
	"ice_skating":         models.VenueTypeIceRink,
	"roller_rink":         models.VenueTypeRollerRink,
	"roller_skating_rink": models.VenueTypeRollerRink,
	"roller_arena":        models.VenueTypeRollerRink,
	"roller_skating":      models.VenueTypeRollerRink,
	"trail":               models.VenueTypeTrail,
	"inline_trail":        models.VenueTypeTrail,
	"skating_trail":       models.VenueTypeTrail,
	"bike_path":           models.VenueTypeTrail,
	"greenway":            models.VenueTypeTrail,
}

// venueType resolves the record's venue type to a canonical one. Unknown
// spellings fall back to the provider default, then to the sport's usual type.
func venueType(raw models.RawRecord, d Defaults, st models.SportType) string {
	if vt, ok := canonicalVenueType(str(raw, "venue_type")); ok {
		return vt
	}
	if vt, ok := canonicalVenueType(d.VenueType); ok {
		return vt
	}
	return st.DefaultVenueType()
}

func canonicalVenueType(s string) (string, bool) {
	key := strings.ToLower(CleanText(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	vt, ok := venueTypeAliases[key]
	return vt, ok
}

func fallbackDescription(v models.Venue) string {
	label := strings.ReplaceAll(v.VenueType, "_", " ")
	if loc := joinNonEmpty(", ", v.City, v.State); loc != "" {
		return fmt.Sprintf("%s is a %s in %s.", v.Name, label, loc)
	}
	return fmt.Sprintf("%s is a %s.", v.Name, label)
}

func metaTitle(v models.Venue) string {
	if loc := joinNonEmpty(", ", v.City, v.State); loc != "" {
		return fmt.Sprintf("%s | %s | %s", v.Name, loc, siteName)
	}
	return fmt.Sprintf("%s | %s", v.Name, siteName)
}

// str returns the first key holding a usable scalar, rendered as a string.
func str(raw models.RawRecord, keys ...string) string {
	for _, k := range keys {
		switch val := raw[k].(type) {
		case string:
			if val != "" {
				return val
			}
		case json.Number:
			return val.String()
		case int:
			return strconv.Itoa(val)
		case int64:
			return strconv.FormatInt(val, 10)
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

func float(raw models.RawRecord, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch val := raw[k].(type) {
		case float64:
			return val, true
		case float32:
			return float64(val), true
		case int:
			return float64(val), true
		case int64:
			return float64(val), true
		case json.Number:
			if f, err := val.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func strList(raw models.RawRecord, key string) []string {
	var out []string
	switch val := raw[key].(type) {
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
