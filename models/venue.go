package models

import (
	"strings"
	"time"
)

// RawRecord is a provider-specific record as returned by a collector.
type RawRecord map[string]any

type SportType string

const (
	SportSkateboarding SportType = "skateboarding"
	SportIceSkating    SportType = "ice_skating"
	SportRollerSkating SportType = "roller_skating"
	SportInlineSkating SportType = "inline_skating"
)

var sportTypes = []SportType{SportSkateboarding, SportIceSkating, SportRollerSkating, SportInlineSkating}

// ParseSportType accepts values like "Ice Skating", "ice-skating" or "ice_skating".
func ParseSportType(s string) (SportType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, st := range sportTypes {
		if string(st) == norm {
			return st, true
		}
	}
	return "", false
}

// DefaultVenueType maps a sport to the venue category it is usually practised at.
func (s SportType) DefaultVenueType() string {
	switch s {
	case SportSkateboarding:
		return VenueTypeSkatepark
	case SportIceSkating:
		return VenueTypeIceRink
	case SportRollerSkating:
		return VenueTypeRollerRink
	case SportInlineSkating:
		return VenueTypeTrail
	default:
		return VenueTypeOther
	}
}

const (
	VenueTypeSkatepark  = "skatepark"
	VenueTypeIceRink    = "ice_rink"
	VenueTypeRollerRink = "roller_rink"
	VenueTypeTrail      = "trail"
	VenueTypeOther      = "venue"
)

type VenueStatus string

const (
	VenueStatusActive   VenueStatus = "active"
	VenueStatusInactive VenueStatus = "inactive"
	VenueStatusPending  VenueStatus = "pending"
)

// Venue is the canonical venue record shared by every provider.
type Venue struct {
	ID         int64     `json:"id,omitempty" db:"id"`
	Name       string    `json:"name" db:"name"`
	Slug       string    `json:"slug" db:"slug"`
	ExternalID string    `json:"external_id,omitempty" db:"external_id"`
	SportType  SportType `json:"sport_type" db:"sport_type"`
	VenueType  string    `json:"venue_type" db:"venue_type"`
	Discipline string    `json:"discipline,omitempty" db:"discipline"`

	Address   string   `json:"address,omitempty" db:"address"`
	City      string   `json:"city" db:"city"`
	State     string   `json:"state" db:"state"`
	ZipCode   string   `json:"zip_code,omitempty" db:"zip_code"`
	Country   string   `json:"country" db:"country"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

	Phone   string `json:"phone,omitempty" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Website string `json:"website,omitempty" db:"website"`

	Description string `json:"description" db:"description"`
	YearOpened  *int   `json:"year_opened,omitempty" db:"year_opened"`

	Rating      float64 `json:"rating" db:"rating"`
	ReviewCount int     `json:"review_count" db:"review_count"`

	MetaTitle       string `json:"meta_title" db:"meta_title"`
	MetaDescription string `json:"meta_description" db:"meta_description"`
	SEOKeywords     string `json:"seo_keywords" db:"seo_keywords"`

	Verified  bool        `json:"verified" db:"verified"`
	Status    VenueStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at,omitempty" db:"created_at"`
}

// HasLocation reports whether both coordinates are known.
func (v *Venue) HasLocation() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// EnrichedVenue is a Venue plus whatever a detail lookup or the source itself added.
type EnrichedVenue struct {
	Venue
	Photos       []PhotoRef `json:"photos,omitempty"`
	OpeningHours []string   `json:"opening_hours,omitempty"` // "Monday: 9:00 AM – 5:00 PM"
	Amenities    []Amenity  `json:"amenities,omitempty"`
}

type Photo struct {
	ID        int64  `json:"id,omitempty" db:"id"`
	VenueID   int64  `json:"venue_id" db:"venue_id"`
	URL       string `json:"url" db:"url"`
	Caption   string `json:"caption" db:"caption"`
	IsPrimary bool   `json:"is_primary" db:"is_primary"`
	Approved  bool   `json:"approved" db:"approved"`
}

// Hours holds one free-text entry per weekday; nil means unknown.
type Hours struct {
	Monday    *string `json:"monday,omitempty" db:"monday"`
	Tuesday   *string `json:"tuesday,omitempty" db:"tuesday"`
	Wednesday *string `json:"wednesday,omitempty" db:"wednesday"`
	Thursday  *string `json:"thursday,omitempty" db:"thursday"`
	Friday    *string `json:"friday,omitempty" db:"friday"`
	Saturday  *string `json:"saturday,omitempty" db:"saturday"`
	Sunday    *string `json:"sunday,omitempty" db:"sunday"`
}

// Day returns a pointer to the field for a weekday name, matched case-insensitively.
func (h *Hours) Day(name string) **string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monday", "mon":
		return &h.Monday
	case "tuesday", "tue", "tues":
		return &h.Tuesday
	case "wednesday", "wed":
		return &h.Wednesday
	case "thursday", "thu", "thurs":
		return &h.Thursday
	case "friday", "fri":
		return &h.Friday
	case "saturday", "sat":
		return &h.Saturday
	case "sunday", "sun":
		return &h.Sunday
	}
	return nil
}

// IsEmpty reports whether no weekday has a value.
func (h *Hours) IsEmpty() bool {
	for _, d := range []*string{h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday} {
		if d != nil {
			return false
		}
	}
	return true
}

type Pricing struct {
	Admission string `json:"admission,omitempty" db:"admission"`
	Rental    string `json:"rental,omitempty" db:"rental"`
	Lessons   string `json:"lessons,omitempty" db:"lessons"`
	Notes     string `json:"notes,omitempty" db:"notes"`
}

type Amenity struct {
	Type      string `json:"type" db:"amenity_type"` // facilities, features, services
	Name      string `json:"name" db:"name"`
	Available bool   `json:"available" db:"available"`
}

// VenueBundle is a venue with every owned row that is written alongside it.
type VenueBundle struct {
	Venue     Venue
	Photos    []Photo
	Hours     *Hours
	Pricing   *Pricing
	Amenities []Amenity
}
