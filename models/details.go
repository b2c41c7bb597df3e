package models

// PlaceDetails is the rich record returned by a provider detail lookup.
type PlaceDetails struct {
	Name         string
	Phone        string
	Website      string
	OpeningHours []string // "Monday: 9:00 AM – 5:00 PM"
	PhotoRefs    []string
	Rating       float64
	ReviewCount  int
}
