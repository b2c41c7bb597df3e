package services

import "skaters/models"

// VenueDefaults are the owned rows assigned when a source supplies none.
type VenueDefaults struct {
	Hours     *models.Hours // nil means the venue type has no opening hours
	Pricing   models.Pricing
	Amenities []models.Amenity
}

func standardWeek() *models.Hours {
	weekday := "9:00 AM - 9:00 PM"
	friday := "9:00 AM - 10:00 PM"
	saturday := "10:00 AM - 10:00 PM"
	sunday := "10:00 AM - 9:00 PM"
	return &models.Hours{
		Monday:    &weekday,
		Tuesday:   &weekday,
		Wednesday: &weekday,
		Thursday:  &weekday,
		Friday:    &friday,
		Saturday:  &saturday,
		Sunday:    &sunday,
	}
}

func amenity(typ, name string) models.Amenity {
	return models.Amenity{Type: typ, Name: name, Available: true}
}

// DefaultsFor returns a fresh copy of the defaults for a venue type. Unknown
// types get the generic venue defaults.
func DefaultsFor(venueType string) VenueDefaults {
	switch venueType {
	case models.VenueTypeSkatepark:
		return VenueDefaults{
			Hours:   standardWeek(),
			Pricing: models.Pricing{Admission: "Free", Notes: "Free admission, bring your own equipment"},
			Amenities: []models.Amenity{
				amenity("facilities", "Restrooms"),
				amenity("facilities", "Parking"),
				amenity("features", "Lighting"),
			},
		}
	case models.VenueTypeIceRink, models.VenueTypeRollerRink:
		return VenueDefaults{
			Hours:   standardWeek(),
			Pricing: models.Pricing{Admission: "$10-$15", Rental: "$5", Lessons: "Varies", Notes: "Prices vary by session"},
			Amenities: []models.Amenity{
				amenity("services", "Skate Rentals"),
				amenity("services", "Lessons"),
				amenity("facilities", "Snack Bar"),
			},
		}
	case models.VenueTypeTrail:
		return VenueDefaults{
			Pricing: models.Pricing{Admission: "Free", Notes: "Public trail, free access"},
			Amenities: []models.Amenity{
				amenity("features", "Paved Surface"),
				amenity("features", "Scenic Views"),
			},
		}
	default:
		return VenueDefaults{
			Hours:     standardWeek(),
			Pricing:   models.Pricing{Admission: "Varies", Notes: "Contact venue for pricing"},
			Amenities: []models.Amenity{amenity("facilities", "Parking")},
		}
	}
}
