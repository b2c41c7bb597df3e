package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skaters/models"
	"skaters/storage"
)

const placeholderPhotoURL = "https://picsum.photos/seed/%s/800/600"

// Importer persists enriched venues, one transaction per venue.
type Importer struct {
	store storage.VenueStore
	dedup *Deduplicator
}

func NewImporter(store storage.VenueStore) *Importer {
	return &Importer{store: store, dedup: NewDeduplicator(store)}
}

// ImportVenue writes ev with its photos, hours, pricing and amenities. Nothing
// is written when ev duplicates a stored venue or when any insert fails.
func (imp *Importer) ImportVenue(ctx context.Context, ev models.EnrichedVenue) models.ImportResult {
	ok, err := imp.dedup.ShouldImport(ctx, &ev.Venue)
	if err != nil {
		return models.ImportResult{Outcome: models.OutcomeFailed, Err: err}
	}
	if !ok {
		return models.ImportResult{Outcome: models.OutcomeSkipped}
	}

	bundle := BuildBundle(ev)
	id, err := storage.InsertBundle(ctx, imp.store, bundle)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.ImportResult{Outcome: models.OutcomeSkipped}
		}
		return models.ImportResult{Outcome: models.OutcomeFailed, Err: fmt.Errorf("import %s: %w", ev.Slug, err)}
	}
	return models.ImportResult{Outcome: models.OutcomeImported, VenueID: id}
}

// BuildBundle assembles the rows written for a venue, filling in the defaults
// of its venue type wherever the source supplied nothing.
func BuildBundle(ev models.EnrichedVenue) *models.VenueBundle {
	defaults := DefaultsFor(ev.VenueType)

	b := &models.VenueBundle{
		Venue:     ev.Venue,
		Photos:    buildPhotos(ev),
		Pricing:   &defaults.Pricing,
		Amenities: ev.Amenities,
	}

	if hours := ParseOpeningHours(ev.OpeningHours); hours != nil {
		b.Hours = hours
	} else {
		b.Hours = defaults.Hours
	}
	if len(b.Amenities) == 0 {
		b.Amenities = defaults.Amenities
	}
	return b
}

func buildPhotos(ev models.EnrichedVenue) []models.Photo {
	if len(ev.Photos) == 0 {
		return []models.Photo{{
			URL:       fmt.Sprintf(placeholderPhotoURL, ev.Slug),
			Caption:   ev.Name + " - Main view",
			IsPrimary: true,
			Approved:  true,
		}}
	}
	photos := make([]models.Photo, 0, len(ev.Photos))
	for i, ref := range ev.Photos {
		photos = append(photos, models.Photo{
			URL:       ref.StorageURL(),
			Caption:   fmt.Sprintf("%s photo %d", ev.Name, i+1),
			IsPrimary: i == 0,
			Approved:  true,
		})
	}
	return photos
}

// ParseOpeningHours reads "Day: text" lines into weekday hours. It returns nil
// when no line names a weekday.
func ParseOpeningHours(lines []string) *models.Hours {
	h := &models.Hours{}
	for _, line := range lines {
		day, text, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field := h.Day(day)
		text = strings.TrimSpace(text)
		if field == nil || text == "" {
			continue
		}
		*field = &text
	}
	if h.IsEmpty() {
		return nil
	}
	return h
}
