package services

import (
	"context"
	"errors"
	"log"

	"skaters/models"
	"skaters/normalize"
)

// ErrBudgetExhausted is returned by a metered fetcher once its call budget for
// the run is spent.
var ErrBudgetExhausted = errors.New("places API call budget exhausted")

// DetailsFetcher performs the per-venue detail lookup of a provider.
type DetailsFetcher interface {
	Details(ctx context.Context, externalID string) (*models.PlaceDetails, error)
}

// Enricher merges a provider detail lookup into a venue. Lookup failures
// degrade to an unenriched venue. Only a spent call budget or a cancelled
// context is returned.
type Enricher struct {
	fetcher   DetailsFetcher
	maxPhotos int
}

func NewEnricher(fetcher DetailsFetcher, maxPhotos int) *Enricher {
	return &Enricher{fetcher: fetcher, maxPhotos: maxPhotos}
}

// Enrich returns a copy of ev with detail fields filled in. Venues without an
// external id are returned as given.
func (e *Enricher) Enrich(ctx context.Context, ev models.EnrichedVenue) (models.EnrichedVenue, error) {
	if e == nil || e.fetcher == nil || ev.ExternalID == "" {
		return ev, nil
	}

	d, err := e.fetcher.Details(ctx, ev.ExternalID)
	if err != nil {
		if errors.Is(err, ErrBudgetExhausted) {
			return ev, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ev, ctxErr
		}
		log.Printf("Warning: details for %s (%s) unavailable: %v", ev.Name, ev.ExternalID, err)
		return ev, nil
	}
	if d == nil {
		return ev, nil
	}

	out := ev
	if phone := normalize.ExtractPhone(d.Phone); phone != "" {
		out.Phone = phone
	}
	if d.Website != "" {
		out.Website = d.Website
	}
	if d.Rating > 0 && d.Rating <= 5 {
		out.Rating = d.Rating
	}
	if d.ReviewCount > 0 {
		out.ReviewCount = d.ReviewCount
	}
	if len(d.OpeningHours) > 0 {
		out.OpeningHours = append([]string(nil), d.OpeningHours...)
	}

	refs := d.PhotoRefs
	if e.maxPhotos > 0 && len(refs) > e.maxPhotos {
		refs = refs[:e.maxPhotos]
	}
	if len(refs) > 0 {
		photos := make([]models.PhotoRef, 0, len(refs))
		for _, ref := range refs {
			photos = append(photos, models.ProviderPhoto(ref))
		}
		out.Photos = photos
	}
	return out, nil
}
