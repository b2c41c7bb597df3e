package services

import (
	"context"
	"fmt"

	"skaters/models"
	"skaters/storage"
)

// Deduplicator decides whether a venue is new to the store. Matching is by
// external id when the venue has one and by slug otherwise; a match is always
// skipped, never merged.
type Deduplicator struct {
	store storage.VenueStore
}

func NewDeduplicator(store storage.VenueStore) *Deduplicator {
	return &Deduplicator{store: store}
}

func (d *Deduplicator) ShouldImport(ctx context.Context, v *models.Venue) (bool, error) {
	existing, err := d.Existing(ctx, v)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// Existing returns the stored venue v duplicates, or nil.
func (d *Deduplicator) Existing(ctx context.Context, v *models.Venue) (*models.Venue, error) {
	if v.ExternalID != "" {
		existing, err := d.store.GetVenueByExternalID(ctx, v.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup external_id %s: %w", v.ExternalID, err)
		}
		return existing, nil
	}
	existing, err := d.store.GetVenueBySlug(ctx, v.Slug)
	if err != nil {
		return nil, fmt.Errorf("lookup slug %s: %w", v.Slug, err)
	}
	return existing, nil
}
