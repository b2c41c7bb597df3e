package storage

import (
	"context"
	"errors"
	"fmt"

	"skaters/models"
)

// ErrDuplicate is returned when a write hits the slug or external_id uniqueness
// constraint, i.e. the venue already exists.
var ErrDuplicate = errors.New("venue already exists")

// VenueTx is the write surface available inside one import transaction.
type VenueTx interface {
	InsertVenue(ctx context.Context, v *models.Venue) (int64, error)
	InsertPhotos(ctx context.Context, venueID int64, photos []models.Photo) error
	InsertHours(ctx context.Context, venueID int64, h *models.Hours) error
	InsertPricing(ctx context.Context, venueID int64, p *models.Pricing) error
	InsertAmenities(ctx context.Context, venueID int64, amenities []models.Amenity) error
}

// VenueStore is implemented by PostgresStore and SQLiteStore.
type VenueStore interface {
	GetVenueByExternalID(ctx context.Context, externalID string) (*models.Venue, error)
	GetVenueBySlug(ctx context.Context, slug string) (*models.Venue, error)
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx VenueTx) error) error
	CountVenues(ctx context.Context) (int, error)
}

// RunStore records import runs and their log lines.
type RunStore interface {
	CreateRun(run *models.ImportRun) (int64, error)
	UpdateRun(run *models.ImportRun) error
	Log(runID *int64, level models.LogLevel, message, source string) error
}

// InsertBundle writes a venue and all of its owned rows in one transaction and
// returns the new venue id.
func InsertBundle(ctx context.Context, s VenueStore, b *models.VenueBundle) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(tx VenueTx) error {
		var err error
		id, err = WriteBundle(ctx, tx, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// WriteBundle performs the inserts of InsertBundle against an open transaction.
func WriteBundle(ctx context.Context, tx VenueTx, b *models.VenueBundle) (int64, error) {
	id, err := tx.InsertVenue(ctx, &b.Venue)
	if err != nil {
		return 0, err
	}
	if len(b.Photos) > 0 {
		if err := tx.InsertPhotos(ctx, id, b.Photos); err != nil {
			return 0, fmt.Errorf("insert photos: %w", err)
		}
	}
	if b.Hours != nil {
		if err := tx.InsertHours(ctx, id, b.Hours); err != nil {
			return 0, fmt.Errorf("insert hours: %w", err)
		}
	}
	if b.Pricing != nil {
		if err := tx.InsertPricing(ctx, id, b.Pricing); err != nil {
			return 0, fmt.Errorf("insert pricing: %w", err)
		}
	}
	if len(b.Amenities) > 0 {
		if err := tx.InsertAmenities(ctx, id, b.Amenities); err != nil {
			return 0, fmt.Errorf("insert amenities: %w", err)
		}
	}
	return id, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
