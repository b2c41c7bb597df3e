package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"skaters/models"
)

//go:embed schema/postgres.sql
var postgresSchema string

const pgUniqueViolation = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate creates the venue tables and their uniqueness constraints.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// =============================================================================
// Venues
// =============================================================================

const pgVenueColumns = `id, name, slug, external_id, sport_type, venue_type, discipline,
	address, city, state, zip_code, country, latitude, longitude, phone, email, website,
	description, year_opened, rating, review_count, meta_title, meta_description, seo_keywords,
	verified, status, created_at`

func (s *PostgresStore) GetVenueByExternalID(ctx context.Context, externalID string) (*models.Venue, error) {
	if externalID == "" {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, `SELECT `+pgVenueColumns+` FROM venues WHERE external_id = $1`, externalID)
	return scanPgVenue(row)
}

func (s *PostgresStore) GetVenueBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgVenueColumns+` FROM venues WHERE slug = $1`, slug)
	return scanPgVenue(row)
}

func (s *PostgresStore) CountVenues(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n)
	return n, err
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx VenueTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", mapPgError(err))
	}
	return nil
}

func scanPgVenue(row pgx.Row) (*models.Venue, error) {
	var v models.Venue
	var externalID *string
	var sportType, status string
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &externalID, &sportType, &v.VenueType, &v.Discipline,
		&v.Address, &v.City, &v.State, &v.ZipCode, &v.Country, &v.Latitude, &v.Longitude, &v.Phone, &v.Email, &v.Website,
		&v.Description, &v.YearOpened, &v.Rating, &v.ReviewCount, &v.MetaTitle, &v.MetaDescription, &v.SEOKeywords,
		&v.Verified, &status, &v.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if externalID != nil {
		v.ExternalID = *externalID
	}
	v.SportType = models.SportType(sportType)
	v.Status = models.VenueStatus(status)
	return &v, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) InsertVenue(ctx context.Context, v *models.Venue) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO venues (name, slug, external_id, sport_type, venue_type, discipline,
			address, city, state, zip_code, country, latitude, longitude, phone, email, website,
			description, year_opened, rating, review_count, meta_title, meta_description, seo_keywords,
			verified, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)
		RETURNING id`,
		v.Name, v.Slug, nullIfEmpty(v.ExternalID), string(v.SportType), v.VenueType, v.Discipline,
		v.Address, v.City, v.State, v.ZipCode, v.Country, v.Latitude, v.Longitude, v.Phone, v.Email, v.Website,
		v.Description, v.YearOpened, v.Rating, v.ReviewCount, v.MetaTitle, v.MetaDescription, v.SEOKeywords,
		v.Verified, string(v.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert venue %s: %w", v.Slug, mapPgError(err))
	}
	return id, nil
}

func (t *pgTx) InsertPhotos(ctx context.Context, venueID int64, photos []models.Photo) error {
	batch := &pgx.Batch{}
	for i, p := range photos {
		batch.Queue(`
			INSERT INTO venue_photos (venue_id, url, caption, is_primary, approved, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			venueID, p.URL, p.Caption, p.IsPrimary, p.Approved, i)
	}
	return t.sendBatch(ctx, batch)
}

func (t *pgTx) InsertHours(ctx context.Context, venueID int64, h *models.Hours) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO venue_hours (venue_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		venueID, h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday)
	return mapPgError(err)
}

func (t *pgTx) InsertPricing(ctx context.Context, venueID int64, p *models.Pricing) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO venue_pricing (venue_id, admission, rental, lessons, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		venueID, p.Admission, p.Rental, p.Lessons, p.Notes)
	return mapPgError(err)
}

func (t *pgTx) InsertAmenities(ctx context.Context, venueID int64, amenities []models.Amenity) error {
	batch := &pgx.Batch{}
	for _, a := range amenities {
		batch.Queue(`
			INSERT INTO venue_amenities (venue_id, amenity_type, name, available)
			VALUES ($1, $2, $3, $4)`,
			venueID, a.Type, a.Name, a.Available)
	}
	return t.sendBatch(ctx, batch)
}

func (t *pgTx) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := t.tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return mapPgError(err)
		}
	}
	return br.Close()
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
