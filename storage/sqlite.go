package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"skaters/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS venues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		external_id TEXT UNIQUE,
		sport_type TEXT NOT NULL,
		venue_type TEXT NOT NULL,
		discipline TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT 'US',
		latitude REAL,
		longitude REAL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		year_opened INTEGER,
		rating REAL NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		seo_keywords TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_venues_city_state ON venues(city, state);

	CREATE TABLE IF NOT EXISTS venue_photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id INTEGER NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS venue_hours (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id INTEGER NOT NULL UNIQUE REFERENCES venues(id) ON DELETE CASCADE,
		monday TEXT,
		tuesday TEXT,
		wednesday TEXT,
		thursday TEXT,
		friday TEXT,
		saturday TEXT,
		sunday TEXT
	);

	CREATE TABLE IF NOT EXISTS venue_pricing (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id INTEGER NOT NULL UNIQUE REFERENCES venues(id) ON DELETE CASCADE,
		admission TEXT NOT NULL DEFAULT '',
		rental TEXT NOT NULL DEFAULT '',
		lessons TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS venue_amenities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id INTEGER NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
		amenity_type TEXT NOT NULL,
		name TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS import_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_key TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		discovered INTEGER DEFAULT 0,
		imported INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER,
		timestamp DATETIME NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		source TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ============================================================================
// Venues
// ============================================================================

const sqliteVenueColumns = `id, name, slug, external_id, sport_type, venue_type, discipline,
	address, city, state, zip_code, country, latitude, longitude, phone, email, website,
	description, year_opened, rating, review_count, meta_title, meta_description, seo_keywords,
	verified, status, created_at`

func (s *SQLiteStore) GetVenueByExternalID(ctx context.Context, externalID string) (*models.Venue, error) {
	if externalID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteVenueColumns+` FROM venues WHERE external_id = ?`, externalID)
	return scanSQLiteVenue(row)
}

func (s *SQLiteStore) GetVenueBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteVenueColumns+` FROM venues WHERE slug = ?`, slug)
	return scanSQLiteVenue(row)
}

func (s *SQLiteStore) CountVenues(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx VenueTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqliteTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapSQLiteError(err))
	}
	return nil
}

func scanSQLiteVenue(row *sql.Row) (*models.Venue, error) {
	var v models.Venue
	var externalID sql.NullString
	var lat, lng sql.NullFloat64
	var year sql.NullInt64
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &externalID, &v.SportType, &v.VenueType, &v.Discipline,
		&v.Address, &v.City, &v.State, &v.ZipCode, &v.Country, &lat, &lng, &v.Phone, &v.Email, &v.Website,
		&v.Description, &year, &v.Rating, &v.ReviewCount, &v.MetaTitle, &v.MetaDescription, &v.SEOKeywords,
		&v.Verified, &v.Status, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.ExternalID = externalID.String
	if lat.Valid && lng.Valid {
		v.Latitude, v.Longitude = &lat.Float64, &lng.Float64
	}
	if year.Valid {
		y := int(year.Int64)
		v.YearOpened = &y
	}
	return &v, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) InsertVenue(ctx context.Context, v *models.Venue) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO venues (name, slug, external_id, sport_type, venue_type, discipline,
			address, city, state, zip_code, country, latitude, longitude, phone, email, website,
			description, year_opened, rating, review_count, meta_title, meta_description, seo_keywords,
			verified, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Slug, nullIfEmpty(v.ExternalID), v.SportType, v.VenueType, v.Discipline,
		v.Address, v.City, v.State, v.ZipCode, v.Country, v.Latitude, v.Longitude, v.Phone, v.Email, v.Website,
		v.Description, v.YearOpened, v.Rating, v.ReviewCount, v.MetaTitle, v.MetaDescription, v.SEOKeywords,
		v.Verified, v.Status, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert venue %s: %w", v.Slug, mapSQLiteError(err))
	}
	return result.LastInsertId()
}

func (t *sqliteTx) InsertPhotos(ctx context.Context, venueID int64, photos []models.Photo) error {
	for i, p := range photos {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO venue_photos (venue_id, url, caption, is_primary, approved, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			venueID, p.URL, p.Caption, p.IsPrimary, p.Approved, i); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func (t *sqliteTx) InsertHours(ctx context.Context, venueID int64, h *models.Hours) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO venue_hours (venue_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		venueID, h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday)
	return mapSQLiteError(err)
}

func (t *sqliteTx) InsertPricing(ctx context.Context, venueID int64, p *models.Pricing) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO venue_pricing (venue_id, admission, rental, lessons, notes)
		VALUES (?, ?, ?, ?, ?)`,
		venueID, p.Admission, p.Rental, p.Lessons, p.Notes)
	return mapSQLiteError(err)
}

func (t *sqliteTx) InsertAmenities(ctx context.Context, venueID int64, amenities []models.Amenity) error {
	for _, a := range amenities {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO venue_amenities (venue_id, amenity_type, name, available)
			VALUES (?, ?, ?, ?)`,
			venueID, a.Type, a.Name, a.Available); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetPhotos(ctx context.Context, venueID int64) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, venue_id, url, caption, is_primary, approved
		FROM venue_photos WHERE venue_id = ? ORDER BY position`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.VenueID, &p.URL, &p.Caption, &p.IsPrimary, &p.Approved); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *SQLiteStore) GetAmenities(ctx context.Context, venueID int64) ([]models.Amenity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amenity_type, name, available FROM venue_amenities WHERE venue_id = ? ORDER BY id`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amenities []models.Amenity
	for rows.Next() {
		var a models.Amenity
		if err := rows.Scan(&a.Type, &a.Name, &a.Available); err != nil {
			return nil, err
		}
		amenities = append(amenities, a)
	}
	return amenities, rows.Err()
}

func (s *SQLiteStore) GetHours(ctx context.Context, venueID int64) (*models.Hours, error) {
	var h models.Hours
	err := s.db.QueryRowContext(ctx, `
		SELECT monday, tuesday, wednesday, thursday, friday, saturday, sunday
		FROM venue_hours WHERE venue_id = ?`, venueID).
		Scan(&h.Monday, &h.Tuesday, &h.Wednesday, &h.Thursday, &h.Friday, &h.Saturday, &h.Sunday)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *SQLiteStore) GetPricing(ctx context.Context, venueID int64) (*models.Pricing, error) {
	var p models.Pricing
	err := s.db.QueryRowContext(ctx, `
		SELECT admission, rental, lessons, notes FROM venue_pricing WHERE venue_id = ?`, venueID).
		Scan(&p.Admission, &p.Rental, &p.Lessons, &p.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// ============================================================================
// Import runs
// ============================================================================

func (s *SQLiteStore) CreateRun(run *models.ImportRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO import_runs (run_key, mode, started_at, status, discovered, imported, skipped, failed, errors)
		VALUES (?, ?, ?, ?, 0, 0, 0, 0, 0)`,
		run.RunKey, run.Mode, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ImportRun) error {
	_, err := s.db.Exec(`
		UPDATE import_runs SET finished_at = ?, status = ?, discovered = ?,
			imported = ?, skipped = ?, failed = ?, errors = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.Discovered, run.Imported,
		run.Skipped, run.Failed, run.Errors, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, source string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message, source)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, source)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.ImportRun, error) {
	var run models.ImportRun
	err := s.db.QueryRow(`
		SELECT id, run_key, mode, started_at, finished_at, status, discovered, imported, skipped, failed, errors
		FROM import_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.RunKey, &run.Mode, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.Discovered, &run.Imported, &run.Skipped, &run.Failed, &run.Errors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
