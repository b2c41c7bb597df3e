package checkpoint

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"skaters/config"
	"skaters/models"
)

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "progress.json"))
	p, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.CompletedCities) != 0 || len(p.Venues) != 0 {
		t.Fatalf("expected empty progress, got %+v", p)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "progress.json"))

	p := &Progress{RunKey: "run-1"}
	portland := config.City{Name: "Portland", State: "OR"}
	p.MarkCompleted(portland, []models.EnrichedVenue{{
		Venue:  models.Venue{Name: "Pier Park", Slug: "pier-park-portland-or", City: "Portland", State: "OR", ExternalID: "place-9"},
		Photos: []models.PhotoRef{models.ProviderPhoto("ref-1")},
	}})
	p.MarkCompleted(portland, nil)
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunKey != "run-1" || len(got.CompletedCities) != 1 || len(got.Venues) != 1 {
		t.Fatalf("unexpected progress %+v", got)
	}
	if !got.IsCompleted(config.City{Name: "portland", State: "or"}) {
		t.Fatal("city lookup should ignore case")
	}
	if got.IsCompleted(config.City{Name: "Seattle", State: "WA"}) {
		t.Fatal("unexpected completed city")
	}
	v := got.Venues[0]
	if v.ExternalID != "place-9" || len(v.Photos) != 1 || v.Photos[0].Kind != models.PhotoKindReference {
		t.Fatalf("venue not preserved: %+v", v)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStoreSaveKeepsOldFileOnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.json")
	s := NewFileStore(path)

	p := &Progress{}
	p.MarkCompleted(config.City{Name: "Austin", State: "TX"}, nil)
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	broken := NewFileStore(filepath.Join(dir, "missing-dir", "progress.json"))
	if err := broken.Save(ctx, p); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}

	got, err := s.Load(ctx)
	if err != nil || !got.IsCompleted(config.City{Name: "Austin", State: "TX"}) {
		t.Fatalf("original checkpoint damaged: %+v %v", got, err)
	}
}

func TestDecodeLegacyArray(t *testing.T) {
	legacy := `[
	  {"name": "Skateland", "city": "Austin", "state": "TX", "google_place_id": "abc",
	   "sport_type": "roller_skating", "venue_type": "roller_rink",
	   "photos": ["https://maps.googleapis.com/maps/api/place/photo?maxwidth=1600&photoreference=REF1&key=SECRET"],
	   "opening_hours": ["Monday: 6:00 – 10:00 PM"]},
	  {"name": "House of Payne", "city": "Austin", "state": "TX", "google_place_id": "def"},
	  {"name": "Wollman Rink", "city": "New York", "state": "NY"}
	]`
	p, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Venues) != 3 {
		t.Fatalf("expected 3 venues, got %d", len(p.Venues))
	}
	if len(p.CompletedCities) != 2 {
		t.Fatalf("expected 2 completed cities, got %v", p.CompletedCities)
	}
	v := p.Venues[0]
	if v.ExternalID != "abc" || !v.Verified || v.VenueType != models.VenueTypeRollerRink {
		t.Fatalf("unexpected venue %+v", v.Venue)
	}
	if len(v.Photos) != 1 || v.Photos[0] != models.ProviderPhoto("REF1") {
		t.Fatalf("photo key not stripped: %+v", v.Photos)
	}
	if len(v.OpeningHours) != 1 {
		t.Fatalf("hours lost: %v", v.OpeningHours)
	}
}

func TestDecodeEmpty(t *testing.T) {
	p, err := Decode([]byte("  \n"))
	if err != nil || p == nil {
		t.Fatalf("Decode: %v %v", p, err)
	}
}

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	f.keys = append(f.keys, key)
	return f.err
}

func TestS3MirrorUploadsAfterSave(t *testing.T) {
	ctx := context.Background()
	up := &fakeUploader{err: errors.New("offline")}
	m := NewS3Mirror(NewFileStore(filepath.Join(t.TempDir(), "p.json")), up, "checkpoints/p.json")

	if err := m.Save(ctx, &Progress{}); err != nil {
		t.Fatalf("upload failure must not fail the save: %v", err)
	}
	if len(up.keys) != 1 || up.keys[0] != "checkpoints/p.json" {
		t.Fatalf("unexpected uploads %v", up.keys)
	}
	if _, err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
