package scraper

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"skaters/config"
	"skaters/models"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// FixtureHandler serves the bundled sample venues. It never paginates.
type FixtureHandler struct {
	cfg     *config.ProviderConfig
	records []models.RawRecord
}

func NewFixtureHandler(cfg *config.ProviderConfig) (*FixtureHandler, error) {
	records, err := readSampleSet(cfg.Fixture)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", cfg.ID, err)
	}
	return &FixtureHandler{cfg: cfg, records: records}, nil
}

func readSampleSet(name string) ([]models.RawRecord, error) {
	data, err := fixtureFS.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", name, err)
	}
	var doc struct {
		Venues []map[string]any `yaml:"venues"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture %q: %w", name, err)
	}
	out := make([]models.RawRecord, 0, len(doc.Venues))
	for _, v := range doc.Venues {
		out = append(out, models.RawRecord(v))
	}
	return out, nil
}

func (h *FixtureHandler) ID() string {
	return h.cfg.ID
}

// Collect returns the sample venues matching the query location. An empty
// city and state matches everything.
func (h *FixtureHandler) Collect(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	var page Page
	for _, r := range h.records {
		if q.City != "" && !strings.EqualFold(fmt.Sprint(r["city"]), q.City) {
			continue
		}
		if q.State != "" && !strings.EqualFold(fmt.Sprint(r["state"]), q.State) {
			continue
		}
		rec := make(models.RawRecord, len(r)+3)
		for k, v := range r {
			rec[k] = v
		}
		if q.Category.SportType != "" {
			rec["sport_type"] = q.Category.SportType
		}
		if q.Category.VenueType != "" {
			rec["venue_type"] = q.Category.VenueType
		}
		if q.Category.Discipline != "" {
			rec["discipline"] = q.Category.Discipline
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}
