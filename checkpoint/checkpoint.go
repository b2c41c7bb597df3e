// Package checkpoint persists batch progress so an interrupted run resumes from
// the first city it had not finished.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"skaters/config"
	"skaters/models"
	"skaters/normalize"
)

// Legacy documents were produced by the paid places run.
var legacyDefaults = normalize.Defaults{Country: "US", Verified: true}

// Progress is the document written after every completed city.
type Progress struct {
	RunKey          string                 `json:"run_key,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
	CompletedCities []config.City          `json:"completed_cities"`
	Venues          []models.EnrichedVenue `json:"venues"`

	done map[string]bool
}

func (p *Progress) index() {
	if p.done != nil {
		return
	}
	p.done = make(map[string]bool, len(p.CompletedCities))
	for _, c := range p.CompletedCities {
		p.done[c.Key()] = true
	}
}

func (p *Progress) IsCompleted(c config.City) bool {
	p.index()
	return p.done[c.Key()]
}

// MarkCompleted records a city as finished and appends the venues found there.
func (p *Progress) MarkCompleted(c config.City, venues []models.EnrichedVenue) {
	p.index()
	if !p.done[c.Key()] {
		p.CompletedCities = append(p.CompletedCities, c)
		p.done[c.Key()] = true
	}
	p.Venues = append(p.Venues, venues...)
}

type Store interface {
	Load(ctx context.Context) (*Progress, error)
	Save(ctx context.Context, p *Progress) error
}

// FileStore keeps the progress document in a local JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns empty progress when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) (*Progress, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Progress{}, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", s.path, err)
	}
	return p, nil
}

// Save replaces the file atomically: the document is written to a temp file in
// the same directory, synced, then renamed over the old one.
func (s *FileStore) Save(ctx context.Context, p *Progress) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Decode parses a progress document. A bare JSON array of venues, as written by
// older runs, is accepted too: its records are normalized and the completed
// cities are derived from them.
func Decode(data []byte) (*Progress, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Progress{}, nil
	}

	if trimmed[0] == '[' {
		var records []models.RawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode legacy venue list: %w", err)
		}
		p := &Progress{}
		p.index()
		for _, raw := range records {
			v := normalize.Seed(raw, legacyDefaults)
			p.Venues = append(p.Venues, v)
			c := config.City{Name: v.City, State: v.State}
			if c.Name == "" || p.done[c.Key()] {
				continue
			}
			p.CompletedCities = append(p.CompletedCities, c)
			p.done[c.Key()] = true
		}
		return p, nil
	}

	var p Progress
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}
