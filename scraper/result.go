package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"skaters/config"
	"skaters/models"
)

type CityResult struct {
	City   config.City
	Status models.CityStatus
	Err    error
}

// BatchResult reports what a run did. Cities keeps the order the run was given.
type BatchResult struct {
	RunKey         string
	Mode           models.RunMode
	Status         models.RunStatus
	StartedAt      time.Time
	FinishedAt     time.Time
	Cities         []CityResult
	Stats          models.ImportStats
	CheckpointPath string
	APICalls       int

	index map[string]int
}

func (r *BatchResult) setCity(c config.City, status models.CityStatus, err error) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[c.Key()]; ok {
		r.Cities[i].Status = status
		r.Cities[i].Err = err
		return
	}
	r.index[c.Key()] = len(r.Cities)
	r.Cities = append(r.Cities, CityResult{City: c, Status: status, Err: err})
}

// CityStatus returns the status of a city, or pending when it is not part of
// the run.
func (r *BatchResult) CityStatus(c config.City) models.CityStatus {
	if i, ok := r.index[c.Key()]; ok {
		return r.Cities[i].Status
	}
	return models.CityPending
}

// Count returns how many cities ended in the given status.
func (r *BatchResult) Count(status models.CityStatus) int {
	n := 0
	for _, c := range r.Cities {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Summary renders the run totals and, for batch runs, a per-city table.
func (r *BatchResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s) %s in %s\n", r.RunKey, r.Mode, r.Status,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "  Discovered: %d\n", r.Stats.Discovered)
	fmt.Fprintf(&b, "  Imported:   %d\n", r.Stats.Imported)
	fmt.Fprintf(&b, "  Skipped:    %d\n", r.Stats.Skipped)
	fmt.Fprintf(&b, "  Failed:     %d\n", r.Stats.Failed)
	if r.Stats.Errors > 0 {
		fmt.Fprintf(&b, "  Errors:     %d\n", r.Stats.Errors)
	}
	if r.APICalls > 0 {
		fmt.Fprintf(&b, "  API calls:  %d\n", r.APICalls)
	}
	if r.CheckpointPath != "" {
		fmt.Fprintf(&b, "  Checkpoint: %s\n", r.CheckpointPath)
	}
	if len(r.Cities) == 0 {
		return b.String()
	}

	width := runewidth.StringWidth("City")
	for _, c := range r.Cities {
		if w := runewidth.StringWidth(c.City.String()); w > width {
			width = w
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n", runewidth.FillRight("City", width), "Status")
	for _, c := range r.Cities {
		line := fmt.Sprintf("  %s  %s", runewidth.FillRight(c.City.String(), width), c.Status)
		if c.Err != nil {
			line += "  " + runewidth.Truncate(c.Err.Error(), 60, "...")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
