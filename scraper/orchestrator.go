package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"skaters/checkpoint"
	"skaters/config"
	"skaters/httputil"
	"skaters/models"
	"skaters/normalize"
	"skaters/services"
	"skaters/storage"
)

// Orchestrator drives collection, enrichment and import for a run. It works
// through one query at a time; pacing between calls is fixed.
type Orchestrator struct {
	cfg      *config.Config
	handlers map[string]Handler
	importer *services.Importer
	dedup    *services.Deduplicator
	runs     storage.RunStore
	sleep    httputil.Sleeper

	run *models.ImportRun
}

func NewOrchestrator(cfg *config.Config, store storage.VenueStore, runs storage.RunStore, deps Deps) (*Orchestrator, error) {
	handlers := make(map[string]Handler)
	for id, p := range cfg.Providers {
		h, err := NewHandler(p, deps)
		if err != nil {
			return nil, err
		}
		handlers[id] = h
	}

	return &Orchestrator{
		cfg:      cfg,
		handlers: handlers,
		importer: services.NewImporter(store),
		dedup:    services.NewDeduplicator(store),
		runs:     runs,
		sleep:    httputil.SleepContext,
	}, nil
}

// SetHandler replaces the handler used for a provider.
func (o *Orchestrator) SetHandler(id string, h Handler) {
	o.handlers[id] = h
}

func (o *Orchestrator) Handler(id string) (Handler, bool) {
	h, ok := o.handlers[id]
	return h, ok
}

// SetSleeper replaces the pause used between pages, details and categories.
func (o *Orchestrator) SetSleeper(s httputil.Sleeper) {
	o.sleep = s
}

// Close releases handler resources such as a running browser.
func (o *Orchestrator) Close() {
	for _, h := range o.handlers {
		if hh, ok := h.(*HTMLHandler); ok {
			if bf, ok := hh.fetcher.(*BrowserFetcher); ok {
				bf.Close()
			}
		}
	}
}

// RunSources imports every listing query of the given providers: each
// category, once per configured state or once with no location.
func (o *Orchestrator) RunSources(ctx context.Context, mode models.RunMode, providers []*config.ProviderConfig) (*BatchResult, error) {
	result := o.startRun(mode)
	defer o.finishRun(result)

	for _, p := range providers {
		h, ok := o.handlers[p.ID]
		if !ok {
			o.log(models.LogLevelError, p.ID, "no handler for provider")
			result.Stats.Errors++
			continue
		}
		resetMeter(h)

		states := p.States
		if len(states) == 0 {
			states = []string{""}
		}
		for _, state := range states {
			for _, cat := range p.Categories {
				q := Query{State: state, Category: cat}
				o.log(models.LogLevelInfo, p.ID, fmt.Sprintf("Collecting %s", q))
				_, stats, err := o.collectAndImport(ctx, h, p, q)
				result.Stats.Merge(stats)
				if err != nil {
					if ctx.Err() != nil {
						result.Status = models.RunStatusFailed
						return result, ctx.Err()
					}
					o.log(models.LogLevelError, p.ID, fmt.Sprintf("%s: %v", q, err))
					result.Stats.Errors++
				}
			}
		}
	}
	return result, nil
}

// RunBatch walks cities in order against one provider, skipping the cities the
// checkpoint already records. Each finished city is saved to the checkpoint
// before the next one starts, so an interrupted batch resumes where it
// stopped.
func (o *Orchestrator) RunBatch(ctx context.Context, provider *config.ProviderConfig, cities []config.City, cp checkpoint.Store) (*BatchResult, error) {
	h, ok := o.handlers[provider.ID]
	if !ok {
		return nil, fmt.Errorf("no handler for provider %s", provider.ID)
	}

	progress, err := cp.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	result := o.startRun(models.RunModeBulk)
	defer o.finishRun(result)
	resetMeter(h)
	if fs, ok := cp.(interface{ Path() string }); ok {
		result.CheckpointPath = fs.Path()
	}
	if progress.RunKey == "" {
		progress.RunKey = result.RunKey
	}

	for _, city := range cities {
		result.setCity(city, models.CityPending, nil)
	}

	for i, city := range cities {
		if err := ctx.Err(); err != nil {
			result.Status = models.RunStatusFailed
			return result, err
		}
		if progress.IsCompleted(city) {
			result.setCity(city, models.CityCompleted, nil)
			o.log(models.LogLevelInfo, provider.ID, fmt.Sprintf("[%d/%d] %s already completed, skipping", i+1, len(cities), city))
			continue
		}

		result.setCity(city, models.CityInProgress, nil)
		o.log(models.LogLevelInfo, provider.ID, fmt.Sprintf("[%d/%d] Processing %s", i+1, len(cities), city))

		venues, stats, err := o.runCity(ctx, h, provider, city)
		result.Stats.Merge(stats)
		if err != nil {
			result.setCity(city, models.CityFailed, err)
			if ctx.Err() != nil {
				result.Status = models.RunStatusFailed
				return result, ctx.Err()
			}
			o.log(models.LogLevelError, provider.ID, fmt.Sprintf("%s failed: %v", city, err))
			result.Stats.Errors++
			if errors.Is(err, ErrBudgetExhausted) {
				o.log(models.LogLevelWarn, provider.ID, "API call budget spent, stopping batch")
				break
			}
			continue
		}

		progress.MarkCompleted(city, venues)
		if err := cp.Save(ctx, progress); err != nil {
			result.setCity(city, models.CityFailed, err)
			o.log(models.LogLevelError, provider.ID, fmt.Sprintf("%s: checkpoint save failed: %v", city, err))
			result.Stats.Errors++
			continue
		}
		result.setCity(city, models.CityCompleted, nil)
		o.log(models.LogLevelInfo, provider.ID, fmt.Sprintf("%s completed: %d found, %d imported, %d skipped, %d failed",
			city, stats.Discovered, stats.Imported, stats.Skipped, stats.Failed))
	}

	if m, ok := h.(meteredHandler); ok {
		result.APICalls = m.Calls()
	}
	return result, nil
}

// meteredHandler is implemented by handlers that count paid calls.
type meteredHandler interface {
	Calls() int
	ResetCalls()
}

func resetMeter(h Handler) {
	if m, ok := h.(meteredHandler); ok {
		m.ResetCalls()
	}
}

// RunImport imports venues that were collected earlier, e.g. from a saved
// checkpoint. No provider is contacted.
func (o *Orchestrator) RunImport(ctx context.Context, venues []models.EnrichedVenue) (*BatchResult, error) {
	result := o.startRun(models.RunModeImport)
	defer o.finishRun(result)

	for _, ev := range venues {
		if err := ctx.Err(); err != nil {
			result.Status = models.RunStatusFailed
			return result, err
		}
		result.Stats.Discovered++
		res := o.importer.ImportVenue(ctx, ev)
		o.record(&result.Stats, "import", ev, res)
	}
	return result, nil
}

// runCity collects every category of the provider for one city. A panic in a
// handler fails the city instead of the batch.
func (o *Orchestrator) runCity(ctx context.Context, h Handler, p *config.ProviderConfig, city config.City) (venues []models.EnrichedVenue, stats models.ImportStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	for i, cat := range p.Categories {
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.Batch.CategoryDelay); err != nil {
				return venues, stats, err
			}
		}
		q := Query{City: city.Name, State: city.State, Category: cat}
		found, catStats, err := o.collectAndImport(ctx, h, p, q)
		venues = append(venues, found...)
		stats.Merge(catStats)
		if err != nil {
			return venues, stats, err
		}
	}
	return venues, stats, nil
}

// collectAndImport runs the per-venue pipeline over all pages of one query and
// returns the venues it saw. Venues already stored are skipped before the
// detail lookup so no paid call is spent on them.
func (o *Orchestrator) collectAndImport(ctx context.Context, h Handler, p *config.ProviderConfig, q Query) ([]models.EnrichedVenue, models.ImportStats, error) {
	var stats models.ImportStats

	maxResults := p.MaxResults
	if p.Handler == config.HandlerPlaces && o.cfg.Batch.MaxResultsPerCity > 0 {
		maxResults = o.cfg.Batch.MaxResultsPerCity
	}
	records, collectErr := CollectAll(ctx, h, q, CollectOptions{
		PageDelay:  p.PageDelay(o.cfg.Batch.PageDelay),
		MaxResults: maxResults,
		MaxPages:   p.MaxPages,
		Sleep:      o.sleep,
	})
	stats.Discovered = len(records)

	var enricher *services.Enricher
	if df, ok := h.(services.DetailsFetcher); ok {
		enricher = services.NewEnricher(df, o.cfg.Batch.MaxPhotos)
	}

	defaults := normalize.DefaultsFor(p, q.Category)
	venues := make([]models.EnrichedVenue, 0, len(records))
	for _, raw := range records {
		if err := ctx.Err(); err != nil {
			return venues, stats, err
		}

		ev := normalize.Seed(raw, defaults)
		isNew, err := o.dedup.ShouldImport(ctx, &ev.Venue)
		if err != nil {
			venues = append(venues, ev)
			o.record(&stats, p.ID, ev, models.ImportResult{Outcome: models.OutcomeFailed, Err: err})
			continue
		}
		if !isNew {
			venues = append(venues, ev)
			o.record(&stats, p.ID, ev, models.ImportResult{Outcome: models.OutcomeSkipped})
			continue
		}

		if enricher != nil && ev.ExternalID != "" {
			enriched, err := enricher.Enrich(ctx, ev)
			if err != nil {
				return venues, stats, err
			}
			ev = enriched
			if err := o.sleep(ctx, o.cfg.Batch.DetailDelay); err != nil {
				return venues, stats, err
			}
		}
		venues = append(venues, ev)
		o.record(&stats, p.ID, ev, o.importer.ImportVenue(ctx, ev))
	}
	return venues, stats, collectErr
}

func (o *Orchestrator) record(stats *models.ImportStats, source string, ev models.EnrichedVenue, res models.ImportResult) {
	stats.Add(res)
	switch res.Outcome {
	case models.OutcomeImported:
		log.Printf("Imported %s (%s, %s)", ev.Name, ev.City, ev.State)
	case models.OutcomeSkipped:
		log.Printf("Skipped %s: already exists", ev.Name)
	case models.OutcomeFailed:
		o.log(models.LogLevelError, source, fmt.Sprintf("Import failed for %s: %v", ev.Name, res.Err))
	}
}

func (o *Orchestrator) startRun(mode models.RunMode) *BatchResult {
	result := &BatchResult{
		RunKey:    uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	o.run = &models.ImportRun{
		RunKey:    result.RunKey,
		Mode:      mode,
		StartedAt: result.StartedAt,
		Status:    models.RunStatusRunning,
	}
	if o.runs != nil {
		id, err := o.runs.CreateRun(o.run)
		if err != nil {
			log.Printf("Warning: failed to create run record: %v", err)
		} else {
			o.run.ID = id
		}
	}
	o.log(models.LogLevelInfo, string(mode), fmt.Sprintf("Starting %s run %s", mode, result.RunKey))
	return result
}

func (o *Orchestrator) finishRun(result *BatchResult) {
	now := time.Now()
	result.FinishedAt = now
	if result.Status == models.RunStatusRunning {
		result.Status = models.RunStatusCompleted
	}

	s := result.Stats
	o.log(models.LogLevelInfo, string(result.Mode), fmt.Sprintf("Finished: %d found, %d imported, %d skipped, %d failed",
		s.Discovered, s.Imported, s.Skipped, s.Failed))

	if o.run != nil && o.runs != nil && o.run.ID != 0 {
		o.run.FinishedAt = &now
		o.run.Status = result.Status
		o.run.Discovered = s.Discovered
		o.run.Imported = s.Imported
		o.run.Skipped = s.Skipped
		o.run.Failed = s.Failed
		o.run.Errors = s.Errors
		if err := o.runs.UpdateRun(o.run); err != nil {
			log.Printf("Warning: failed to update run record: %v", err)
		}
	}
	o.run = nil
}

func (o *Orchestrator) log(level models.LogLevel, source, message string) {
	log.Printf("[%s] %s: %s", level, source, message)
	if o.runs == nil {
		return
	}
	var runID *int64
	if o.run != nil && o.run.ID != 0 {
		runID = &o.run.ID
	}
	o.runs.Log(runID, level, message, source)
}
