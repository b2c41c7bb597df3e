package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"skaters/checkpoint"
	"skaters/config"
	"skaters/models"
	"skaters/scheduler"
	"skaters/scraper"
	"skaters/storage"
)

const (
	placesProvider = "google_places"
	htmlProvider   = "concrete_disciples"
	maxBulkCities  = 100
)

var errCancelled = errors.New("cancelled by user")

// --------------------------------------------------------------------------
// mock command
// --------------------------------------------------------------------------

func mockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Import the built-in sample venues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, a *app) error {
				orch, err := a.orchestrator(ctx)
				if err != nil {
					return err
				}
				result, err := orch.RunSources(ctx, models.RunModeMock, a.cfg.ProvidersByHandler(config.HandlerFixture))
				return printResult(cmd.OutOrStdout(), result, err)
			})
		},
	}
}

// --------------------------------------------------------------------------
// scrape command
// --------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var (
		providerID  string
		states      []string
		maxPerState int
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape skateparks from the public directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, a *app) error {
				p, ok := a.cfg.Providers[providerID]
				if !ok || p.Handler != config.HandlerHTML {
					return fmt.Errorf("unknown directory provider %q", providerID)
				}
				if len(states) > 0 {
					p.States = normalizeStates(states)
				}
				if maxPerState > 0 {
					p.MaxResults = maxPerState
				}

				orch, err := a.orchestrator(ctx)
				if err != nil {
					return err
				}
				result, err := orch.RunSources(ctx, models.RunModeScrape, []*config.ProviderConfig{p})
				return printResult(cmd.OutOrStdout(), result, err)
			})
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", htmlProvider, "Directory provider id")
	cmd.Flags().StringSliceVar(&states, "states", nil, "State codes to scrape, e.g. OR,CA")
	cmd.Flags().IntVar(&maxPerState, "max-per-state", 0, "Maximum parks per state page (0 uses the provider setting)")
	return cmd
}

func normalizeStates(states []string) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// --------------------------------------------------------------------------
// bulk command
// --------------------------------------------------------------------------

func bulkCmd() *cobra.Command {
	var (
		cities int
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Collect venues for the largest cities from the places API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, a *app) error {
				if err := a.cfg.RequirePlacesKey(); err != nil {
					return err
				}
				p, ok := a.cfg.Providers[placesProvider]
				if !ok {
					return fmt.Errorf("provider %s is not configured", placesProvider)
				}

				n := clampCities(cities, a.cfg.Batch.MaxCities)
				out := cmd.OutOrStdout()
				printEstimate(out, n, len(p.Categories))
				if !yes {
					ok, err := confirm(cmd.InOrStdin(), out, "Proceed? (yes/no): ")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}

				return runBulk(ctx, a, p, n, out)
			})
		},
	}
	cmd.Flags().IntVar(&cities, "cities", 0, "Number of cities to process, 1-100 (0 uses MAX_CITIES)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runBulk(ctx context.Context, a *app, p *config.ProviderConfig, n int, out io.Writer) error {
	cp, err := a.checkpointStore(ctx)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}
	result, err := orch.RunBatch(ctx, p, a.cfg.FirstCities(n), cp)
	return printResult(out, result, err)
}

// clampCities resolves the --cities flag to 1-100, falling back to the
// configured default when unset.
func clampCities(requested, fallback int) int {
	n := requested
	if n == 0 {
		n = fallback
	}
	if n < 1 {
		n = 1
	}
	if n > maxBulkCities {
		n = maxBulkCities
	}
	return n
}

func printEstimate(w io.Writer, cities, categories int) {
	fmt.Fprintf(w, "This will use your places API quota.\n")
	fmt.Fprintf(w, "Cities:           %d (%d searches each)\n", cities, categories)
	fmt.Fprintf(w, "Estimated venues: %d+\n", cities*50)
	fmt.Fprintf(w, "Estimated cost:   $%.2f - $%.2f\n", float64(cities)*0.50, float64(cities)*1.00)
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// checkpointStore returns the local checkpoint, mirrored to object storage
// when a bucket is configured.
func (a *app) checkpointStore(ctx context.Context) (checkpoint.Store, error) {
	var store checkpoint.Store = checkpoint.NewFileStore(a.cfg.Checkpoint.Path)
	if a.cfg.Checkpoint.S3Bucket == "" {
		return store, nil
	}

	uploader, err := a.s3(ctx, a.cfg.Checkpoint.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("checkpoint mirror: %w", err)
	}
	key := a.cfg.Checkpoint.S3Prefix + filepath.Base(a.cfg.Checkpoint.Path)
	log.Printf("Mirroring checkpoint to s3://%s/%s", a.cfg.Checkpoint.S3Bucket, key)
	return checkpoint.NewS3Mirror(store, uploader, key), nil
}

// --------------------------------------------------------------------------
// import command
// --------------------------------------------------------------------------

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import venues from a saved checkpoint or results file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, a *app) error {
				if file == "" {
					file = a.cfg.Checkpoint.Path
				}
				data, err := a.readDocument(ctx, file)
				if err != nil {
					return err
				}
				progress, err := checkpoint.Decode(data)
				if err != nil {
					return fmt.Errorf("decode %s: %w", file, err)
				}
				log.Printf("Loaded %d venues from %s", len(progress.Venues), file)

				orch, err := a.orchestrator(ctx)
				if err != nil {
					return err
				}
				result, err := orch.RunImport(ctx, progress.Venues)
				return printResult(cmd.OutOrStdout(), result, err)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Checkpoint path or s3://bucket/key (default CHECKPOINT_PATH)")
	return cmd
}

func (a *app) readDocument(ctx context.Context, location string) ([]byte, error) {
	bucket, key, ok := storage.ParseS3URL(location)
	if !ok {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	uploader, err := a.s3(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return uploader.Download(ctx, key)
}

// --------------------------------------------------------------------------
// schedule command
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	var (
		cities int
		now    bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run bulk collection on SCHEDULE_CRON until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, a *app) error {
				if err := a.cfg.RequirePlacesKey(); err != nil {
					return err
				}
				p, ok := a.cfg.Providers[placesProvider]
				if !ok {
					return fmt.Errorf("provider %s is not configured", placesProvider)
				}
				n := clampCities(cities, a.cfg.Batch.MaxCities)
				out := cmd.OutOrStdout()

				sched := scheduler.New(a.cfg.Scheduler.Cron, func(ctx context.Context) error {
					return runBulk(ctx, a, p, n, out)
				})
				if err := sched.Start(ctx); err != nil {
					return err
				}
				if now {
					if err := sched.TriggerNow(ctx); err != nil {
						log.Printf("Initial run error: %v", err)
					}
				}

				log.Println("Scheduler running. Press Ctrl+C to stop.")
				<-ctx.Done()

				log.Println("Shutting down...")
				sched.Stop()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&cities, "cities", 0, "Number of cities per run, 1-100 (0 uses MAX_CITIES)")
	cmd.Flags().BoolVar(&now, "now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

// printResult writes the run summary. A run cut short by an interrupt still
// prints what it finished.
func printResult(w io.Writer, result *scraper.BatchResult, err error) error {
	if result != nil {
		fmt.Fprint(w, result.Summary())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errCancelled
		}
		return err
	}
	return nil
}
