// Command skaters collects skating venues from sample data, a public
// directory and the places API, and imports them into the venue database.
//
// Usage:
//
//	skaters mock
//	skaters scrape --states OR,CA --max-per-state 20
//	skaters bulk --cities 10
//	skaters import --file google_maps_venues.json
//	skaters schedule
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"skaters/config"
	"skaters/httputil"
	"skaters/logging"
	"skaters/scraper"
	"skaters/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	root := &cobra.Command{
		Use:           "skaters",
		Short:         "Skating venue data acquisition pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(mockCmd())
	root.AddCommand(scrapeCmd())
	root.AddCommand(bulkCmd())
	root.AddCommand(importCmd())
	root.AddCommand(scheduleCmd())

	if err := root.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// app holds what a command needs once configuration is loaded. Stores and the
// orchestrator are opened on first use so commands can fail on flags or
// credentials before touching the database.
type app struct {
	cfg *config.Config

	venues  storage.VenueStore
	runs    *storage.SQLiteStore
	orch    *scraper.Orchestrator
	closers []func()
}

func runWith(fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Printf("Loaded %d providers, %d cities", len(cfg.Providers), len(cfg.Cities))

	a := &app{cfg: cfg}
	defer a.close()
	return fn(ctx, a)
}

// orchestrator opens the stores and builds the orchestrator from the current
// provider configuration.
func (a *app) orchestrator(ctx context.Context) (*scraper.Orchestrator, error) {
	if a.orch != nil {
		return a.orch, nil
	}

	runs, err := storage.NewSQLiteStore(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	a.closers = append(a.closers, func() { runs.Close() })
	a.runs = runs
	log.Printf("SQLite database: %s", a.cfg.DBPath)

	if a.cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(a.cfg.DatabaseURL))
		a.venues = pg
	} else {
		a.venues = runs
	}

	orch, err := scraper.NewOrchestrator(a.cfg, a.venues, runs, scraper.Deps{
		Clients:  httputil.NewClients(a.cfg),
		Retry:    httputil.RetryPolicyFromConfig(a.cfg.Retry),
		APIKey:   a.cfg.PlacesAPIKey,
		QPS:      a.cfg.PlacesQPS,
		MaxCalls: a.cfg.Batch.MaxAPICalls,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, orch.Close)
	a.orch = orch
	return orch, nil
}

func (a *app) s3(ctx context.Context, bucket string) (*storage.S3Uploader, error) {
	return storage.NewS3Uploader(ctx, storage.S3Config{
		Bucket:          bucket,
		Region:          a.cfg.S3.Region,
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
