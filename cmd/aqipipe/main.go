package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/aqimet/aqipipe/internal/api/http"
	"github.com/aqimet/aqipipe/internal/collector"
	"github.com/aqimet/aqipipe/internal/config"
	"github.com/aqimet/aqipipe/internal/dashboard"
	"github.com/aqimet/aqipipe/internal/openweather"
	"github.com/aqimet/aqipipe/internal/pipeline"
	"github.com/aqimet/aqipipe/internal/registry"
	"github.com/aqimet/aqipipe/internal/store"
)

const usage = `usage: aqipipe <command> [flags]

commands:
  ingest          fetch one observation and persist its feature row
  collect         run scheduled ingestion for a bounded duration
  backfill        sample the live API repeatedly to build initial history
  seed-synthetic  fill the feature store with generated hourly history
  train           train candidate models and register the best one
  serve           run the dashboard API server
  reset           delete all rows in the feature store
  upload-backup   upload the newest local backup CSV to the feature store
  export          dump the feature history to parquet or csv
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(ctx, cfg, cmd, args); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, cmd string, args []string) error {
	switch cmd {
	case "ingest":
		return runIngest(ctx, cfg)
	case "collect":
		return runCollect(ctx, cfg, args)
	case "backfill":
		return runBackfill(ctx, cfg, args)
	case "seed-synthetic":
		return runSeedSynthetic(ctx, cfg, args)
	case "train":
		return runTrain(ctx, cfg, args)
	case "serve":
		return runServe(ctx, cfg, args)
	case "reset":
		return runReset(ctx, cfg)
	case "upload-backup":
		return runUploadBackup(ctx, cfg, args)
	case "export":
		return runExport(ctx, cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// deps bundles the collaborators the pipeline steps share.
type deps struct {
	store    store.FeatureStore
	registry *registry.FilesystemRegistry
	ingestor *pipeline.Ingestor
	city     pipeline.City
	source   pipeline.ObservationSource
	backup   *store.Backup
}

func buildDeps(cfg *config.AppConfig) (*deps, error) {
	st, err := store.OpenSQLite(cfg.StoreDSN, store.DefaultGroupName, store.DefaultVersion)
	if err != nil {
		return nil, fmt.Errorf("open feature store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	source := openweather.NewClient(httpClient, cfg.OpenWeatherAPIKey)
	backup := store.NewBackup(cfg.DataDir)
	city := pipeline.City{Name: cfg.CityName, Latitude: cfg.CityLatitude, Longitude: cfg.CityLongitude}

	return &deps{
		store:    st,
		registry: registry.NewFilesystemRegistry(cfg.ModelDir, registry.DefaultModelName),
		ingestor: &pipeline.Ingestor{Source: source, Store: st, Backup: backup, City: city},
		city:     city,
		source:   source,
		backup:   backup,
	}, nil
}

func runIngest(ctx context.Context, cfg *config.AppConfig) error {
	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	return d.ingestor.Run(ctx)
}

func runCollect(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	hours := fs.Int("hours", 24, "how long to keep collecting")
	interval := fs.Duration("interval", time.Hour, "delay between collections")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *hours <= 0 {
		return fmt.Errorf("collect hours must be positive, got %d", *hours)
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	c := collector.New(d.ingestor, *interval)
	return c.Run(ctx, time.Duration(*hours)*time.Hour)
}

func runBackfill(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	days := fs.Int("days", 7, "days of history to collect")
	delay := fs.Duration("delay", time.Hour, "delay between samples")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	b := pipeline.Backfiller{Source: d.source, Store: d.store, Backup: d.backup, City: d.city, Delay: *delay}
	return b.Run(ctx, *days)
}

func runSeedSynthetic(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("seed-synthetic", flag.ExitOnError)
	days := fs.Int("days", 7, "days of synthetic history to generate")
	seed := fs.Int64("seed", 0, "generator seed (0 uses the built-in default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	s := pipeline.Synthesizer{Store: d.store, Backup: d.backup, City: d.city, Seed: *seed}
	return s.Run(ctx, *days)
}

func runTrain(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	horizon := fs.Int("horizon", 24, "prediction horizon in hours")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *horizon <= 0 {
		return fmt.Errorf("train horizon must be positive, got %d", *horizon)
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	trainer := pipeline.Trainer{Store: d.store, Registry: d.registry}
	report, err := trainer.Run(ctx, *horizon)
	if err != nil {
		return err
	}
	log.Printf("INFO: training run %s complete: %s saved as version %d", report.RunID, report.BestName, report.Version)
	return nil
}

func runServe(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.Port, "port for the dashboard API")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	service := dashboard.NewService(d.store, d.registry)

	app := fiber.New(fiber.Config{
		AppName:               "aqipipe",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "aqipipe",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: dashboard API listening on :%s", *port)
		if err := app.Listen(":" + *port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func runReset(ctx context.Context, cfg *config.AppConfig) error {
	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	if err := d.store.Delete(ctx); err != nil {
		return err
	}
	if err := d.store.EnsureGroup(ctx); err != nil {
		return err
	}
	log.Printf("INFO: feature store cleared")
	return nil
}

func runUploadBackup(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("upload-backup", flag.ExitOnError)
	prefix := fs.String("prefix", store.BackupPrefixIngest, "backup file prefix to look for")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	path, err := d.backup.Latest(*prefix)
	if err != nil {
		return err
	}
	records, err := d.backup.Read(path)
	if err != nil {
		return err
	}

	if err := d.store.EnsureGroup(ctx); err != nil {
		return err
	}
	if err := d.store.Insert(ctx, records); err != nil {
		return fmt.Errorf("upload backup %s: %w", path, err)
	}
	log.Printf("INFO: uploaded %d records from %s", len(records), path)
	return nil
}

func runExport(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "parquet", "export format: parquet or csv")
	out := fs.String("out", "", "output file path (defaults into the data dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	exporter := pipeline.Exporter{Store: d.store}

	path := *out
	switch *format {
	case "parquet":
		if path == "" {
			path = filepath.Join(cfg.DataDir, "features.parquet")
		}
		return exporter.ExportParquet(ctx, path)
	case "csv":
		if path == "" {
			path = filepath.Join(cfg.DataDir, "features.csv")
		}
		return exporter.ExportCSV(ctx, path)
	default:
		return fmt.Errorf("unknown export format %q (want parquet or csv)", *format)
	}
}
