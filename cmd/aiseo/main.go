package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/aiseo/internal/analytics"
	"github.com/TobiSchelling/aiseo/internal/config"
	"github.com/TobiSchelling/aiseo/internal/database"
	"github.com/TobiSchelling/aiseo/internal/enrich"
	"github.com/TobiSchelling/aiseo/internal/scheduler"
	"github.com/TobiSchelling/aiseo/internal/seed"
	"github.com/TobiSchelling/aiseo/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "aiseo",
	Short:   "Brand visibility in AI search answers",
	Long:    "aiseo records how AI assistants answer buying questions and reports how often, how early, and how favourably each tracked brand appears.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; real environment variables still apply.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Warnf("Error loading .env file: %v", err)
		}

		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			applyVerbose()
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level, err := log.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
		}
		log.SetLevel(level)
		applyVerbose()
		log.Debugf("Loaded config from %s", path)
		return nil
	},
}

func applyVerbose() {
	if verbose {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(promptsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("aiseo", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/aiseo/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure tracked brands, then run 'aiseo seed'.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Printf("  Brands: %d\n", stats.Brands)
		fmt.Printf("  Queries: %d\n", stats.Queries)
		fmt.Printf("  Runs: %d\n", stats.Runs)
		fmt.Printf("  Mentions: %d\n", stats.Mentions)
		fmt.Printf("  Sources: %d (%d domains)\n", stats.Sources, stats.Domains)
		fmt.Printf("  Citations: %d\n", stats.Citations)
		return nil
	},
}

// --- seed command ---

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load recorded AI answers into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ds, err := loadDataset(seedFile)
		if err != nil {
			return err
		}

		res, err := seed.Load(db, ds)
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}

		fmt.Println("Seed complete:")
		fmt.Printf("  New runs: %d\n", res.Runs)
		fmt.Printf("  Already present: %d\n", res.Skipped)
		fmt.Printf("  Mentions: %d\n", res.Mentions)
		fmt.Printf("  Citations: %d\n", res.Citations)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed dataset YAML (defaults to the bundled dataset)")
}

func loadDataset(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return seed.Parse(data)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		srv, err := server.New(newEngine(db), server.Options{AllowedOrigins: cfg.Server.AllowedOrigins})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Enrich.Schedule != "" {
			enricher := newEnricher(db)
			job := scheduler.NewService("enrich", cfg.Enrich.Schedule, func(ctx context.Context) error {
				res, err := enricher.Run(ctx)
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"updated": res.Updated,
					"failed":  res.Failed,
					"skipped": res.Skipped,
				}).Info("Enrichment finished")
				return nil
			})
			if err := job.Start(); err != nil {
				return fmt.Errorf("starting scheduler: %w", err)
			}
			defer job.Stop()
		}

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- enrich command ---

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch titles and descriptions for cited sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Println("Fetching source metadata...")
		res, err := newEnricher(db).Run(ctx)
		if err != nil {
			return err
		}

		fmt.Println("\nEnrichment complete:")
		fmt.Printf("  Updated: %d\n", res.Updated)
		fmt.Printf("  Failed: %d\n", res.Failed)
		fmt.Printf("  Skipped (host failed earlier): %d\n", res.Skipped)
		return nil
	},
}

func newEnricher(db *database.DB) *enrich.Enricher {
	return enrich.New(db, enrich.Options{
		Timeout:   time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second,
		UserAgent: cfg.Enrich.UserAgent,
		BatchSize: cfg.Enrich.BatchSize,
	})
}

func newEngine(db *database.DB) *analytics.Engine {
	a := cfg.Analysis
	return analytics.NewEngine(db, analytics.Options{
		LookbackMonths: a.LookbackMonths,
		TrendBand:      a.TrendBand,
		TopDomains:     a.TopDomains,
		TopSources:     a.TopSources,
		TopPrompts:     a.TopPrompts,
		SourceExamples: a.SourceExamples,
	})
}

// openDB opens the database. On first use the configured brand table is
// stored; later runs leave brands to the API and the brands command.
func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "aiseo.db")
	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}

	existing, err := db.GetAllBrands()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading brands: %w", err)
	}
	if len(existing) > 0 {
		return db, nil
	}

	brands := make([]database.Brand, 0, len(cfg.Brands))
	for _, b := range cfg.Brands {
		brands = append(brands, database.Brand{
			ID:         b.ID,
			Name:       b.Name,
			Type:       b.Type,
			Color:      b.Color,
			Variations: b.Variations,
		})
	}
	added, err := db.EnsureBrands(brands)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storing brands: %w", err)
	}
	log.Infof("Stored %d configured brands", added)
	return db, nil
}
