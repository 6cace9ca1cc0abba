package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/config"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/fetch"
	"github.com/callumw/profile-auditor/internal/observability"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/pipeline"
	"github.com/callumw/profile-auditor/internal/scoring"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full profile audit pipeline end-to-end",
	Long: `Orchestrates the audit: sitemap -> crawl -> parse -> booking -> assessment -> scoring, one profile at a time, persisting state after every stage.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath     string
	runSitemapURL     string
	runProfilePrefix  string
	runBookingBaseURL string
	runBookingKey     string
	runBookingLimit   int
	runLookaheadDays  int
	runScoringConfig  string
	runProfileDelayMS int
	runBookingDelayMS int
	runCrawlTimeout   int
	runAPIKey         string
	runModel          string
	runDatabaseURL    string
	runMaxProfiles    int
	runResumeID       string
	runNoBrowser      bool
	runVerbose        bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVar(&runSitemapURL, "sitemap-url", "", "Sitemap URL listing consultant pages")
	runCommand.Flags().StringVar(&runProfilePrefix, "profile-prefix", "", "URL prefix identifying consultant pages")
	runCommand.Flags().StringVar(&runBookingBaseURL, "booking-base-url", "", "Booking provider API base URL")
	runCommand.Flags().StringVar(&runBookingKey, "booking-key", "", "Booking provider subscription key (defaults to BOOKING_SUBSCRIPTION_KEY env var)")
	runCommand.Flags().IntVar(&runBookingLimit, "booking-limit", 0, "Global concurrent booking requests")
	runCommand.Flags().IntVar(&runLookaheadDays, "lookahead-days", 0, "Clinic-days listing span in days")
	runCommand.Flags().StringVar(&runScoringConfig, "scoring-config", "", "Path to a scoring config JSON (defaults to the built-in v1 ruleset)")
	runCommand.Flags().IntVar(&runProfileDelayMS, "profile-delay-ms", 0, "Politeness delay between profiles")
	runCommand.Flags().IntVar(&runBookingDelayMS, "booking-delay-ms", 0, "Delay between booking calls and the next crawl")
	runCommand.Flags().IntVar(&runCrawlTimeout, "crawl-timeout-sec", 0, "Per-page browser navigation timeout")
	runCommand.Flags().IntVar(&runMaxProfiles, "max-profiles", 0, "Cap on profiles per run (0 = all)")
	runCommand.Flags().StringVar(&runResumeID, "resume", "", "Resume an earlier run by its ID instead of starting fresh")
	runCommand.Flags().BoolVar(&runNoBrowser, "no-browser", false, "Skip headless rendering and use raw HTTP bodies (static mirrors only)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runModel, "model", "", "Assessment model override")

	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("sitemap-url") {
		cfg.SitemapURL = runSitemapURL
	}
	if cmd.Flags().Changed("profile-prefix") {
		cfg.ProfilePrefix = runProfilePrefix
	}
	if cmd.Flags().Changed("booking-base-url") {
		cfg.BookingBaseURL = runBookingBaseURL
	}
	if cmd.Flags().Changed("booking-key") {
		cfg.BookingKey = runBookingKey
	}
	if cmd.Flags().Changed("booking-limit") {
		cfg.BookingLimit = runBookingLimit
	}
	if cmd.Flags().Changed("lookahead-days") {
		cfg.LookaheadDays = runLookaheadDays
	}
	if cmd.Flags().Changed("scoring-config") {
		cfg.ScoringConfig = runScoringConfig
	}
	if cmd.Flags().Changed("profile-delay-ms") {
		cfg.ProfileDelayMS = runProfileDelayMS
	}
	if cmd.Flags().Changed("booking-delay-ms") {
		cfg.BookingDelayMS = runBookingDelayMS
	}
	if cmd.Flags().Changed("crawl-timeout-sec") {
		cfg.CrawlTimeoutSec = runCrawlTimeout
	}
	if cmd.Flags().Changed("max-profiles") {
		cfg.MaxProfiles = runMaxProfiles
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runModel
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		SitemapURL:      "https://www.highgatehospital.co.uk/sitemap.xml",
		ProfilePrefix:   "https://www.highgatehospital.co.uk/consultants/",
		SiteDomain:      "highgatehospital.co.uk",
		CareersHost:     "careers.highgatehospital.co.uk",
		BookingBaseURL:  "https://api.highgatehospital.co.uk",
		BookingLimit:    4,
		LookaheadDays:   180,
		ProfileDelayMS:  2000,
		BookingDelayMS:  1000,
		CrawlTimeoutSec: 45,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Secrets from env when not set explicitly
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.BookingKey == "" {
		cfg.BookingKey = os.Getenv("BOOKING_SUBSCRIPTION_KEY")
	}
	if cfg.BookingKey == "" {
		return fmt.Errorf("BOOKING_SUBSCRIPTION_KEY environment variable or --booking-key flag is required")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	// Step 5: Scoring config
	scoringCfg := scoring.DefaultConfig()
	if cfg.ScoringConfig != "" {
		loaded, err := scoring.LoadConfig(cfg.ScoringConfig)
		if err != nil {
			return err
		}
		scoringCfg = loaded
	}

	// Step 6: Persistence
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	var resumeID uuid.UUID
	if runResumeID != "" {
		resumeID, err = uuid.Parse(runResumeID)
		if err != nil {
			return fmt.Errorf("invalid --resume run ID: %w", err)
		}
		run, err := database.GetRun(ctx, resumeID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run not found: %s", resumeID)
		}
	}

	// Step 7: Discover profiles
	slugs, err := fetch.SitemapSlugs(ctx, cfg.SitemapURL, cfg.ProfilePrefix, fetch.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to list profiles from sitemap: %w", err)
	}
	if cfg.MaxProfiles > 0 && len(slugs) > cfg.MaxProfiles {
		slugs = slugs[:cfg.MaxProfiles]
	}
	if cfg.Verbose {
		fmt.Printf("[VERBOSE] %d profiles from sitemap\n", len(slugs))
	}

	// Step 8: Stage components
	limiter := booking.NewLimiter(int64(cfg.BookingLimit))
	booker := booking.NewClient(booking.Config{
		BaseURL:         cfg.BookingBaseURL,
		SubscriptionKey: cfg.BookingKey,
		LookaheadDays:   cfg.LookaheadDays,
		RetryPolicy:     booking.DefaultRetryPolicy(),
	}, limiter)

	generator, err := assessment.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return err
	}
	assessor := assessment.NewClient(generator, cfg.Verbose)
	defer func() { _ = assessor.Close() }()

	crawler := &pipeline.SiteCrawler{
		ProfileBaseURL: cfg.ProfilePrefix,
		Timeout:        time.Duration(cfg.CrawlTimeoutSec) * time.Second,
		Verbose:        cfg.Verbose,
		DisableBrowser: runNoBrowser,
	}

	summary, err := pipeline.Run(ctx, pipeline.RunOptions{
		Store:         database,
		Crawler:       crawler,
		Booker:        booker,
		Assessor:      assessor,
		ScoringConfig: scoringCfg,
		ParseOptions: &parsing.Options{
			SiteDomain:  cfg.SiteDomain,
			CareersHost: cfg.CareersHost,
		},
		Slugs:        slugs,
		ResumeRunID:  resumeID,
		ProfileDelay: time.Duration(cfg.ProfileDelayMS) * time.Millisecond,
		BookingDelay: time.Duration(cfg.BookingDelayMS) * time.Millisecond,
		Verbose:      cfg.Verbose,
	})
	if err != nil {
		return err
	}

	run, err := database.GetRun(ctx, summary.RunID)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintRunSummary(run)
	return nil
}
