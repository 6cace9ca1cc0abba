package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/observability"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/pipeline"
	"github.com/callumw/profile-auditor/internal/scoring"
)

var scoreCommand = &cobra.Command{
	Use:   "score",
	Short: "Show scoring results for a run",
	Long:  "Lists every profile's score, tier, and status for a run; --slug shows one profile's full verdict including flags.",
	RunE:  showScoresCmd,
}

var (
	scoreRunID       string
	scoreSlug        string
	scoreDatabaseURL string
	scoreConfigPath  string
)

func init() {
	scoreCommand.Flags().StringVar(&scoreRunID, "run", "", "Run ID (defaults to the most recent run)")
	scoreCommand.Flags().StringVar(&scoreSlug, "slug", "", "Show one profile's full verdict")
	scoreCommand.Flags().StringVar(&scoreDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	scoreCommand.Flags().StringVar(&scoreConfigPath, "scoring-config", "", "Re-score the run's stored profiles with this scoring config before listing")
	rootCmd.AddCommand(scoreCommand)
}

func showScoresCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := scoreDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	var runID uuid.UUID
	if scoreRunID != "" {
		runID, err = uuid.Parse(scoreRunID)
		if err != nil {
			return fmt.Errorf("invalid --run ID: %w", err)
		}
	} else {
		latest, err := database.LatestRun(ctx)
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("no runs found")
		}
		runID = latest.ID
	}

	if scoreConfigPath != "" {
		cfg, err := scoring.LoadConfig(scoreConfigPath)
		if err != nil {
			return err
		}
		count, err := pipeline.Rescore(ctx, database, runID, cfg)
		if err != nil {
			return fmt.Errorf("failed to re-score run %s: %w", runID, err)
		}
		fmt.Printf("Re-scored %d profiles with config %s\n\n", count, cfg.Version)
	}

	if scoreSlug != "" {
		return showProfileVerdict(ctx, database, runID, scoreSlug)
	}

	profiles, err := database.ListProfiles(ctx, runID)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles found for this run.")
		return nil
	}

	fmt.Printf("%-40s  %-12s  %6s  %-10s\n", "SLUG", "STATUS", "SCORE", "TIER")
	for _, p := range profiles {
		score, tier := "-", "-"
		if p.Score != nil {
			score = fmt.Sprintf("%.1f", *p.Score)
		}
		if p.Tier != nil {
			tier = *p.Tier
		}
		fmt.Printf("%-40s  %-12s  %6s  %-10s\n", p.Slug, p.Status, score, tier)
	}
	return nil
}

func showProfileVerdict(ctx context.Context, database *db.DB, runID uuid.UUID, slug string) error {
	profile, err := database.GetProfile(ctx, runID, slug)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile not found: %s", slug)
	}

	printer := observability.NewPrinter(os.Stdout)

	if len(profile.Record) > 0 {
		var record parsing.Record
		if err := json.Unmarshal(profile.Record, &record); err == nil {
			printer.PrintRecord(&record)
		}
	}

	if len(profile.Availability) > 0 {
		var avail booking.Availability
		if err := json.Unmarshal(profile.Availability, &avail); err == nil {
			printer.PrintAvailability(slug, &avail)
		}
	}

	if profile.Score != nil && profile.Tier != nil {
		result := &scoring.Result{Score: *profile.Score, Tier: scoring.Tier(*profile.Tier)}
		if len(profile.Flags) > 0 {
			_ = json.Unmarshal(profile.Flags, &result.Flags)
		}
		printer.PrintScore(slug, result)
	} else {
		fmt.Printf("Profile %s is %s", slug, profile.Status)
		if profile.ErrorMessage != nil {
			fmt.Printf(": %s", *profile.ErrorMessage)
		}
		fmt.Println()
	}
	return nil
}
