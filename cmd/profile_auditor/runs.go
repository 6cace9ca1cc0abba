package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/callumw/profile-auditor/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	RunE:  listRunsCmd,
}

var (
	runsLimit       int
	runsDatabaseURL string
)

func init() {
	runsCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(runsCommand)
}

func listRunsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := runsDatabaseURL
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

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-8s  %7s  %7s  %6s  %s\n",
		"RUN ID", "STATUS", "CONFIG", "TOTAL", "OK", "ERRORS", "STARTED")
	for _, run := range runs {
		fmt.Printf("%-36s  %-10s  %-8s  %7d  %7d  %6d  %s\n",
			run.ID, run.Status, run.ConfigVersion,
			run.TotalProfiles, run.SuccessCount, run.ErrorCount,
			run.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
