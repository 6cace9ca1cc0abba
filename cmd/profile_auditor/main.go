// Package main provides the entry point for the profile auditor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile_auditor",
	Short: "Consultant profile quality pipeline",
	Long:  "Profile Auditor crawls consultant profile pages, reconciles them with the booking API and an AI quality assessment, and computes a completeness score, tier, and flags per profile.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
