// Package main provides the entry point for the boxscore backend.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boxscore",
	Short: "NBA statistics backend",
	Long:  "Boxscore serves cached NBA statistics over a REST API, refreshing from the upstream stats provider as data goes stale and honoring manual overrides.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
