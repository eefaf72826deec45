package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/burakseven/takip/internal/app"
	"github.com/burakseven/takip/internal/cloud"
)

var (
	flagDBPath  string
	flagMode    string
	flagCredDir string
)

var rootCmd = &cobra.Command{
	Use:   "takip",
	Short: "Local-first tracking database with Google Sheets replication",
	Long: `takip keeps device, personnel and calibration records in a local
SQLite database and replicates changed rows to Google Sheets when online.

Data lives locally first. Every write lands in SQLite immediately; rows are
marked dirty and pushed to their mapped worksheet later, so the tool keeps
working without a network connection.`,
	SilenceUsage: true,
}

// loadApp builds the application context, applying command-line overrides
// on top of the resolved configuration.
func loadApp() (*app.Context, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagMode != "" {
		cfg.Mode = cloud.Mode(flagMode)
	}
	if flagCredDir != "" {
		cfg.CredentialsDir = flagCredDir
	}
	return app.New(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the local database file")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "adapter mode: online or offline")
	rootCmd.PersistentFlags().StringVar(&flagCredDir, "credentials-dir", "", "directory holding credentials.json and token.json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
