// paircodectl runs maintenance jobs against the PairCode stores.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"paircode/internal/app"
	"paircode/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "paircodectl",
	Short: "PairCode maintenance CLI",
	Long: `paircodectl talks to the same MongoDB and Redis as the server.

  paircodectl advance-expired     Advance rooms whose phase timer ran out
  paircodectl seed-tasks          Insert the bundled sample tasks
  paircodectl rooms               List active rooms and their timers`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads configuration and connects to the stores
func openApp(ctx context.Context) (*app.App, *config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("Warning: could not load %s, using environment", envFile)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}
