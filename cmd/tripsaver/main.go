// Command tripsaver is the TripSaver client: it plans trips, tracks savings
// against them and keeps the store in sync.
package main

import (
	"os"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/localstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagState   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "tripsaver",
	Short:         "Save towards the trips you plan",
	Long:          "Plan trips, track savings against them and see what to put aside each day, week and month.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	},
	RunE: runStatus,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.ClientConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&flagState, "state", localstore.DefaultPath(), "Local state database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
}
