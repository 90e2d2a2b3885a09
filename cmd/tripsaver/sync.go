package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagWatch time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push unsynced changes, then reload from the store",
	Long:  "Push unsynced changes in order. When nothing is left pending the local copy is refreshed from the store. With --watch the outbox is flushed in the background until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().DurationVar(&flagWatch, "watch", 0, "Keep flushing at this interval")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if a.state.DemoMode || !a.api.HasToken() {
			return fmt.Errorf("demo mode: run `tripsaver login` to sync")
		}

		if flagWatch > 0 {
			return watch(ctx, a)
		}

		res, err := a.push(ctx, outbox.DefaultFlusherConfig().TriesPerFlush)
		fmt.Printf("  Pushed %d change(s)", res.Sent)
		if res.Dropped > 0 {
			fmt.Printf(", discarded %d the store would not accept", res.Dropped)
		}
		fmt.Println()
		if err != nil {
			fmt.Println(cli.Warn(fmt.Sprintf("  %d change(s) still pending", res.Pending)))
			return err
		}

		if err := a.pull(ctx); err != nil {
			return err
		}
		fmt.Printf("  Loaded %d trip(s), balance %s\n", len(a.state.Trips), cli.Money(a.state.Balance))
		return nil
	})
}

func watch(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("  Flushing every %s, Ctrl-C to stop\n", flagWatch)
	flusher := outbox.NewFlusher(a.store.Queue(), a.api, log.Logger, outbox.DefaultFlusherConfig())
	err := flusher.Run(ctx, flagWatch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
