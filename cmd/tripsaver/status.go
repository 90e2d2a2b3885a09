package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balance, the primary trip and sync state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		s := a.state

		fmt.Println(cli.RenderTitle("TripSaver"))
		fmt.Println()

		who := "not signed in"
		if s.User != nil {
			who = s.User.Email
		}
		mode := "synced"
		switch {
		case !s.SignedIn():
			mode = "local"
		case s.DemoMode:
			mode = "demo (local only)"
		case !a.api.HasToken():
			mode = "signed out of store"
		}

		pending, err := a.store.Queue().Len(ctx)
		if err != nil {
			return err
		}
		synced := "never"
		if at, ok, err := a.store.LastSynced(ctx); err != nil {
			return err
		} else if ok {
			synced = at.Local().Format(time.DateTime)
		}

		rows := [][]string{
			{"Account", who},
			{"Mode", mode},
			{"Balance", cli.Money(s.Balance)},
			{"Goal", cli.Money(s.GoalAmount())},
			{"Active trips", fmt.Sprintf("%d", len(s.Active()))},
			{"Ready to book", fmt.Sprintf("%d", len(s.Completed()))},
			{"---"},
			{"Unsynced changes", fmt.Sprintf("%d", pending)},
			{"Last synced", synced},
		}
		fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))

		primary, ok := s.Primary()
		if !ok {
			fmt.Println()
			fmt.Println(cli.Muted("  No active trip. Plan one with `tripsaver plan`."))
			return nil
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title: "Primary trip: " + primary.Name + " " + cli.Star(primary.IsStarred),
			Rows: [][]string{
				{"Progress", cli.RenderProgressBar(primary.Progress, 20)},
				{"Saved", cli.Money(primary.SavedAmount) + " of " + cli.Money(primary.EstimatedCost)},
				{"Daily", cli.Money(primary.DailyTarget)},
				{"Weekly", cli.Money(primary.WeeklyTarget)},
				{"Monthly", cli.Money(primary.MonthlyTarget)},
				{"Return", returnLabel(a, primary.ReturnDate)},
			},
		}))
		return nil
	})
}

func returnLabel(a *app, date string) string {
	if date == "" {
		return "-"
	}
	return date + " (" + cli.FormatDaysLeft(a.calc.DaysUntil(date)) + ")"
}
