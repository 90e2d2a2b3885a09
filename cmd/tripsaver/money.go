package main

import (
	"context"
	"fmt"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/planner"
	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save <amount>",
	Short: "Add savings; the primary trip receives them",
	Args:  cobra.ExactArgs(1),
	RunE:  runSave,
}

var balanceCmd = &cobra.Command{
	Use:   "balance [amount]",
	Short: "Show or set the balance; the change goes to the primary trip",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(saveCmd, balanceCmd)
}

func runSave(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		before, hadPrimary := a.state.Primary()
		if err := a.apply(ctx, planner.AddSavings{Amount: amount}); err != nil {
			return err
		}
		fmt.Printf("  Balance is now %s\n", cli.Money(a.state.Balance))
		reportAttribution(a, before, hadPrimary)
		return nil
	})
}

func runBalance(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return withApp(func(ctx context.Context, a *app) error {
			fmt.Printf("  Balance %s\n", cli.Money(a.state.Balance))
			return nil
		})
	}

	balance, err := parseAmount(args[0])
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		before, hadPrimary := a.state.Primary()
		if err := a.apply(ctx, planner.SetBalance{Balance: balance}); err != nil {
			return err
		}
		fmt.Printf("  Balance set to %s\n", cli.Money(a.state.Balance))
		reportAttribution(a, before, hadPrimary)
		return nil
	})
}

// reportAttribution shows how the primary trip moved
func reportAttribution(a *app, before domain.Trip, hadPrimary bool) {
	if !hadPrimary {
		fmt.Println(cli.Muted("  No active trip to attribute savings to"))
		return
	}
	after, ok := a.state.Trip(before.ID)
	if !ok {
		return
	}
	fmt.Printf("  %s: %s -> %s saved, %s\n",
		after.Name,
		cli.FormatMoney(before.SavedAmount),
		cli.Money(after.SavedAmount),
		cli.RenderProgressBar(after.Progress, 20))
	if after.IsCompleted() {
		fmt.Println(cli.Muted("  Fully funded and ready to book"))
	}
}
