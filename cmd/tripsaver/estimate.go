package main

import (
	"fmt"
	"strings"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/spf13/cobra"
)

var (
	flagTargetCost   string
	flagTargetSaved  string
	flagTargetReturn string
	flagContinent    string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the cost of a trip",
	Args:  cobra.NoArgs,
	RunE:  runEstimate,
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Work out savings targets without saving a trip",
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

var destinationsCmd = &cobra.Command{
	Use:   "destinations",
	Short: "List destinations known to the estimator",
	Args:  cobra.NoArgs,
	RunE:  runDestinations,
}

func init() {
	estimateCmd.Flags().StringVar(&flagPlanFrom, "from", "London", "Departure city")
	estimateCmd.Flags().StringVar(&flagPlanTo, "to", "", "Destination as \"City, Country\"")
	estimateCmd.Flags().StringVar(&flagPlanStars, "stars", "4", "Hotel star rating")
	estimateCmd.Flags().StringVar(&flagPlanTrans, "transport", "Public Transport", "Local transport")
	estimateCmd.Flags().IntVar(&flagPlanAdults, "adults", 1, "Adults")
	estimateCmd.Flags().IntVar(&flagPlanChildren, "children", 0, "Children")
	estimateCmd.Flags().IntVar(&flagPlanInfants, "infants", 0, "Infants")
	estimateCmd.Flags().StringVar(&flagPlanCabin, "cabin", "economy", "economy, premium-economy, business or first")

	targetsCmd.Flags().StringVar(&flagTargetCost, "cost", "", "Estimated cost")
	targetsCmd.Flags().StringVar(&flagTargetSaved, "saved", "0", "Amount already saved")
	targetsCmd.Flags().StringVar(&flagTargetReturn, "return", "", "Return date (YYYY-MM-DD)")
	_ = targetsCmd.MarkFlagRequired("cost")
	_ = targetsCmd.MarkFlagRequired("return")

	destinationsCmd.Flags().StringVar(&flagContinent, "continent", "", "Only this continent")

	rootCmd.AddCommand(estimateCmd, targetsCmd, destinationsCmd)
}

func runEstimate(_ *cobra.Command, _ []string) error {
	if flagPlanAdults < 0 || flagPlanChildren < 0 || flagPlanInfants < 0 {
		return fmt.Errorf("passenger counts must not be negative")
	}

	b := service.NewCostEstimator().Estimate(service.EstimateInput{
		From:       flagPlanFrom,
		To:         flagPlanTo,
		StarRating: flagPlanStars,
		Transport:  flagPlanTrans,
		FlightDetails: domain.FlightDetails{
			Adults:     flagPlanAdults,
			Children:   flagPlanChildren,
			Infants:    flagPlanInfants,
			CabinClass: flagPlanCabin,
		},
	})

	title := "Estimate"
	if b.Destination != nil {
		title += ": " + b.Destination.Label()
	} else if flagPlanTo != "" {
		title += ": " + flagPlanTo + " (not in catalog)"
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Item", "Cost"},
		Rows: [][]string{
			{"Flights", cli.FormatMoney(b.Flights)},
			{"Accommodation", cli.FormatMoney(b.Accommodation)},
			{"Transport", cli.FormatMoney(b.Transport)},
			{"Misc", cli.FormatMoney(b.Misc)},
			{"---"},
			{"Total", cli.FormatMoney(b.Total)},
		},
	}))
	return nil
}

func runTargets(_ *cobra.Command, _ []string) error {
	cost, err := parseAmount(flagTargetCost)
	if err != nil {
		return err
	}
	saved, err := parseAmount(flagTargetSaved)
	if err != nil {
		return err
	}

	cfg, err := config.LoadClientFrom(flagConfig)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	calc := service.NewSavingsCalculator(loc)

	days, ok := calc.DaysUntilReturn(flagTargetReturn)
	if !ok {
		return fmt.Errorf("%q: %w", flagTargetReturn, domain.ErrInvalidDate)
	}
	targets := calc.Targets(cost, saved, flagTargetReturn)

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Targets",
		Headers: []string{"Period", "Put aside"},
		Rows: [][]string{
			{"Daily", cli.FormatMoney(targets.Daily)},
			{"Weekly", cli.FormatMoney(targets.Weekly)},
			{"Monthly", cli.FormatMoney(targets.Monthly)},
			{"---"},
			{"Remaining", cli.FormatMoney(cost.Sub(saved))},
			{"Days to return", days.StringFixed(2)},
			{"Progress", cli.FormatPercent(service.Progress(saved, cost))},
		},
	}))
	return nil
}

func runDestinations(_ *cobra.Command, _ []string) error {
	dests := service.NewCostEstimator().Destinations(flagContinent)
	if len(dests) == 0 {
		fmt.Println(cli.Muted("  No destinations for " + flagContinent))
		return nil
	}

	rows := make([][]string, 0, len(dests))
	for _, d := range dests {
		popular := ""
		if d.Popular {
			popular = cli.Star(true)
		}
		rows = append(rows, []string{d.Label(), d.Code, d.Continent, cli.FormatMoney(d.BaseCost), popular})
	}
	title := "Destinations"
	if flagContinent != "" {
		title += " in " + strings.TrimSpace(flagContinent)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Destination", "Code", "Continent", "Base fare", ""},
		Rows:    rows,
	}))
	return nil
}
