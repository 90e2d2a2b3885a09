package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/planner"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagSort string

	flagPlanName     string
	flagPlanFrom     string
	flagPlanTo       string
	flagPlanStars    string
	flagPlanTrans    string
	flagPlanTravel   string
	flagPlanReturn   string
	flagPlanCost     string
	flagPlanAdults   int
	flagPlanChildren int
	flagPlanInfants  int
	flagPlanCabin    string

	flagStar   bool
	flagUnstar bool
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "List trips with their savings targets",
	Args:  cobra.NoArgs,
	RunE:  runTrips,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip and start saving for it",
	Long:  "Plan a trip. Without --cost the estimate for the destination, party and cabin is used.",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

var progressCmd = &cobra.Command{
	Use:   "progress <trip-id> <percent>",
	Short: "Set a trip's progress directly",
	Args:  cobra.ExactArgs(2),
	RunE:  runProgress,
}

var priorityCmd = &cobra.Command{
	Use:   "priority <trip-id> <1-3>",
	Short: "Set a trip's priority (1 high, 3 low)",
	Args:  cobra.ExactArgs(2),
	RunE:  runPriority,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <trip-id>",
	Short: "Delete a trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	tripsCmd.Flags().StringVarP(&flagSort, "sort", "s", string(domain.SortByPriority), "Order by priority, date, progress or cost")

	planCmd.Flags().StringVar(&flagPlanName, "name", "", "Trip name (default \"{stars} Star Trip - {city}\")")
	planCmd.Flags().StringVar(&flagPlanFrom, "from", "London", "Departure city")
	planCmd.Flags().StringVar(&flagPlanTo, "to", "", "Destination as \"City, Country\"")
	planCmd.Flags().StringVar(&flagPlanStars, "stars", "4", "Hotel star rating")
	planCmd.Flags().StringVar(&flagPlanTrans, "transport", "Public Transport", "Local transport")
	planCmd.Flags().StringVar(&flagPlanTravel, "travel", "", "Travel date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&flagPlanReturn, "return", "", "Return date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&flagPlanCost, "cost", "", "Estimated cost (estimated when omitted)")
	planCmd.Flags().IntVar(&flagPlanAdults, "adults", 1, "Adults")
	planCmd.Flags().IntVar(&flagPlanChildren, "children", 0, "Children")
	planCmd.Flags().IntVar(&flagPlanInfants, "infants", 0, "Infants")
	planCmd.Flags().StringVar(&flagPlanCabin, "cabin", "economy", "economy, premium-economy, business or first")

	priorityCmd.Flags().BoolVar(&flagStar, "star", false, "Star the trip")
	priorityCmd.Flags().BoolVar(&flagUnstar, "unstar", false, "Unstar the trip")
	priorityCmd.MarkFlagsMutuallyExclusive("star", "unstar")

	rootCmd.AddCommand(tripsCmd, planCmd, progressCmd, priorityCmd, deleteCmd)
}

func runTrips(_ *cobra.Command, _ []string) error {
	key := domain.SortKey(flagSort)
	switch key {
	case domain.SortByPriority, domain.SortByDate, domain.SortByProgress, domain.SortByCost:
	default:
		return fmt.Errorf("unknown sort %q (priority, date, progress or cost)", flagSort)
	}

	return withApp(func(ctx context.Context, a *app) error {
		trips := a.state.Sorted(key)
		if len(trips) == 0 {
			fmt.Println(cli.Muted("  No trips yet. Plan one with `tripsaver plan --to \"Paris, France\"`."))
			return nil
		}
		fmt.Print(renderTrips(a, "Trips by "+string(key), trips))
		return nil
	})
}

func renderTrips(a *app, title string, trips []domain.Trip) string {
	primaryID := int64(-1)
	if primary, ok := a.state.Primary(); ok {
		primaryID = primary.ID
	}

	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		name := cli.Truncate(t.Name, 28)
		if t.ID == primaryID {
			name = "▸ " + name
		}
		if t.IsStarred {
			name += " " + cli.Star(true)
		}
		rows = append(rows, []string{
			name,
			strconv.FormatInt(t.ID, 10),
			cli.FormatPriority(t.Priority),
			cli.FormatMoney(t.SavedAmount),
			cli.FormatMoney(t.EstimatedCost),
			cli.FormatPercent(t.Progress),
			cli.FormatMoney(t.DailyTarget),
			cli.FormatMoney(t.WeeklyTarget),
			cli.FormatMoney(t.MonthlyTarget),
			returnLabel(a, t.ReturnDate),
		})
	}

	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Trip", "ID", "Priority", "Saved", "Cost", "Progress", "Daily", "Weekly", "Monthly", "Return"},
		Rows:    rows,
	})
}

func runPlan(_ *cobra.Command, _ []string) error {
	if flagPlanTo == "" && flagPlanName == "" {
		return fmt.Errorf("--to or --name is required")
	}
	if flagPlanAdults < 0 || flagPlanChildren < 0 || flagPlanInfants < 0 {
		return fmt.Errorf("passenger counts must not be negative")
	}

	flight := &domain.FlightDetails{
		Adults:     flagPlanAdults,
		Children:   flagPlanChildren,
		Infants:    flagPlanInfants,
		CabinClass: flagPlanCabin,
	}

	cost := decimal.Zero
	if flagPlanCost != "" {
		c, err := parseAmount(flagPlanCost)
		if err != nil {
			return err
		}
		cost = c
	} else {
		estimate := service.NewCostEstimator().Estimate(service.EstimateInput{
			From:          flagPlanFrom,
			To:            flagPlanTo,
			StarRating:    flagPlanStars,
			Transport:     flagPlanTrans,
			FlightDetails: *flight,
		})
		cost = estimate.Total
	}

	return withApp(func(ctx context.Context, a *app) error {
		err := a.apply(ctx, planner.CreateTrip{
			Name:          flagPlanName,
			From:          flagPlanFrom,
			To:            flagPlanTo,
			StarRating:    flagPlanStars,
			Transport:     flagPlanTrans,
			TravelDate:    flagPlanTravel,
			ReturnDate:    flagPlanReturn,
			EstimatedCost: cost,
			FlightDetails: flight,
		})
		if err != nil {
			return err
		}
		trip := a.state.Trips[len(a.state.Trips)-1]
		fmt.Print(renderTrips(a, "Planned", []domain.Trip{trip}))
		return nil
	})
}

func runProgress(_ *cobra.Command, args []string) error {
	id, err := parseTripID(args[0])
	if err != nil {
		return err
	}
	pct, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("%q: %w", args[1], domain.ErrInvalidProgress)
	}

	return withApp(func(ctx context.Context, a *app) error {
		if err := a.apply(ctx, planner.SetProgress{TripID: id, Progress: pct}); err != nil {
			return err
		}
		return printTrip(a, id)
	})
}

func runPriority(_ *cobra.Command, args []string) error {
	id, err := parseTripID(args[0])
	if err != nil {
		return err
	}
	priority, err := strconv.Atoi(args[1])
	if err != nil || !domain.ValidPriority(priority) {
		return domain.ErrInvalidPriority
	}

	var starred *bool
	switch {
	case flagStar:
		starred = &flagStar
	case flagUnstar:
		v := false
		starred = &v
	}

	return withApp(func(ctx context.Context, a *app) error {
		if err := a.apply(ctx, planner.SetPriority{TripID: id, Priority: priority, Starred: starred}); err != nil {
			return err
		}
		return printTrip(a, id)
	})
}

func runDelete(_ *cobra.Command, args []string) error {
	id, err := parseTripID(args[0])
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		trip, ok := a.state.Trip(id)
		if err := a.apply(ctx, planner.DeleteTrip{TripID: id}); err != nil {
			return err
		}
		if ok {
			fmt.Printf("  Deleted %s\n", trip.Name)
		} else {
			fmt.Printf("  No local trip %d; delete sent to the store\n", id)
		}
		return nil
	})
}

func printTrip(a *app, id int64) error {
	trip, ok := a.state.Trip(id)
	if !ok {
		return domain.ErrTripNotFound
	}
	fmt.Print(renderTrips(a, trip.Name, []domain.Trip{trip}))
	return nil
}
