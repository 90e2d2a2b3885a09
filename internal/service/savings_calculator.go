package service

import (
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/util"
	"github.com/shopspring/decimal"
)

var (
	daysPerWeek    = decimal.NewFromInt(7)
	daysPerMonth   = decimal.RequireFromString("30.44")
	millisPerDay   = decimal.NewFromInt(24 * 60 * 60 * 1000)
	hundredPercent = domain.Hundred
)

// SavingsCalculator computes savings targets and progress for trips.
// "Today" is taken from the injected clock in the configured location.
type SavingsCalculator struct {
	loc *time.Location
	now func() time.Time
}

// NewSavingsCalculator creates a calculator using the wall clock
func NewSavingsCalculator(loc *time.Location) *SavingsCalculator {
	return NewSavingsCalculatorWithClock(loc, time.Now)
}

// NewSavingsCalculatorWithClock creates a calculator with a custom clock
func NewSavingsCalculatorWithClock(loc *time.Location, now func() time.Time) *SavingsCalculator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SavingsCalculator{loc: loc, now: now}
}

// Location returns the time zone used for calendar arithmetic
func (c *SavingsCalculator) Location() *time.Location {
	return c.loc
}

// Now returns the calculator's current time in its location
func (c *SavingsCalculator) Now() time.Time {
	return c.now().In(c.loc)
}

// DaysUntilReturn returns the exact fractional number of days between the
// start of today and the end of the return date. ok is false when the return
// date is missing or unparseable.
func (c *SavingsCalculator) DaysUntilReturn(returnDate string) (days decimal.Decimal, ok bool) {
	if returnDate == "" {
		return decimal.Zero, false
	}
	ret, err := util.ParseCalendarDate(returnDate, c.loc)
	if err != nil {
		return decimal.Zero, false
	}

	start := util.StartOfDay(c.Now())
	end := util.EndOfDay(ret)
	// time.Time.Sub saturates after ~292 years; unix millis do not
	ms := end.UnixMilli() - start.UnixMilli()

	return decimal.NewFromInt(ms).Div(millisPerDay), true
}

// Targets computes the daily, weekly and monthly contribution that closes the
// gap between estimatedCost and savedAmount by the return date.
func (c *SavingsCalculator) Targets(estimatedCost, savedAmount decimal.Decimal, returnDate string) domain.SavingsTargets {
	if estimatedCost.IsZero() || returnDate == "" {
		return domain.ZeroTargets
	}

	days, ok := c.DaysUntilReturn(returnDate)
	if !ok {
		return domain.ZeroTargets
	}

	return TargetsForDays(estimatedCost.Sub(savedAmount), days)
}

// TargetsForDays spreads remaining over days. Each figure is clamped at zero
// after the division, so an oversaved trip yields zero targets.
func TargetsForDays(remaining, days decimal.Decimal) domain.SavingsTargets {
	if days.LessThanOrEqual(decimal.Zero) {
		return domain.ZeroTargets
	}

	daily := remaining.Div(days)
	weekly := daily.Mul(daysPerWeek)
	monthly := daily.Mul(daysPerMonth)

	return domain.SavingsTargets{
		Daily:   clampZero(daily),
		Weekly:  clampZero(weekly),
		Monthly: clampZero(monthly),
	}
}

// Progress returns min(100, saved/cost*100), or 0 for a trip with no cost
func Progress(savedAmount, estimatedCost decimal.Decimal) decimal.Decimal {
	if estimatedCost.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	p := clampZero(savedAmount).Div(estimatedCost).Mul(hundredPercent)
	return decimal.Min(hundredPercent, p)
}

// DaysUntil returns whole days left until date, rounded up. Display only.
func (c *SavingsCalculator) DaysUntil(date string) int {
	d, err := util.ParseCalendarDate(date, c.loc)
	if err != nil {
		return 0
	}
	return util.CeilDays(d.Sub(c.Now()))
}

// Recompute clamps the trip's saved amount and refreshes progress and targets
func (c *SavingsCalculator) Recompute(trip domain.Trip) domain.Trip {
	trip.SavedAmount = clampZero(trip.SavedAmount)
	trip.Progress = Progress(trip.SavedAmount, trip.EstimatedCost)
	return trip.WithTargets(c.Targets(trip.EstimatedCost, trip.SavedAmount, trip.ReturnDate))
}

// WithSavedAmount sets the trip's saved amount and recomputes derived fields
func (c *SavingsCalculator) WithSavedAmount(trip domain.Trip, savedAmount decimal.Decimal) domain.Trip {
	trip.SavedAmount = savedAmount
	return c.Recompute(trip)
}

// WithProgress translates a progress percentage into a saved amount and
// recomputes from there. progress is clamped to [0, 100].
func (c *SavingsCalculator) WithProgress(trip domain.Trip, progress decimal.Decimal) domain.Trip {
	progress = decimal.Min(hundredPercent, clampZero(progress))
	saved := progress.Div(hundredPercent).Mul(trip.EstimatedCost)
	return c.WithSavedAmount(trip, saved)
}

// RecomputeAll refreshes every trip, returning a new slice
func (c *SavingsCalculator) RecomputeAll(trips []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		out[i] = c.Recompute(t)
	}
	return out
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}
	return d
}
