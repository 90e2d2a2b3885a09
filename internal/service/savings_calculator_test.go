package service

import (
	"testing"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedNow is 10:00 on 1 January 2026, UTC
var fixedNow = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestCalculator() *SavingsCalculator {
	return NewSavingsCalculatorWithClock(time.UTC, func() time.Time { return fixedNow })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimalNear(t require.TestingT, want, got decimal.Decimal, tolerance float64) {
	diff := want.Sub(got).Abs().InexactFloat64()
	if diff > tolerance {
		assert.Fail(t, "decimal mismatch", "want %s, got %s (diff %v)", want, got, diff)
	}
}

func TestTargetsForDays_HundredDays(t *testing.T) {
	got := TargetsForDays(dec("3000"), dec("100"))

	assert.True(t, got.Daily.Equal(dec("30")), "daily %s", got.Daily)
	assert.True(t, got.Weekly.Equal(dec("210")), "weekly %s", got.Weekly)
	assert.True(t, got.Monthly.Equal(dec("913.2")), "monthly %s", got.Monthly)
}

func TestTargetsForDays_NonPositiveDays(t *testing.T) {
	assert.Equal(t, domain.ZeroTargets, TargetsForDays(dec("500"), decimal.Zero))
	assert.Equal(t, domain.ZeroTargets, TargetsForDays(dec("500"), dec("-0.5")))
}

func TestTargetsForDays_Oversaved(t *testing.T) {
	got := TargetsForDays(dec("-250"), dec("10"))

	assert.True(t, got.Daily.IsZero())
	assert.True(t, got.Weekly.IsZero())
	assert.True(t, got.Monthly.IsZero())
}

func TestTargets_UsesFractionalDays(t *testing.T) {
	calc := newTestCalculator()

	// start of 1 Jan to end of 9 Apr is 100 days less one millisecond
	got := calc.Targets(dec("3000"), decimal.Zero, "2026-04-09")

	assert.True(t, got.Daily.GreaterThan(dec("30")), "fractional days must not be rounded")
	assertDecimalNear(t, dec("30"), got.Daily, 1e-6)
	assertDecimalNear(t, dec("210"), got.Weekly, 1e-5)
	assertDecimalNear(t, dec("913.2"), got.Monthly, 1e-5)
}

func TestTargets_FullySaved(t *testing.T) {
	calc := newTestCalculator()

	got := calc.Targets(dec("1000"), dec("1000"), "2026-06-01")

	assert.Equal(t, domain.ZeroTargets, got)
	assert.True(t, Progress(dec("1000"), dec("1000")).Equal(dec("100")))
}

func TestTargets_PastReturnDate(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, domain.ZeroTargets, calc.Targets(dec("1000"), decimal.Zero, "2025-12-31"))
	assert.Equal(t, domain.ZeroTargets, calc.Targets(dec("1000"), decimal.Zero, "2024-05-05"))
}

func TestTargets_ReturnToday(t *testing.T) {
	calc := newTestCalculator()

	// today counts as (almost) one full day of saving
	got := calc.Targets(dec("100"), decimal.Zero, "2026-01-01")

	assert.True(t, got.Daily.GreaterThan(dec("100")))
	assertDecimalNear(t, dec("100"), got.Daily, 1e-4)
}

func TestTargets_FarFutureReturn(t *testing.T) {
	calc := newTestCalculator()

	// 474 years with 115 leap days, plus the return day itself
	days, ok := calc.DaysUntilReturn("2500-01-01")
	require.True(t, ok)
	assertDecimalNear(t, dec("173126"), days, 1e-6)

	got := calc.Targets(dec("3000"), decimal.Zero, "2500-01-01")
	assertDecimalNear(t, dec("3000"), got.Daily.Mul(days), 1e-6)
}

func TestTargets_ShortCircuits(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, domain.ZeroTargets, calc.Targets(decimal.Zero, decimal.Zero, "2026-05-01"))
	assert.Equal(t, domain.ZeroTargets, calc.Targets(dec("900"), decimal.Zero, ""))
	assert.Equal(t, domain.ZeroTargets, calc.Targets(dec("900"), decimal.Zero, "next summer"))
}

func TestTargets_RespectsLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 20:00 UTC on 31 Dec is already 1 Jan in Tokyo
	now := time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC)
	calc := NewSavingsCalculatorWithClock(tokyo, func() time.Time { return now })

	days, ok := calc.DaysUntilReturn("2026-01-01")
	require.True(t, ok)
	assertDecimalNear(t, dec("1"), days, 1e-6)
}

func TestTargets_Properties(t *testing.T) {
	calc := newTestCalculator()

	rapid.Check(t, func(t *rapid.T) {
		cost := decimal.New(rapid.Int64Range(1, 10_000_000).Draw(t, "costCents"), -2)
		saved := decimal.New(rapid.Int64Range(0, 10_000_000).Draw(t, "savedCents"), -2)
		daysAhead := rapid.IntRange(0, 1500).Draw(t, "daysAhead")
		returnDate := fixedNow.AddDate(0, 0, daysAhead).Format("2006-01-02")

		got := calc.Targets(cost, saved, returnDate)
		days, ok := calc.DaysUntilReturn(returnDate)
		require.True(t, ok)
		require.True(t, days.IsPositive())

		if !got.Weekly.Equal(got.Daily.Mul(decimal.NewFromInt(7))) {
			t.Fatalf("weekly %s != 7 * daily %s", got.Weekly, got.Daily)
		}
		if !got.Monthly.Equal(got.Daily.Mul(dec("30.44"))) {
			t.Fatalf("monthly %s != 30.44 * daily %s", got.Monthly, got.Daily)
		}
		if got.Daily.IsNegative() || got.Weekly.IsNegative() || got.Monthly.IsNegative() {
			t.Fatalf("negative target %+v", got)
		}

		remaining := decimal.Max(decimal.Zero, cost.Sub(saved))
		assertDecimalNear(t, remaining, got.Daily.Mul(days), 1e-6)

		if saved.GreaterThan(cost) && !got.Daily.IsZero() {
			t.Fatalf("oversaved trip has daily target %s", got.Daily)
		}
	})
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name  string
		saved string
		cost  string
		want  string
	}{
		{"nothing saved", "0", "3000", "0"},
		{"quarter", "750", "3000", "25"},
		{"complete", "3000", "3000", "100"},
		{"oversaved caps at 100", "4500", "3000", "100"},
		{"no cost", "100", "0", "0"},
		{"negative saved", "-20", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(dec(tt.saved), dec(tt.cost))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestProgress_IdempotentAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		saved := decimal.New(rapid.Int64Range(-1000, 10_000_000).Draw(t, "saved"), -2)
		cost := decimal.New(rapid.Int64Range(0, 10_000_000).Draw(t, "cost"), -2)

		first := Progress(saved, cost)
		second := Progress(saved, cost)

		if !first.Equal(second) {
			t.Fatalf("progress not idempotent: %s vs %s", first, second)
		}
		if first.IsNegative() || first.GreaterThan(dec("100")) {
			t.Fatalf("progress %s out of range", first)
		}
	})
}

func TestDaysUntil_RoundsUp(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, 10, calc.DaysUntil("2026-01-11"))
	assert.Equal(t, 0, calc.DaysUntil("2025-12-25"))
	assert.Equal(t, 0, calc.DaysUntil(""))
}

func TestRecompute_ClampsAndRefreshes(t *testing.T) {
	calc := newTestCalculator()
	trip := domain.Trip{
		ID:            1,
		EstimatedCost: dec("2000"),
		SavedAmount:   dec("-50"),
		Progress:      dec("80"),
		ReturnDate:    "2026-04-09",
	}

	got := calc.Recompute(trip)

	assert.True(t, got.SavedAmount.IsZero())
	assert.True(t, got.Progress.IsZero())
	assertDecimalNear(t, dec("20"), got.DailyTarget, 1e-6)
}

func TestWithSavedAmount_AddsAndRecomputes(t *testing.T) {
	calc := newTestCalculator()
	trip := calc.Recompute(domain.Trip{ID: 1, EstimatedCost: dec("1000"), ReturnDate: "2026-04-09"})

	got := calc.WithSavedAmount(trip, trip.SavedAmount.Add(dec("100")))

	assert.True(t, got.SavedAmount.Equal(dec("100")))
	assert.True(t, got.Progress.Equal(dec("10")))
	assertDecimalNear(t, dec("9"), got.DailyTarget, 1e-6)
}

func TestWithProgress(t *testing.T) {
	calc := newTestCalculator()
	trip := domain.Trip{ID: 1, EstimatedCost: dec("2000"), ReturnDate: "2026-06-01"}

	quarter := calc.WithProgress(trip, dec("25"))
	assert.True(t, quarter.SavedAmount.Equal(dec("500")))
	assert.True(t, quarter.Progress.Equal(dec("25")))

	over := calc.WithProgress(trip, dec("150"))
	assert.True(t, over.SavedAmount.Equal(dec("2000")))
	assert.True(t, over.Progress.Equal(dec("100")))
	assert.True(t, over.IsCompleted())

	under := calc.WithProgress(trip, dec("-5"))
	assert.True(t, under.SavedAmount.IsZero())

	noCost := calc.WithProgress(domain.Trip{ID: 2}, dec("50"))
	assert.True(t, noCost.SavedAmount.IsZero())
	assert.True(t, noCost.Progress.IsZero())
}
