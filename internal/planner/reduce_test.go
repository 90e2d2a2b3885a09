package planner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testCalc() *service.SavingsCalculator {
	return service.NewSavingsCalculatorWithClock(time.UTC, func() time.Time { return testNow })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func signedIn() State {
	s := NewState()
	s.User = &domain.User{ID: uuid.MustParse("6f1c2b4e-8d3a-4f7e-9b21-0c5d7e8f9a10"), Email: "sam@example.com", Name: "Sam"}
	s.Balance = dec("1000")
	return s
}

// mustReduce applies actions in order and returns the final state and all ops
func mustReduce(t *testing.T, s State, actions ...Action) (State, []outbox.Op) {
	t.Helper()
	var all []outbox.Op
	for _, a := range actions {
		next, ops, err := Reduce(testCalc(), s, a)
		require.NoError(t, err)
		s = next
		all = append(all, ops...)
	}
	return s, all
}

func plan(name, cost string, offset time.Duration) CreateTrip {
	return CreateTrip{
		Name:          name,
		TravelDate:    "2026-06-01",
		ReturnDate:    "2026-06-10",
		EstimatedCost: dec(cost),
		Now:           testNow.Add(offset),
	}
}

func payload(t *testing.T, op outbox.Op) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(op.Payload, &m))
	return m
}

func TestReduce_CreateTrip(t *testing.T) {
	s, ops := mustReduce(t, signedIn(), CreateTrip{
		To:         "Paris, France",
		StarRating: "4",
		TravelDate: "2026-06-01",
		ReturnDate: "2026-06-10",
		Now:        testNow,
	})

	require.Len(t, s.Trips, 1)
	trip := s.Trips[0]
	assert.Equal(t, testNow.UnixMilli(), trip.ID)
	assert.Equal(t, "4 Star Trip - Paris", trip.Name)
	assert.True(t, trip.EstimatedCost.Equal(domain.DefaultEstimatedCost))
	assert.True(t, trip.SavedAmount.IsZero())
	assert.True(t, trip.Progress.IsZero())
	assert.Equal(t, domain.DefaultPriority, trip.Priority)
	assert.True(t, trip.DailyTarget.IsPositive())
	require.NotNil(t, trip.Balance)
	assert.True(t, trip.Balance.Equal(dec("1000")))

	require.Len(t, ops, 1)
	assert.Equal(t, outbox.KindCreateTrip, ops[0].Kind)
	assert.Equal(t, trip.ID, ops[0].TripID)
	assert.EqualValues(t, trip.ID, payload(t, ops[0])["id"])
}

func TestReduce_CreateTrip_BumpsCollidingID(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "1000", 0), plan("Oslo", "1000", 0))
	require.Len(t, s.Trips, 2)
	assert.Equal(t, s.Trips[0].ID+1, s.Trips[1].ID)
}

func TestReduce_CreateTrip_RequiresName(t *testing.T) {
	s := signedIn()
	next, ops, err := Reduce(testCalc(), s, CreateTrip{Now: testNow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, ops)
	assert.Equal(t, s, next)
}

func TestReduce_SetBalance_AttributesDeltaToPrimary(t *testing.T) {
	s, _ := mustReduce(t, signedIn(),
		plan("Rome", "1000", 0),
		plan("Oslo", "2000", time.Millisecond),
	)
	rome := s.Trips[0]
	oslo := s.Trips[1]
	starred := true
	s, _ = mustReduce(t, s, SetPriority{TripID: oslo.ID, Priority: domain.PriorityLow, Starred: &starred})

	s, ops := mustReduce(t, s, SetBalance{Balance: dec("1250")})

	assert.True(t, s.Balance.Equal(dec("1250")))
	got, _ := s.Trip(oslo.ID)
	assert.True(t, got.SavedAmount.Equal(dec("250")), "starred trip is primary")
	assert.True(t, got.Progress.Equal(dec("12.5")))
	untouched, _ := s.Trip(rome.ID)
	assert.True(t, untouched.SavedAmount.IsZero())

	require.Len(t, ops, 2)
	assert.Equal(t, outbox.KindSetBalance, ops[0].Kind)
	assert.Equal(t, "1250", payload(t, ops[0])["balance"])
	assert.Equal(t, outbox.KindUpdateTrip, ops[1].Kind)
	assert.Equal(t, oslo.ID, ops[1].TripID)
	assert.Equal(t, "250", payload(t, ops[1])["savedAmount"])
}

func TestReduce_SetBalance_DecreaseClampsAtZero(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "1000", 0), AddSavings{Amount: dec("100")})

	s, _ = mustReduce(t, s, SetBalance{Balance: dec("500")})

	assert.True(t, s.Balance.Equal(dec("500")))
	assert.True(t, s.Trips[0].SavedAmount.IsZero())
	assert.True(t, s.Trips[0].Progress.IsZero())
}

func TestReduce_SetBalance_Unchanged(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "1000", 0))
	_, ops := mustReduce(t, s, SetBalance{Balance: s.Balance})
	require.Len(t, ops, 1)
	assert.Equal(t, outbox.KindSetBalance, ops[0].Kind)
}

func TestReduce_AddSavings(t *testing.T) {
	t.Run("attributes to primary", func(t *testing.T) {
		s, _ := mustReduce(t, signedIn(), plan("Rome", "400", 0))
		s, ops := mustReduce(t, s, AddSavings{Amount: dec("100")})

		assert.True(t, s.Balance.Equal(dec("1100")))
		assert.True(t, s.Trips[0].SavedAmount.Equal(dec("100")))
		assert.True(t, s.Trips[0].Progress.Equal(dec("25")))
		assert.Len(t, ops, 2)
	})

	t.Run("no active trip changes only the balance", func(t *testing.T) {
		s, ops := mustReduce(t, signedIn(), AddSavings{Amount: dec("50")})
		assert.True(t, s.Balance.Equal(dec("1050")))
		require.Len(t, ops, 1)
		assert.Equal(t, outbox.KindSetBalance, ops[0].Kind)
	})

	t.Run("completed trips are skipped", func(t *testing.T) {
		s, _ := mustReduce(t, signedIn(), plan("Rome", "100", 0), plan("Oslo", "100", time.Millisecond))
		s, _ = mustReduce(t, s, SetProgress{TripID: s.Trips[0].ID, Progress: dec("100")})
		s, _ = mustReduce(t, s, AddSavings{Amount: dec("10")})

		assert.True(t, s.Trips[0].SavedAmount.Equal(dec("100")))
		assert.True(t, s.Trips[1].SavedAmount.Equal(dec("10")))
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, _, err := Reduce(testCalc(), signedIn(), AddSavings{Amount: dec("-1")})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestReduce_SetProgress(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "3000", 0))
	id := s.Trips[0].ID

	s, ops := mustReduce(t, s, SetProgress{TripID: id, Progress: dec("40")})
	assert.True(t, s.Trips[0].SavedAmount.Equal(dec("1200")))
	assert.True(t, s.Trips[0].Progress.Equal(dec("40")))
	require.Len(t, ops, 1)
	assert.Equal(t, map[string]any{"progress": "40", "savedAmount": "1200"}, payload(t, ops[0]))

	s, _ = mustReduce(t, s, SetProgress{TripID: id, Progress: dec("150")})
	assert.True(t, s.Trips[0].SavedAmount.Equal(dec("3000")))
	assert.Len(t, s.Completed(), 1)
	_, ok := s.Primary()
	assert.False(t, ok)

	_, _, err := Reduce(testCalc(), s, SetProgress{TripID: 42, Progress: dec("10")})
	assert.ErrorIs(t, err, domain.ErrTripNotFound)
}

func TestReduce_SetPriority(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "3000", 0))
	id := s.Trips[0].ID

	s, ops := mustReduce(t, s, SetPriority{TripID: id, Priority: domain.PriorityHigh})
	assert.Equal(t, domain.PriorityHigh, s.Trips[0].Priority)
	assert.False(t, s.Trips[0].IsStarred)
	assert.Equal(t, map[string]any{"priority": float64(1), "isStarred": false}, payload(t, ops[0]))

	_, _, err := Reduce(testCalc(), s, SetPriority{TripID: id, Priority: 4})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestReduce_DeleteTrip(t *testing.T) {
	s, _ := mustReduce(t, signedIn(), plan("Rome", "3000", 0))
	id := s.Trips[0].ID

	s, ops := mustReduce(t, s, DeleteTrip{TripID: id})
	assert.Empty(t, s.Trips)
	require.Len(t, ops, 1)
	assert.Equal(t, outbox.KindDeleteTrip, ops[0].Kind)
	assert.Equal(t, id, ops[0].TripID)

	// deleting again is harmless and still synced
	_, ops = mustReduce(t, s, DeleteTrip{TripID: id})
	assert.Len(t, ops, 1)
}

func TestReduce_DemoModeProducesNoOps(t *testing.T) {
	s, ops := mustReduce(t, NewState(), EnterDemo{}, plan("Rome", "1000", 0), AddSavings{Amount: dec("10")})
	assert.True(t, s.DemoMode)
	assert.Equal(t, "Demo User", s.User.Name)
	assert.Len(t, s.Trips, 1)
	assert.Empty(t, ops)

	s, _ = mustReduce(t, s, SignOut{})
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Trips)
}

func TestReduce_HydrateRecomputes(t *testing.T) {
	stale := domain.Trip{ID: 1, Name: "Rome", EstimatedCost: dec("200"), SavedAmount: dec("50"), ReturnDate: "2026-03-10"}
	s, ops := mustReduce(t, NewState(), Hydrate{User: signedIn().User, Balance: dec("5"), Goal: dec("10"), Trips: []domain.Trip{stale}})

	assert.Empty(t, ops)
	assert.True(t, s.Trips[0].Progress.Equal(dec("25")))
	assert.True(t, s.Trips[0].DailyTarget.IsPositive())
	assert.True(t, s.GoalAmount().Equal(dec("200")))
}

func TestState_Views(t *testing.T) {
	s := signedIn()
	s.Goal = dec("5678.90")
	assert.True(t, s.GoalAmount().Equal(dec("5678.90")))

	s, _ = mustReduce(t, s,
		plan("Rome", "1000", 0),
		plan("Oslo", "500", time.Millisecond),
		plan("Lima", "800", 2*time.Millisecond),
	)
	s, _ = mustReduce(t, s,
		SetPriority{TripID: s.Trips[2].ID, Priority: domain.PriorityHigh},
		SetProgress{TripID: s.Trips[1].ID, Progress: dec("100")},
	)

	primary, ok := s.Primary()
	require.True(t, ok)
	assert.Equal(t, "Lima", primary.Name)
	assert.True(t, s.GoalAmount().Equal(dec("800")))

	names := func(trips []domain.Trip) []string {
		out := make([]string, len(trips))
		for i, t := range trips {
			out[i] = t.Name
		}
		return out
	}
	assert.Equal(t, []string{"Lima", "Rome"}, names(s.Active()))
	assert.Equal(t, []string{"Oslo"}, names(s.Completed()))
	assert.Equal(t, []string{"Rome", "Lima", "Oslo"}, names(s.Sorted(domain.SortByCost)))
}

// drawAction picks a random action against the trips in s
func drawAction(t *rapid.T, s State) Action {
	ids := []int64{999}
	for _, trip := range s.Trips {
		ids = append(ids, trip.ID)
	}
	amount := decimal.New(rapid.Int64Range(0, 500_000).Draw(t, "cents"), -2)

	switch rapid.IntRange(0, 6).Draw(t, "kind") {
	case 0:
		return CreateTrip{
			Name:          "Trip",
			ReturnDate:    rapid.SampledFrom([]string{"", "2026-02-01", "2026-03-01", "2026-09-30"}).Draw(t, "return"),
			EstimatedCost: decimal.New(rapid.Int64Range(0, 1_000_000).Draw(t, "cost"), -2),
			Now:           testNow,
		}
	case 1:
		return SetBalance{Balance: amount}
	case 2:
		return AddSavings{Amount: amount}
	case 3:
		return SetProgress{TripID: rapid.SampledFrom(ids).Draw(t, "id"), Progress: decimal.NewFromInt(rapid.Int64Range(-20, 150).Draw(t, "pct"))}
	case 4:
		starred := rapid.Bool().Draw(t, "starred")
		return SetPriority{TripID: rapid.SampledFrom(ids).Draw(t, "id"), Priority: rapid.IntRange(1, 3).Draw(t, "priority"), Starred: &starred}
	case 5:
		return SetSavedAmount{TripID: rapid.SampledFrom(ids).Draw(t, "id"), Amount: amount}
	default:
		return DeleteTrip{TripID: rapid.SampledFrom(ids).Draw(t, "id")}
	}
}

func TestReduce_Properties(t *testing.T) {
	calc := testCalc()
	rapid.Check(t, func(t *rapid.T) {
		s := signedIn()
		steps := rapid.IntRange(1, 25).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			action := drawAction(t, s)
			before, err := json.Marshal(s)
			if err != nil {
				t.Fatal(err)
			}

			next, ops, err := Reduce(calc, s, action)

			after, _ := json.Marshal(s)
			if string(before) != string(after) {
				t.Fatalf("Reduce modified its input on %T", action)
			}
			if err != nil {
				if len(ops) != 0 {
					t.Fatalf("failed %T produced ops", action)
				}
				continue
			}

			for _, trip := range next.Trips {
				if trip.SavedAmount.IsNegative() {
					t.Fatalf("negative saved amount %s", trip.SavedAmount)
				}
				want := service.Progress(trip.SavedAmount, trip.EstimatedCost)
				if !trip.Progress.Equal(want) {
					t.Fatalf("progress %s, want %s", trip.Progress, want)
				}
				if trip.Progress.GreaterThan(domain.Hundred) {
					t.Fatalf("progress above 100: %s", trip.Progress)
				}
			}
			if primary, ok := next.Primary(); ok && primary.IsCompleted() {
				t.Fatalf("completed trip %d chosen as primary", primary.ID)
			}
			if next.Balance.IsNegative() {
				t.Fatalf("negative balance %s", next.Balance)
			}
			s = next
		}
	})
}

func TestReduce_AddSavingsEqualsSetBalance(t *testing.T) {
	calc := testCalc()
	rapid.Check(t, func(t *rapid.T) {
		s := signedIn()
		n := rapid.IntRange(0, 4).Draw(t, "trips")
		for i := 0; i < n; i++ {
			next, _, err := Reduce(calc, s, CreateTrip{
				Name:          "Trip",
				ReturnDate:    "2026-09-30",
				EstimatedCost: decimal.New(rapid.Int64Range(1, 1_000_000).Draw(t, "cost"), -2),
				Now:           testNow,
			})
			if err != nil {
				t.Fatal(err)
			}
			s = next
		}
		amount := decimal.New(rapid.Int64Range(0, 100_000).Draw(t, "amount"), -2)

		viaAdd, _, err := Reduce(calc, s, AddSavings{Amount: amount})
		if err != nil {
			t.Fatal(err)
		}
		viaSet, _, err := Reduce(calc, s, SetBalance{Balance: s.Balance.Add(amount)})
		if err != nil {
			t.Fatal(err)
		}

		a, _ := json.Marshal(viaAdd)
		b, _ := json.Marshal(viaSet)
		if string(a) != string(b) {
			t.Fatalf("add savings and set balance disagree:\n%s\n%s", a, b)
		}
	})
}
