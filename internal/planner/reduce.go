package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/shopspring/decimal"
)

// Reduce applies a to s and returns the new state together with the store
// writes that mirror it. s is not modified. No writes are produced in demo
// mode or when signed out.
func Reduce(calc *service.SavingsCalculator, s State, a Action) (State, []outbox.Op, error) {
	next, writes, err := reduce(calc, s, a)
	if err != nil {
		return s, nil, err
	}
	if next.DemoMode || !next.SignedIn() {
		return next, nil, nil
	}

	ops := make([]outbox.Op, 0, len(writes))
	for _, w := range writes {
		op, err := outbox.NewOp(w.kind, w.tripID, w.body)
		if err != nil {
			return s, nil, err
		}
		ops = append(ops, op)
	}
	return next, ops, nil
}

type write struct {
	kind   outbox.Kind
	tripID int64
	body   any
}

func reduce(calc *service.SavingsCalculator, s State, a Action) (State, []write, error) {
	switch a := a.(type) {
	case Hydrate:
		trips := a.Trips
		if trips == nil {
			trips = []domain.Trip{}
		}
		return State{
			User:    a.User,
			Balance: a.Balance,
			Goal:    a.Goal,
			Trips:   calc.RecomputeAll(trips),
		}, nil, nil

	case EnterDemo:
		next := NewState()
		next.User = DemoUser()
		next.DemoMode = true
		return next, nil, nil

	case SignOut:
		return NewState(), nil, nil

	case CreateTrip:
		return createTrip(calc, s, a)

	case SetBalance:
		if a.Balance.IsNegative() {
			return s, nil, domain.ErrInvalidAmount
		}
		delta := a.Balance.Sub(s.Balance)
		next := s
		next.Balance = a.Balance
		writes := []write{balanceWrite(a.Balance)}
		if delta.IsZero() {
			return next, writes, nil
		}
		next, w := attribute(calc, next, delta)
		return next, append(writes, w...), nil

	case AddSavings:
		if a.Amount.IsNegative() {
			return s, nil, domain.ErrInvalidAmount
		}
		next := s
		next.Balance = s.Balance.Add(a.Amount)
		writes := []write{balanceWrite(next.Balance)}
		next, w := attribute(calc, next, a.Amount)
		return next, append(writes, w...), nil

	case SetSavedAmount:
		if a.Amount.IsNegative() {
			return s, nil, domain.ErrInvalidAmount
		}
		return updateTrip(s, a.TripID, func(t domain.Trip) (domain.Trip, any) {
			t = calc.WithSavedAmount(t, a.Amount)
			return t, savedFields(t)
		})

	case SetProgress:
		return updateTrip(s, a.TripID, func(t domain.Trip) (domain.Trip, any) {
			t = calc.WithProgress(t, a.Progress)
			return t, map[string]decimal.Decimal{"progress": t.Progress, "savedAmount": t.SavedAmount}
		})

	case SetPriority:
		if !domain.ValidPriority(a.Priority) {
			return s, nil, domain.ErrInvalidPriority
		}
		return updateTrip(s, a.TripID, func(t domain.Trip) (domain.Trip, any) {
			t.Priority = a.Priority
			if a.Starred != nil {
				t.IsStarred = *a.Starred
			}
			return t, map[string]any{"priority": t.Priority, "isStarred": t.IsStarred}
		})

	case DeleteTrip:
		next := s
		next.Trips = make([]domain.Trip, 0, len(s.Trips))
		for _, t := range s.Trips {
			if t.ID != a.TripID {
				next.Trips = append(next.Trips, t)
			}
		}
		return next, []write{{kind: outbox.KindDeleteTrip, tripID: a.TripID}}, nil

	case RefreshTargets:
		next := s
		next.Trips = calc.RecomputeAll(s.Trips)
		return next, nil, nil
	}

	return s, nil, fmt.Errorf("planner: unknown action %T", a)
}

func createTrip(calc *service.SavingsCalculator, s State, a CreateTrip) (State, []write, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" && a.To != "" {
		name = domain.DefaultTripName(a.StarRating, a.To)
	}
	if name == "" {
		return s, nil, fmt.Errorf("%w: name or destination is required", domain.ErrInvalidInput)
	}
	if a.EstimatedCost.IsNegative() {
		return s, nil, domain.ErrInvalidAmount
	}

	cost := a.EstimatedCost
	if cost.IsZero() {
		cost = domain.DefaultEstimatedCost
	}
	now := a.Now
	if now.IsZero() {
		now = calc.Now()
	}
	createdAt := now.UTC().Truncate(time.Millisecond)
	balance := s.Balance

	trip := calc.Recompute(domain.Trip{
		ID:            now.UnixMilli(),
		Name:          name,
		From:          a.From,
		To:            a.To,
		StarRating:    a.StarRating,
		Transport:     a.Transport,
		TravelDate:    a.TravelDate,
		ReturnDate:    a.ReturnDate,
		EstimatedCost: cost,
		SavedAmount:   decimal.Zero,
		Priority:      domain.DefaultPriority,
		Balance:       &balance,
		FlightDetails: a.FlightDetails,
		CreatedAt:     &createdAt,
	})
	for domain.FindTrip(s.Trips, trip.ID) >= 0 {
		trip.ID++
	}

	next := s
	next.Trips = append(s.cloneTrips(), trip)
	return next, []write{{kind: outbox.KindCreateTrip, tripID: trip.ID, body: trip}}, nil
}

// attribute moves delta onto the primary trip's saved amount
func attribute(calc *service.SavingsCalculator, s State, delta decimal.Decimal) (State, []write) {
	idx := domain.PrimaryTripIndex(s.Trips)
	if idx < 0 {
		return s, nil
	}
	trips := s.cloneTrips()
	trips[idx] = calc.WithSavedAmount(trips[idx], trips[idx].SavedAmount.Add(delta))
	s.Trips = trips
	return s, []write{{kind: outbox.KindUpdateTrip, tripID: trips[idx].ID, body: savedFields(trips[idx])}}
}

func updateTrip(s State, id int64, fn func(domain.Trip) (domain.Trip, any)) (State, []write, error) {
	idx := domain.FindTrip(s.Trips, id)
	if idx < 0 {
		return s, nil, domain.ErrTripNotFound
	}
	trips := s.cloneTrips()
	updated, body := fn(trips[idx])
	trips[idx] = updated
	s.Trips = trips
	return s, []write{{kind: outbox.KindUpdateTrip, tripID: id, body: body}}, nil
}

func balanceWrite(balance decimal.Decimal) write {
	return write{kind: outbox.KindSetBalance, body: map[string]decimal.Decimal{"balance": balance}}
}

func savedFields(t domain.Trip) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"savedAmount": t.SavedAmount}
}
